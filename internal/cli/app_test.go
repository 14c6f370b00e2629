package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmeet/internal/auth"
	"orgmeet/internal/client"
	"orgmeet/internal/logging"
)

type harness struct {
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer
	srv    *httptest.Server
}

func newHarness(t *testing.T, handler http.Handler, stdin string) *harness {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	db, err := client.OpenCache(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	api := client.NewAPI(srv.URL, srv.Client())
	h := &harness{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}, srv: srv}
	h.app = &App{
		Sessions: client.NewSessionStore(db),
		Repo:     client.NewFallbackRepository(api, client.NewSnapshotStore(db), logging.Discard()),
		API:      api,
		In:       bufio.NewReader(strings.NewReader(stdin)),
		Out:      h.out,
		Err:      h.errOut,
	}
	return h
}

func stubPassword(t *testing.T, pw string) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func() ([]byte, error) { return []byte(pw), nil }
}

func fakeAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "acme@example.com" || body["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok","user":{"id":2,"name":"Acme","email":"acme@example.com","role":"entity","entity_id":3}}`))
	})
	mux.HandleFunc("GET /api/meetings/entity/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.PathValue("id") != "3" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Forbidden"}`))
			return
		}
		_, _ = w.Write([]byte(`[{"id":1,"entity_id":3,"title":"Board","location":"HQ","start_date":"2026-04-01T09:00:00Z"}]`))
	})
	return mux
}

func TestApp_LoginThenMeetings(t *testing.T) {
	stubPassword(t, "secret1")
	h := newHarness(t, fakeAPI(), "acme@example.com\n")
	ctx := context.Background()

	require.Equal(t, 0, h.app.Run(ctx, []string{"login"}), h.errOut.String())
	assert.Contains(t, h.out.String(), "Logged in as acme@example.com (entity)")

	h.out.Reset()
	require.Equal(t, 0, h.app.Run(ctx, []string{"meetings"}), h.errOut.String())
	assert.Contains(t, h.out.String(), "Board")
	assert.Empty(t, h.errOut.String())

	h.srv.Close()
	h.out.Reset()
	require.Equal(t, 0, h.app.Run(ctx, []string{"meetings"}))
	assert.Contains(t, h.out.String(), "Board")
	assert.Contains(t, h.errOut.String(), "server unreachable")
}

func TestApp_LoginRejected(t *testing.T) {
	stubPassword(t, "wrong")
	h := newHarness(t, fakeAPI(), "")

	code := h.app.Run(context.Background(), []string{"login", "-email", "acme@example.com"})
	assert.Equal(t, 1, code)
	assert.Contains(t, h.errOut.String(), "invalid email or password")
}

func TestApp_RequiresSession(t *testing.T) {
	h := newHarness(t, fakeAPI(), "")

	assert.Equal(t, 1, h.app.Run(context.Background(), []string{"meetings"}))
	assert.Contains(t, h.errOut.String(), "not logged in")
}

func TestApp_ForbiddenEntityIsNotCached(t *testing.T) {
	stubPassword(t, "secret1")
	h := newHarness(t, fakeAPI(), "")
	ctx := context.Background()
	require.Equal(t, 0, h.app.Run(ctx, []string{"login", "-email", "acme@example.com"}))

	assert.Equal(t, 1, h.app.Run(ctx, []string{"meetings", "-entity", "4"}))
	assert.Contains(t, h.errOut.String(), "Forbidden")
}

func TestApp_RejectedTokenClearsSession(t *testing.T) {
	h := newHarness(t, fakeAPI(), "")
	ctx := context.Background()
	require.NoError(t, h.app.Sessions.Save(ctx, &client.Session{Token: "revoked", User: auth.Profile{ID: 2, Role: auth.RoleEntity}}))

	assert.Equal(t, 1, h.app.Run(ctx, []string{"meetings", "-entity", "3"}))
	assert.Contains(t, h.errOut.String(), "session expired")

	_, err := h.app.Sessions.Load(ctx)
	assert.ErrorIs(t, err, client.ErrNoSession)
}

func TestApp_LogoutAndUsage(t *testing.T) {
	stubPassword(t, "secret1")
	h := newHarness(t, fakeAPI(), "")
	ctx := context.Background()
	require.Equal(t, 0, h.app.Run(ctx, []string{"login", "-email", "acme@example.com"}))

	assert.Equal(t, 0, h.app.Run(ctx, []string{"logout"}))
	assert.Equal(t, 1, h.app.Run(ctx, []string{"whoami"}))
	assert.Equal(t, 2, h.app.Run(ctx, []string{"frobnicate"}))
	assert.Equal(t, 2, h.app.Run(ctx, nil))
}
