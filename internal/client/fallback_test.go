package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmeet/internal/auth"
	"orgmeet/internal/logging"
)

// flakyServer answers with the configured status; 0 means a healthy reply.
type flakyServer struct {
	*httptest.Server
	status atomic.Int32
	hits   atomic.Int32
}

func newFlakyServer(t *testing.T, body string) *flakyServer {
	fs := &flakyServer{}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		if code := int(fs.status.Load()); code != 0 {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newRepo(t *testing.T, srv *httptest.Server) *FallbackRepository {
	return NewFallbackRepository(NewAPI(srv.URL, srv.Client()), NewSnapshotStore(openTestCache(t)), logging.Discard())
}

var entitySession = &Session{Token: "tok", User: auth.Profile{ID: 2, Role: auth.RoleEntity, EntityID: int64p(3)}}

const meetingsBody = `[{"id":1,"entity_id":3,"title":"Board","start_date":"2026-04-01T09:00:00Z"}]`

func TestFallback_FreshFetchWritesCache(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	res, err := repo.Meetings(context.Background(), entitySession, 3)
	require.NoError(t, err)
	assert.False(t, res.Stale)
	assert.Equal(t, now, res.FetchedAt)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Board", res.Data[0].Title)

	body, fetchedAt, err := repo.cache.Get(context.Background(), entitySession.owner(), "/api/meetings/entity/3")
	require.NoError(t, err)
	assert.JSONEq(t, meetingsBody, string(body))
	assert.True(t, now.Equal(fetchedAt))
}

func TestFallback_ServerDownServesStale(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)
	fetched := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fetched }

	_, err := repo.Meetings(context.Background(), entitySession, 3)
	require.NoError(t, err)

	srv.status.Store(http.StatusServiceUnavailable)
	res, err := repo.Meetings(context.Background(), entitySession, 3)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.True(t, fetched.Equal(res.FetchedAt))
	assert.Equal(t, "Board", res.Data[0].Title)

	srv.Close()
	res, err = repo.Meetings(context.Background(), entitySession, 3)
	require.NoError(t, err)
	assert.True(t, res.Stale)
}

func TestFallback_NoSnapshotReturnsOriginalError(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	srv.status.Store(http.StatusInternalServerError)
	repo := newRepo(t, srv.Server)

	_, err := repo.Meetings(context.Background(), entitySession, 3)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestFallback_NilSessionWithServerDown(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)
	srv.Close()

	_, err := repo.Entities(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSession)

	err = repo.DeleteMeeting(context.Background(), nil, 1)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFallback_UnauthorizedNeverServedFromCache(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)

	_, err := repo.Meetings(context.Background(), entitySession, 3)
	require.NoError(t, err)

	srv.status.Store(http.StatusUnauthorized)
	_, err = repo.Meetings(context.Background(), entitySession, 3)
	assert.ErrorIs(t, err, ErrSessionInvalid)

	srv.status.Store(http.StatusForbidden)
	_, err = repo.Meetings(context.Background(), entitySession, 3)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

func TestFallback_SnapshotsAreScopedToOwner(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)

	_, err := repo.Meetings(context.Background(), entitySession, 3)
	require.NoError(t, err)

	srv.status.Store(http.StatusBadGateway)
	other := &Session{Token: "other", User: auth.Profile{ID: 1, Role: auth.RoleAdmin}}
	_, err = repo.Meetings(context.Background(), other, 3)
	assert.True(t, IsUnavailable(err))
}

func TestFallback_WriteInvalidates(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)
	ctx := context.Background()

	_, err := repo.Meetings(ctx, entitySession, 3)
	require.NoError(t, err)

	// The fake server echoes the list body; decoding it into a single
	// meeting fails, so send the write to a dedicated server instead.
	writeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":2,"entity_id":3,"title":"New","start_date":"2026-05-01T09:00:00Z"}`))
	}))
	defer writeSrv.Close()
	repo.api = NewAPI(writeSrv.URL, writeSrv.Client())

	m := &Meeting{EntityID: 3, Title: "New", StartDate: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.CreateMeeting(ctx, entitySession, m))
	assert.Equal(t, int64(2), m.ID)

	_, _, err = repo.cache.Get(ctx, entitySession.owner(), "/api/meetings/entity/3")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestFallback_WritesAreNotQueuedOffline(t *testing.T) {
	srv := newFlakyServer(t, meetingsBody)
	repo := newRepo(t, srv.Server)
	srv.Close()

	err := repo.DeleteMeeting(context.Background(), entitySession, 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
