package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrSessionInvalid means the server rejected the session token; the
	// user has to log in again.
	ErrSessionInvalid     = errors.New("session is no longer valid, log in again")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnavailable wraps transport failures: the request never got an
	// answer from the server.
	ErrUnavailable = errors.New("server unavailable")
)

// StatusError is a non-2xx answer that carries the server's error message.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Message)
}

// IsUnavailable reports whether err means the server could not serve the
// request at all: a transport failure or a 5xx.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

type API struct {
	baseURL string
	http    *http.Client
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (a *API) Login(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := a.do(ctx, nil, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, &sess)
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &sess, nil
}

// get fetches path and returns the raw JSON body.
func (a *API) get(ctx context.Context, sess *Session, path string) ([]byte, error) {
	var raw json.RawMessage
	if err := a.do(ctx, sess, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (a *API) do(ctx context.Context, sess *Session, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess != nil {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrSessionInvalid
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Code: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
