package client

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"orgmeet/internal/auth"
)

var ErrNoSession = errors.New("not logged in")

// Session is the result of a successful login. It is passed explicitly to
// every call that needs authentication.
type Session struct {
	Token string       `json:"token"`
	User  auth.Profile `json:"user"`
}

// owner scopes cached snapshots so two accounts never share them.
func (s *Session) owner() string {
	return fmt.Sprintf("%s:%d", s.User.Role, s.User.ID)
}

type SessionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db, now: time.Now}
}

func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	profile, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO session (id, token, profile, saved_at) VALUES (1, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET token = excluded.token, profile = excluded.profile, saved_at = excluded.saved_at`
	if _, err := s.db.ExecContext(ctx, q, sess.Token, string(profile), s.now().UTC()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Load(ctx context.Context) (*Session, error) {
	var token, profile string
	err := s.db.QueryRowContext(ctx, `SELECT token, profile FROM session WHERE id = 1`).Scan(&token, &profile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	sess := &Session{Token: token}
	if err := json.Unmarshal([]byte(profile), &sess.User); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return sess, nil
}

// Clear forgets the session and every cached snapshot.
func (s *SessionStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return tx.Commit()
}
