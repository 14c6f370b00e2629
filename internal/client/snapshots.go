package client

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNoSnapshot = errors.New("no cached snapshot")

// SnapshotStore keeps the last successful response body per owner and path.
type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) Put(ctx context.Context, owner, path string, body []byte, fetchedAt time.Time) error {
	const q = `
		INSERT INTO snapshots (owner, path, body, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (owner, path) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`
	if _, err := s.db.ExecContext(ctx, q, owner, path, body, fetchedAt.UTC()); err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) Get(ctx context.Context, owner, path string) ([]byte, time.Time, error) {
	var body []byte
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx, `SELECT body, fetched_at FROM snapshots WHERE owner = ? AND path = ?`, owner, path).
		Scan(&body, &fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, ErrNoSnapshot
		}
		return nil, time.Time{}, fmt.Errorf("get snapshot: %w", err)
	}
	return body, fetchedAt, nil
}

// Invalidate drops the owner's snapshots whose path starts with any prefix.
func (s *SnapshotStore) Invalidate(ctx context.Context, owner string, prefixes ...string) error {
	for _, p := range prefixes {
		_, err := s.db.ExecContext(ctx,
			`DELETE FROM snapshots WHERE owner = ? AND substr(path, 1, length(?)) = ?`, owner, p, p)
		if err != nil {
			return fmt.Errorf("invalidate snapshots: %w", err)
		}
	}
	return nil
}
