package org

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orgmeet/internal/db"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	db   db.DBTX
	kind Kind
}

func NewStore(conn db.DBTX, kind Kind) *Store {
	return &Store{db: conn, kind: kind}
}

func (s *Store) Kind() Kind { return s.kind }

func (s *Store) columns() string {
	if s.kind.parentColumn == "" {
		return "id, entity_id, name, description, created_at, updated_at"
	}
	return "id, entity_id, name, description, " + s.kind.parentColumn + ", created_at, updated_at"
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scan(row scanner) (*Unit, error) {
	u := &Unit{}
	dest := []any{&u.ID, &u.EntityID, &u.Name, &u.Description}
	var parent sql.NullInt64
	if s.kind.parentColumn != "" {
		dest = append(dest, &parent)
	}
	dest = append(dest, &u.CreatedAt, &u.UpdatedAt)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if p := s.kind.parent(u); p != nil && parent.Valid {
		id := parent.Int64
		*p = &id
	}
	return u, nil
}

func (s *Store) parentArg(u *Unit) any {
	p := s.kind.parent(u)
	if p == nil || *p == nil {
		return nil
	}
	return **p
}

func (s *Store) ListByEntity(ctx context.Context, entityID int64) ([]Unit, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE entity_id = $1 ORDER BY name ASC`, s.columns(), s.kind.table)
	rows, err := s.db.QueryContext(ctx, q, entityID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	res := []Unit{}
	for rows.Next() {
		u, err := s.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res = append(res, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Unit, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, s.columns(), s.kind.table)
	u, err := s.scan(s.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, u *Unit) error {
	var q string
	args := []any{u.EntityID, u.Name, u.Description}
	if s.kind.parentColumn == "" {
		q = fmt.Sprintf(`INSERT INTO %s (entity_id, name, description) VALUES ($1, $2, $3) RETURNING %s`,
			s.kind.table, s.columns())
	} else {
		q = fmt.Sprintf(`INSERT INTO %s (entity_id, name, description, %s) VALUES ($1, $2, $3, $4) RETURNING %s`,
			s.kind.table, s.kind.parentColumn, s.columns())
		args = append(args, s.parentArg(u))
	}
	created, err := s.scan(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	*u = *created
	return nil
}

// Update rewrites name, description and parent. The owning entity never changes.
func (s *Store) Update(ctx context.Context, u *Unit) error {
	var q string
	args := []any{u.Name, u.Description}
	if s.kind.parentColumn == "" {
		q = fmt.Sprintf(`UPDATE %s SET name = $1, description = $2, updated_at = NOW() WHERE id = $3 RETURNING %s`,
			s.kind.table, s.columns())
	} else {
		q = fmt.Sprintf(`UPDATE %s SET name = $1, description = $2, %s = $3, updated_at = NOW() WHERE id = $4 RETURNING %s`,
			s.kind.table, s.kind.parentColumn, s.columns())
		args = append(args, s.parentArg(u))
	}
	args = append(args, u.ID)
	updated, err := s.scan(s.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	*u = *updated
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.kind.table), id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ParentEntity returns the entity owning the parent unit parentID.
func (s *Store) ParentEntity(ctx context.Context, parentID int64) (int64, error) {
	if s.kind.parentTable == "" {
		return 0, ErrNotFound
	}
	var entityID int64
	q := fmt.Sprintf(`SELECT entity_id FROM %s WHERE id = $1`, s.kind.parentTable)
	if err := s.db.QueryRowContext(ctx, q, parentID).Scan(&entityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return entityID, nil
}
