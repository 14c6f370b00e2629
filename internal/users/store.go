package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orgmeet/internal/db"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already in use")
)

const userColumns = `id, entity_id, name, email, role, password_hash, created_at, updated_at`

type Store struct {
	db db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{db: conn}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	u := &User{}
	if err := row.Scan(&u.ID, &u.EntityID, &u.Name, &u.Email, &u.Role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) list(ctx context.Context, q string, args ...any) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	res := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
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

func (s *Store) List(ctx context.Context) ([]User, error) {
	return s.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
}

func (s *Store) ListByEntity(ctx context.Context, entityID int64) ([]User, error) {
	return s.list(ctx, `SELECT `+userColumns+` FROM users WHERE entity_id = $1 ORDER BY name ASC`, entityID)
}

func (s *Store) Get(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, u *User) error {
	const q = `
		INSERT INTO users (entity_id, name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	created, err := scanUser(s.db.QueryRowContext(ctx, q, u.EntityID, u.Name, u.Email, u.Role, u.PasswordHash))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	*u = *created
	return nil
}

func (s *Store) Update(ctx context.Context, u *User) error {
	const q = `
		UPDATE users SET name = $1, email = $2, role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + userColumns
	updated, err := scanUser(s.db.QueryRowContext(ctx, q, u.Name, u.Email, u.Role, u.ID))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrNotFound
		case db.IsUniqueViolation(err):
			return ErrEmailExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	*u = *updated
	return nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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
