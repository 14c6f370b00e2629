package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orgmeet/internal/db"
)

type AdminStore struct {
	db db.DBTX
}

func NewAdminStore(conn db.DBTX) *AdminStore {
	return &AdminStore{db: conn}
}

func (s *AdminStore) GetByEmail(ctx context.Context, email string) (*AdminAccount, error) {
	const q = `SELECT id, name, email, phone, password_hash, access_level, created_at FROM admin_accounts WHERE email = $1`
	a := &AdminAccount{}
	err := s.db.QueryRowContext(ctx, q, email).
		Scan(&a.ID, &a.Name, &a.Email, &a.Phone, &a.PasswordHash, &a.AccessLevel, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

// Create inserts a with its already-hashed password and fills ID and CreatedAt.
func (s *AdminStore) Create(ctx context.Context, a *AdminAccount) error {
	const q = `
		INSERT INTO admin_accounts (name, email, phone, password_hash, access_level)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := s.db.QueryRowContext(ctx, q, a.Name, a.Email, a.Phone, a.PasswordHash, a.AccessLevel).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type EntityUserStore struct {
	db db.DBTX
}

func NewEntityUserStore(conn db.DBTX) *EntityUserStore {
	return &EntityUserStore{db: conn}
}

// GetByEmail resolves the owning entity through an email-matched LEFT JOIN,
// so an account without a matching entity still comes back with a nil EntityID.
func (s *EntityUserStore) GetByEmail(ctx context.Context, email string) (*EntityUserAccount, error) {
	const q = `
		SELECT u.id, u.name, u.email, u.password_hash, u.created_at, e.id, e.name
		FROM entity_user_accounts u
		LEFT JOIN entities e ON e.email = u.email
		WHERE u.email = $1
		ORDER BY e.id, u.id
		LIMIT 1
	`
	u := &EntityUserAccount{}
	var entityID sql.NullInt64
	var entityName sql.NullString
	err := s.db.QueryRowContext(ctx, q, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &entityID, &entityName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if entityID.Valid {
		id := entityID.Int64
		u.EntityID = &id
	}
	u.EntityName = entityName.String
	return u, nil
}

// Create inserts u with its already-hashed password. Emails are unique
// across entity logins; a duplicate yields ErrAccountExists.
func (s *EntityUserStore) Create(ctx context.Context, u *EntityUserAccount) error {
	const q = `
		INSERT INTO entity_user_accounts (name, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := s.db.QueryRowContext(ctx, q, u.Name, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt); err != nil {
		if db.IsUniqueViolation(err) {
			return ErrAccountExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
