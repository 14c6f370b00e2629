package entities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"orgmeet/internal/auth"
	"orgmeet/internal/db"
)

var ErrNotFound = errors.New("entity not found")

const entityColumns = `id, name, email, cnpj, phone, mobile, zip_code, street, number, complement, district, city, state, created_at, updated_at`

type Store struct {
	db *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*Entity, error) {
	e := &Entity{}
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.CNPJ, &e.Phone, &e.Mobile, &e.ZipCode, &e.Street,
		&e.Number, &e.Complement, &e.District, &e.City, &e.State, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) List(ctx context.Context) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()
	res := []Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		res = append(res, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return res, nil
}

func (s *Store) Get(ctx context.Context, id int64) (*Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

// CreateWithUser inserts the entity and its login account in one transaction.
// user.PasswordHash must already be set.
func (s *Store) CreateWithUser(ctx context.Context, e *Entity, user *auth.EntityUserAccount) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		const q = `
			INSERT INTO entities (name, email, cnpj, phone, mobile, zip_code, street, number, complement, district, city, state)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING ` + entityColumns
		created, err := scanEntity(tx.QueryRowContext(ctx, q, e.Name, e.Email, e.CNPJ, e.Phone, e.Mobile,
			e.ZipCode, e.Street, e.Number, e.Complement, e.District, e.City, e.State))
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if err := auth.NewEntityUserStore(tx).Create(ctx, user); err != nil {
			return err
		}
		*e = *created
		return nil
	})
}

func (s *Store) Update(ctx context.Context, e *Entity) error {
	const q = `
		UPDATE entities
		SET name = $1, email = $2, cnpj = $3, phone = $4, mobile = $5, zip_code = $6, street = $7,
		    number = $8, complement = $9, district = $10, city = $11, state = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING ` + entityColumns
	updated, err := scanEntity(s.db.QueryRowContext(ctx, q, e.Name, e.Email, e.CNPJ, e.Phone, e.Mobile,
		e.ZipCode, e.Street, e.Number, e.Complement, e.District, e.City, e.State, e.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	*e = *updated
	return nil
}

// Delete removes the entity and the login accounts linked to it by email.
func (s *Store) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		var email string
		err := tx.QueryRowContext(ctx, `DELETE FROM entities WHERE id = $1 RETURNING email`, id).Scan(&email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("db error: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM entity_user_accounts WHERE email = $1`, email); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})
}
