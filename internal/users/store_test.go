package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "entity_id", "name", "email", "role", "password_hash", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func TestStore_ListByEntity(t *testing.T) {
	conn, mock := newMock(t)
	ts := time.Now().UTC()
	mock.ExpectQuery(`FROM users WHERE entity_id = \$1 ORDER BY name ASC`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(int64(1), int64(3), "Ana", "ana@example.com", "user", "$2a$x", ts, ts))

	list, err := NewStore(conn).ListByEntity(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "$2a$x", list[0].PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pq.Error{Code: "23505"})

	err := NewStore(conn).Create(context.Background(), &User{EntityID: 3, Name: "Ana", Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestStore_Update_NotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`UPDATE users SET name = \$1, email = \$2, role = \$3`).
		WithArgs("Ana", "ana@example.com", "user", int64(4)).
		WillReturnError(sql.ErrNoRows)

	err := NewStore(conn).Update(context.Background(), &User{ID: 4, Name: "Ana", Email: "ana@example.com", Role: "user"})
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewStore(conn)
	require.NoError(t, store.Delete(context.Background(), 4))
	assert.ErrorIs(t, store.Delete(context.Background(), 5), ErrNotFound)
}
