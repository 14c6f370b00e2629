package entities

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmeet/internal/auth"
)

var entityCols = []string{"id", "name", "email", "cnpj", "phone", "mobile", "zip_code", "street",
	"number", "complement", "district", "city", "state", "created_at", "updated_at"}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, mock
}

func entityRow(rows *sqlmock.Rows, id int64, name, email string, ts time.Time) *sqlmock.Rows {
	return rows.AddRow(id, name, email, "12.345.678/0001-90", "", "", "", "", "", "", "", "Recife", "PE", ts, ts)
}

func TestStore_List(t *testing.T) {
	conn, mock := newMock(t)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(entityCols)
	entityRow(rows, 2, "Beta", "beta@example.com", ts)
	entityRow(rows, 1, "Alpha", "alpha@example.com", ts)
	mock.ExpectQuery(`FROM entities ORDER BY created_at DESC`).WillReturnRows(rows)

	list, err := NewStore(conn).List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Beta", list[0].Name)
	assert.Equal(t, "PE", list[1].State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_List_EmptyIsNotNil(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`FROM entities`).WillReturnRows(sqlmock.NewRows(entityCols))

	list, err := NewStore(conn).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestStore_Get_NotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`FROM entities WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

	_, err := NewStore(conn).Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CreateWithUser(t *testing.T) {
	conn, mock := newMock(t)
	ts := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)INSERT INTO entities .*RETURNING id`).
		WithArgs("Acme", "acme@example.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(entityRow(sqlmock.NewRows(entityCols), 5, "Acme", "acme@example.com", ts))
	mock.ExpectQuery(`INSERT INTO entity_user_accounts`).
		WithArgs("Acme", "acme@example.com", "$2a$hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), ts))
	mock.ExpectCommit()

	e := &Entity{Name: "Acme", Email: "acme@example.com"}
	user := &auth.EntityUserAccount{Name: "Acme", Email: "acme@example.com", PasswordHash: "$2a$hash"}
	require.NoError(t, NewStore(conn).CreateWithUser(context.Background(), e, user))

	assert.Equal(t, int64(5), e.ID)
	assert.Equal(t, int64(11), user.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateWithUser_RollsBackWhenUserInsertFails(t *testing.T) {
	conn, mock := newMock(t)
	ts := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO entities`).
		WillReturnRows(entityRow(sqlmock.NewRows(entityCols), 5, "Acme", "acme@example.com", ts))
	mock.ExpectQuery(`INSERT INTO entity_user_accounts`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	e := &Entity{Name: "Acme", Email: "acme@example.com"}
	err := NewStore(conn).CreateWithUser(context.Background(), e,
		&auth.EntityUserAccount{Name: "Acme", Email: "acme@example.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.Zero(t, e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_CreateWithUser_DuplicateLogin(t *testing.T) {
	conn, mock := newMock(t)
	ts := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO entities`).
		WillReturnRows(entityRow(sqlmock.NewRows(entityCols), 6, "Beta", "acme@example.com", ts))
	mock.ExpectQuery(`INSERT INTO entity_user_accounts`).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	e := &Entity{Name: "Beta", Email: "acme@example.com"}
	err := NewStore(conn).CreateWithUser(context.Background(), e,
		&auth.EntityUserAccount{Name: "Beta", Email: "acme@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, auth.ErrAccountExists)
	assert.Zero(t, e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Update_NotFound(t *testing.T) {
	conn, mock := newMock(t)
	mock.ExpectQuery(`(?s)UPDATE entities.*WHERE id = \$13`).WillReturnError(sql.ErrNoRows)

	err := NewStore(conn).Update(context.Background(), &Entity{ID: 4, Name: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Delete_RemovesLinkedLogins(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM entities WHERE id = \$1 RETURNING email`).WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("acme@example.com"))
	mock.ExpectExec(`DELETE FROM entity_user_accounts WHERE email = \$1`).WithArgs("acme@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewStore(conn).Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete_NotFound(t *testing.T) {
	conn, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`DELETE FROM entities`).WithArgs(int64(3)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	assert.ErrorIs(t, NewStore(conn).Delete(context.Background(), 3), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
