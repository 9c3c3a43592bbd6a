package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/printpeak/internal/common"
	"github.com/dmitrijs2005/printpeak/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var userCols = []string{"id", "name", "email", "password_hash", "address", "profile_image", "is_admin", "created_at"}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+users\s*\(name,\s*email,\s*password_hash,\s*address,\s*profile_image,\s*is_admin\).*RETURNING\s+id,\s*created_at\s*$`).
		WithArgs("Alice", "alice@example.com", "hash", "", "", false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u1", created))

	u, err := repo.Create(context.Background(), &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, created, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Create(context.Background(), &models.User{Name: "A", Email: "a@x.io", PasswordHash: "h"})
	assert.True(t, errors.Is(err, common.ErrConflict), "got %v", err)
}

func TestGetByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u2", "Bob", "bob@example.com", "h", "Street 1", "", true, time.Now()))
	mock.ExpectQuery(q).WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u2", u.ID)
	assert.True(t, u.IsAdmin)
	assert.Equal(t, "Street 1", u.Address)

	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("u1").
		WillReturnError(errors.New("conn reset"))

	_, err := repo.GetByID(context.Background(), "u1")
	if err == nil || !regexp.MustCompile(`db error: .*conn reset`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+ORDER\s+BY\s+created_at\s+DESC$`).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u2", "B", "b@x.io", "h", "", "", false, now).
			AddRow("u1", "A", "a@x.io", "h", "", "", true, now.Add(-time.Hour)))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u2", got[0].ID)
	assert.Equal(t, "u1", got[1].ID)
}

func TestUpdate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+users\s+SET\s+name\s*=\s*\$2,\s*email\s*=\s*\$3,\s*address\s*=\s*\$4,\s*profile_image\s*=\s*\$5,\s*is_admin\s*=\s*\$6\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`

	mock.ExpectQuery(q).WithArgs("u1", "New", "new@x.io", "", "http://img", false).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u1", "New", "new@x.io", "h", "", "http://img", false, time.Now()))
	mock.ExpectQuery(q).WithArgs("gone", "N", "n@x.io", "", "", false).WillReturnError(sql.ErrNoRows)

	u, err := repo.Update(context.Background(), &models.User{ID: "u1", Name: "New", Email: "new@x.io", ProfileImage: "http://img"})
	require.NoError(t, err)
	assert.Equal(t, "New", u.Name)
	assert.Equal(t, "http://img", u.ProfileImage)

	_, err = repo.Update(context.Background(), &models.User{ID: "gone", Name: "N", Email: "n@x.io"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`
	mock.ExpectExec(q).WithArgs("u1", "newhash").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("gone", "newhash").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), "u1", "newhash"))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), "gone", "newhash"), common.ErrorNotFound)
}

func TestDeleteAndBulkDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+NOT\s+is_admin$`).
		WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.Delete(context.Background(), "u1"))

	n, err := repo.DeleteAllNonAdmin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountAdmins(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+users\s+WHERE\s+is_admin$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountAdmins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMalformedID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	ctx := context.Background()

	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "me"`}
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("me").WillReturnError(badUUID)
	mock.ExpectExec(`^UPDATE\s+users\s+SET\s+password_hash`).WithArgs("me", "h").WillReturnError(badUUID)
	mock.ExpectExec(`^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).WithArgs("me").WillReturnError(badUUID)

	_, err := repo.GetByID(ctx, "me")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.ErrorIs(t, repo.UpdatePassword(ctx, "me", "h"), common.ErrorNotFound)
	assert.NoError(t, repo.Delete(ctx, "me"))
	require.NoError(t, mock.ExpectationsWereMet())
}
