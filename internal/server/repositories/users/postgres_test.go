package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/foodgram/internal/common"
	"github.com/dmitrijs2005/foodgram/internal/dbx/dbxtest"
	"github.com/dmitrijs2005/foodgram/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := dbxtest.NewMock(t)
	return NewPostgresRepository(db), mock
}

var userColumns = []string{"id", "email", "username", "first_name", "last_name", "password_hash", "created_at"}
var profileCols = []string{"id", "email", "username", "first_name", "last_name", "is_subscribed"}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users \(email, username, first_name, last_name, password_hash\)`).
		WithArgs("a@b.c", "alice", "Alice", "Smith", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	u, err := repo.Create(context.Background(), &models.User{
		Email: "a@b.c", UserName: "alice", FirstName: "Alice", LastName: "Smith", PasswordHash: []byte("hash"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c", UserName: "alice"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "a@b.c", UserName: "alice"})
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE lower(email) = lower($1)`)).
		WithArgs("A@B.C").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(int64(1), "a@b.c", "alice", "", "", []byte("h"), time.Now()))

	u, err := repo.GetByEmail(context.Background(), "A@B.C")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.Equal(t, []byte("h"), u.PasswordHash)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdatePassword(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET password_hash = $2 WHERE id = $1`)).
		WithArgs(int64(1), []byte("new")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users`).
		WithArgs(int64(2), []byte("new")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdatePassword(context.Background(), 1, []byte("new")))
	assert.ErrorIs(t, repo.UpdatePassword(context.Background(), 2, []byte("new")), common.ErrorNotFound)
}

func TestProfile_IsSubscribed(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`s.user_id = $1 AND s.author_id = u.id`)).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(int64(2), "b@b.c", "bob", "Bob", "", true))

	p, err := repo.Profile(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, p.IsSubscribed)
	assert.Equal(t, "bob", p.UserName)
}

func TestProfile_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM users u WHERE u.id = \$2`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Profile(context.Background(), 0, 2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProfiles_InList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.id = ANY($2)`)).
		WithArgs(int64(0), []int64{5, 6}).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(int64(5), "e", "u5", "", "", false).
			AddRow(int64(6), "f", "u6", "", "", false))

	got, err := repo.Profiles(context.Background(), 0, []int64{5, 6})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	none, err := repo.Profiles(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestList_Paged(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM users`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY u.id DESC LIMIT $2 OFFSET $3`)).
		WithArgs(int64(1), 2, 0).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(int64(3), "c", "u3", "", "", true).
			AddRow(int64(2), "b", "u2", "", "", false))

	items, count, err := repo.List(context.Background(), 1, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
}
