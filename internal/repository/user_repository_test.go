package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryIncrementReviewsCount(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET reviews_count = reviews_count + 1, updated_at = $2 WHERE id = $1 RETURNING reviews_count")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reviews_count"}).AddRow(2))

	count, err := repo.IncrementReviewsCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDecrementReviewsCountFloors(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET reviews_count = GREATEST(reviews_count - 1, 0), updated_at = $2 WHERE id = $1 RETURNING reviews_count")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reviews_count"}).AddRow(0))

	count, err := repo.DecrementReviewsCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRankingPosition(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM \\(").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT user_id) FROM reviews WHERE user_id IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(40))

	position, total, reviews, err := repo.RankingPosition(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, position)
	assert.Equal(t, 40, total)
	assert.Equal(t, 5, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}
