package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCountRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPeriodCountRepositoryGetMissingRowIsZero(t *testing.T) {
	db, mock, cleanup := newCountRepoMock(t)
	defer cleanup()
	repo := NewPeriodCountRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT reviews_count FROM user_review_period_counts WHERE user_id = $1 AND review_period_id = $2")).
		WithArgs("u1", "p1").
		WillReturnError(sql.ErrNoRows)

	count, err := repo.Get(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodCountRepositoryIncrementUpserts(t *testing.T) {
	db, mock, cleanup := newCountRepoMock(t)
	defer cleanup()
	repo := NewPeriodCountRepository(db)

	mock.ExpectQuery("INSERT INTO user_review_period_counts .+ ON CONFLICT \\(user_id, review_period_id\\) DO UPDATE").
		WithArgs(sqlmock.AnyArg(), "u1", "p1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reviews_count"}).AddRow(3))

	count, err := repo.Increment(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodCountRepositoryDecrementFloorsAtZero(t *testing.T) {
	db, mock, cleanup := newCountRepoMock(t)
	defer cleanup()
	repo := NewPeriodCountRepository(db)

	mock.ExpectQuery("UPDATE user_review_period_counts\\s+SET reviews_count = GREATEST\\(reviews_count - 1, 0\\)").
		WithArgs("u1", "p1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reviews_count"}).AddRow(0))

	count, err := repo.Decrement(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodCountRepositoryDecrementMissingRowIsNoop(t *testing.T) {
	db, mock, cleanup := newCountRepoMock(t)
	defer cleanup()
	repo := NewPeriodCountRepository(db)

	mock.ExpectQuery("UPDATE user_review_period_counts").
		WithArgs("u1", "p1", sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	count, err := repo.Decrement(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
