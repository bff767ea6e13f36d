package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kougiview/kougiview-api/internal/models"
)

func newPeriodRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func periodRows(id string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "starts_at", "ends_at", "is_active", "created_at", "updated_at"}).
		AddRow(id, "2026 Spring", now, now.Add(30*24*time.Hour), active, now, now)
}

func TestReviewPeriodRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, starts_at, ends_at, is_active, created_at, updated_at FROM review_periods WHERE is_active = TRUE LIMIT 1")).
		WillReturnRows(periodRows("p1", true))

	period, err := repo.FindActive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p1", period.ID)
	assert.True(t, period.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPeriodRepositoryFindActiveNone(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectQuery("SELECT .+ FROM review_periods WHERE is_active = TRUE").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActive(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPeriodRepositorySetActiveSwapsInOneTransaction(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_periods SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2")).
		WithArgs(sqlmock.AnyArg(), "p2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE review_periods SET is_active = TRUE, updated_at = $2 WHERE id = $1")).
		WithArgs("p2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetActive(context.Background(), "p2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPeriodRepositorySetActiveRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE review_periods SET is_active = FALSE").
		WithArgs(sqlmock.AnyArg(), "p2").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	require.Error(t, repo.SetActive(context.Background(), "p2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPeriodRepositoryExistsByNameExcluding(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM review_periods WHERE name = $1 AND id <> $2 LIMIT 1")).
		WithArgs("2026 Spring", "p1").
		WillReturnError(sql.ErrNoRows)

	exists, err := repo.ExistsByName(context.Background(), "2026 Spring", "p1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPeriodRepositoryCounterStats(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*), COALESCE(SUM(reviews_count), 0) FROM user_review_period_counts WHERE review_period_id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "sum"}).AddRow(4, 11))

	users, reviews, err := repo.CounterStats(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 4, users)
	assert.Equal(t, 11, reviews)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewPeriodRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewReviewPeriodRepository(db)

	mock.ExpectExec("INSERT INTO review_periods").
		WithArgs(sqlmock.AnyArg(), "2026 Spring", sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	period := &models.ReviewPeriod{Name: "2026 Spring", StartsAt: time.Now(), EndsAt: time.Now().Add(24 * time.Hour)}
	require.NoError(t, repo.Create(context.Background(), period))
	assert.NotEmpty(t, period.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
