package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PeriodCountRepository maintains the per-(user, period) review counters.
// Both mutations are single atomic statements so concurrent review writes by
// the same user never lose an update.
type PeriodCountRepository struct {
	db *sqlx.DB
}

// NewPeriodCountRepository instantiates a period count repository.
func NewPeriodCountRepository(db *sqlx.DB) *PeriodCountRepository {
	return &PeriodCountRepository{db: db}
}

// Get returns the stored count for the pair, 0 when no row exists. Reading
// never creates a row.
func (r *PeriodCountRepository) Get(ctx context.Context, userID, periodID string) (int, error) {
	const query = `SELECT reviews_count FROM user_review_period_counts WHERE user_id = $1 AND review_period_id = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, periodID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("get period count: %w", err)
	}
	return count, nil
}

// Increment adds one to the counter, creating the row on first use. The upsert
// is atomic at the row level, so two simultaneous increments both land.
func (r *PeriodCountRepository) Increment(ctx context.Context, userID, periodID string) (int, error) {
	const query = `
INSERT INTO user_review_period_counts (id, user_id, review_period_id, reviews_count, created_at, updated_at)
VALUES ($1, $2, $3, 1, $4, $4)
ON CONFLICT (user_id, review_period_id) DO UPDATE
SET reviews_count = user_review_period_counts.reviews_count + 1, updated_at = EXCLUDED.updated_at
RETURNING reviews_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, uuid.NewString(), userID, periodID, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("increment period count: %w", err)
	}
	return count, nil
}

// Decrement subtracts one without ever going below zero. A missing row or a
// zero count is a no-op returning 0.
func (r *PeriodCountRepository) Decrement(ctx context.Context, userID, periodID string) (int, error) {
	const query = `
UPDATE user_review_period_counts
SET reviews_count = GREATEST(reviews_count - 1, 0), updated_at = $3
WHERE user_id = $1 AND review_period_id = $2
RETURNING reviews_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID, periodID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("decrement period count: %w", err)
	}
	return count, nil
}
