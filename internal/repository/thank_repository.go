package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kougiview/kougiview-api/internal/models"
)

// ThankRepository handles persistence for review thanks reactions.
type ThankRepository struct {
	db *sqlx.DB
}

// NewThankRepository instantiates a thank repository.
func NewThankRepository(db *sqlx.DB) *ThankRepository {
	return &ThankRepository{db: db}
}

// Exists reports whether the user has thanked the review.
func (r *ThankRepository) Exists(ctx context.Context, userID, reviewID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM thanks WHERE user_id = $1 AND review_id = $2 LIMIT 1`, userID, reviewID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check thank: %w", err)
	}
	return true, nil
}

// Create inserts a thank; the unique pair constraint rejects duplicates.
func (r *ThankRepository) Create(ctx context.Context, thank *models.Thank) error {
	if thank.ID == "" {
		thank.ID = uuid.NewString()
	}
	if thank.CreatedAt.IsZero() {
		thank.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO thanks (id, user_id, review_id, created_at) VALUES (:id, :user_id, :review_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, thank); err != nil {
		return fmt.Errorf("create thank: %w", err)
	}
	return nil
}

// Delete removes the user's thank for the review, reporting whether a row was
// removed.
func (r *ThankRepository) Delete(ctx context.Context, userID, reviewID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM thanks WHERE user_id = $1 AND review_id = $2`, userID, reviewID)
	if err != nil {
		return false, fmt.Errorf("delete thank: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete thank result: %w", err)
	}
	return affected > 0, nil
}

// CountReceivedByUser totals the thanks attached to the user's reviews.
func (r *ThankRepository) CountReceivedByUser(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM thanks t JOIN reviews r ON r.id = t.review_id WHERE r.user_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count received thanks: %w", err)
	}
	return count, nil
}
