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

const reviewColumns = "id, lecture_id, user_id, rating, content, textbook, attendance, grading_type, content_difficulty, content_quality, period_year, period_term, thanks_count, created_at, updated_at"

// ReviewRepository handles persistence for reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository instantiates a review repository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindByID loads a review by identifier.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM reviews WHERE id = $1", reviewColumns)
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByLecture returns a lecture's reviews ordered ascending by creation
// time, the order the per-lecture listing renders.
func (r *ReviewRepository) ListByLecture(ctx context.Context, lectureID string) ([]models.Review, error) {
	query := fmt.Sprintf("SELECT %s FROM reviews WHERE lecture_id = $1 ORDER BY created_at ASC", reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, lectureID); err != nil {
		return nil, fmt.Errorf("list lecture reviews: %w", err)
	}
	return reviews, nil
}

// ListLatest returns the newest reviews with their lecture headline,
// descending by creation time.
func (r *ReviewRepository) ListLatest(ctx context.Context, limit int) ([]models.LatestReview, error) {
	const query = `
SELECT r.id, r.lecture_id, r.user_id, r.rating, r.content, r.textbook, r.attendance,
       r.grading_type, r.content_difficulty, r.content_quality, r.period_year, r.period_term,
       r.thanks_count, r.created_at, r.updated_at,
       l.title AS lecture_title, l.lecturer AS lecture_lecturer
FROM reviews r
JOIN lectures l ON l.id = r.lecture_id
ORDER BY r.created_at DESC
LIMIT $1`
	var reviews []models.LatestReview
	if err := r.db.SelectContext(ctx, &reviews, query, limit); err != nil {
		return nil, fmt.Errorf("list latest reviews: %w", err)
	}
	return reviews, nil
}

// ListByUser returns a user's reviews with lecture headlines, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.LatestReview, error) {
	const query = `
SELECT r.id, r.lecture_id, r.user_id, r.rating, r.content, r.textbook, r.attendance,
       r.grading_type, r.content_difficulty, r.content_quality, r.period_year, r.period_term,
       r.thanks_count, r.created_at, r.updated_at,
       l.title AS lecture_title, l.lecturer AS lecture_lecturer
FROM reviews r
JOIN lectures l ON l.id = r.lecture_id
WHERE r.user_id = $1
ORDER BY r.created_at DESC
LIMIT $2 OFFSET $3`
	var reviews []models.LatestReview
	if err := r.db.SelectContext(ctx, &reviews, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	return reviews, nil
}

// CountByUser returns the true number of reviews owned by the user.
func (r *ReviewRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count user reviews: %w", err)
	}
	return count, nil
}

// AverageRatingByUser returns the user's mean rating, 0 with no reviews.
func (r *ReviewRepository) AverageRatingByUser(ctx context.Context, userID string) (float64, error) {
	var avg float64
	if err := r.db.GetContext(ctx, &avg, `SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) FROM reviews WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("average user rating: %w", err)
	}
	return avg, nil
}

// Total returns the platform-wide review count.
func (r *ReviewRepository) Total(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews`); err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

// ExistsByUserAndLecture enforces one review per user per lecture.
func (r *ReviewRepository) ExistsByUserAndLecture(ctx context.Context, userID, lectureID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM reviews WHERE user_id = $1 AND lecture_id = $2 LIMIT 1`, userID, lectureID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check review uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new review record.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = now
	}
	review.UpdatedAt = now

	const query = `INSERT INTO reviews (id, lecture_id, user_id, rating, content, textbook, attendance, grading_type, content_difficulty, content_quality, period_year, period_term, thanks_count, created_at, updated_at) VALUES (:id, :lecture_id, :user_id, :rating, :content, :textbook, :attendance, :grading_type, :content_difficulty, :content_quality, :period_year, :period_term, :thanks_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Delete removes a review permanently. Thanks cascade at the schema level.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

// AdjustThanksCount shifts the denormalized thanks counter, floored at zero.
func (r *ReviewRepository) AdjustThanksCount(ctx context.Context, id string, delta int) (int, error) {
	const query = `UPDATE reviews SET thanks_count = GREATEST(thanks_count + $2, 0), updated_at = $3 WHERE id = $1 RETURNING thanks_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, delta, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("adjust thanks count: %w", err)
	}
	return count, nil
}
