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

const reviewPeriodColumns = "id, name, starts_at, ends_at, is_active, created_at, updated_at"

// ReviewPeriodRepository handles persistence for review periods.
type ReviewPeriodRepository struct {
	db *sqlx.DB
}

// NewReviewPeriodRepository instantiates a review period repository.
func NewReviewPeriodRepository(db *sqlx.DB) *ReviewPeriodRepository {
	return &ReviewPeriodRepository{db: db}
}

// List returns all periods ordered by their start.
func (r *ReviewPeriodRepository) List(ctx context.Context) ([]models.ReviewPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM review_periods ORDER BY starts_at", reviewPeriodColumns)
	var periods []models.ReviewPeriod
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list review periods: %w", err)
	}
	return periods, nil
}

// FindByID loads a period by identifier.
func (r *ReviewPeriodRepository) FindByID(ctx context.Context, id string) (*models.ReviewPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM review_periods WHERE id = $1", reviewPeriodColumns)
	var period models.ReviewPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// FindActive returns the currently active period. sql.ErrNoRows means no
// period is active, which is a valid steady state between terms.
func (r *ReviewPeriodRepository) FindActive(ctx context.Context) (*models.ReviewPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM review_periods WHERE is_active = TRUE LIMIT 1", reviewPeriodColumns)
	var period models.ReviewPeriod
	if err := r.db.GetContext(ctx, &period, query); err != nil {
		return nil, err
	}
	return &period, nil
}

// ExistsByName checks name uniqueness, optionally excluding one period.
func (r *ReviewPeriodRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	base := "SELECT 1 FROM review_periods WHERE name = $1"
	args := []interface{}{name}
	if excludeID != "" {
		base += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, base+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check period name uniqueness: %w", err)
	}
	return true, nil
}

// ExistsOtherActive reports whether an active period other than the given one
// exists.
func (r *ReviewPeriodRepository) ExistsOtherActive(ctx context.Context, excludeID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM review_periods WHERE is_active = TRUE AND id <> $1 LIMIT 1`, excludeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active period conflict: %w", err)
	}
	return true, nil
}

// Create inserts a new period record.
func (r *ReviewPeriodRepository) Create(ctx context.Context, period *models.ReviewPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now

	const query = `INSERT INTO review_periods (id, name, starts_at, ends_at, is_active, created_at, updated_at) VALUES (:id, :name, :starts_at, :ends_at, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create review period: %w", err)
	}
	return nil
}

// Update modifies an existing period.
func (r *ReviewPeriodRepository) Update(ctx context.Context, period *models.ReviewPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE review_periods SET name = :name, starts_at = :starts_at, ends_at = :ends_at, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update review period: %w", err)
	}
	return nil
}

// SetActive marks the provided period as active and deactivates the rest in a
// single transaction so readers never observe two active periods.
func (r *ReviewPeriodRepository) SetActive(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set active tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `UPDATE review_periods SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("deactivate other periods: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE review_periods SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("activate period: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit set active tx: %w", err)
	}
	return nil
}

// SetInactive clears the active flag on the given period. Idempotent.
func (r *ReviewPeriodRepository) SetInactive(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE review_periods SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate period: %w", err)
	}
	return nil
}

// Delete removes a period permanently. Counter rows cascade at the schema
// level.
func (r *ReviewPeriodRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM review_periods WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete review period: %w", err)
	}
	return nil
}

// CounterStats aggregates the counter rows attached to a period.
func (r *ReviewPeriodRepository) CounterStats(ctx context.Context, id string) (userCount, totalReviews int, err error) {
	const query = `SELECT COUNT(*), COALESCE(SUM(reviews_count), 0) FROM user_review_period_counts WHERE review_period_id = $1`
	if err = r.db.QueryRowxContext(ctx, query, id).Scan(&userCount, &totalReviews); err != nil {
		return 0, 0, fmt.Errorf("aggregate period counters: %w", err)
	}
	return userCount, totalReviews, nil
}
