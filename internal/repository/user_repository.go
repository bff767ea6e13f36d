package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kougiview/kougiview-api/internal/models"
)

const userColumns = "id, email, name, provider, provider_id, avatar_url, reviews_count, created_at, updated_at"

// UserRepository handles persistence for users and the lifetime review
// counter.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository instantiates a user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID loads a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByProvider loads a user by OAuth identity.
func (r *UserRepository) FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE provider = $1 AND provider_id = $2", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, provider, providerID); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, name, provider, provider_id, avatar_url, reviews_count, created_at, updated_at) VALUES (:id, :email, :name, :provider, :provider_id, :avatar_url, :reviews_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether the error is a Postgres unique constraint
// violation, used to resolve concurrent first-login races.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// UpdateProfile refreshes the mutable profile fields from the OAuth provider.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name string, avatarURL *string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET name = $2, avatar_url = $3, updated_at = $4 WHERE id = $1`, id, name, avatarURL, time.Now().UTC()); err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}

// IncrementReviewsCount bumps the lifetime counter and returns the new value.
func (r *UserRepository) IncrementReviewsCount(ctx context.Context, id string) (int, error) {
	const query = `UPDATE users SET reviews_count = reviews_count + 1, updated_at = $2 WHERE id = $1 RETURNING reviews_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("increment lifetime count: %w", err)
	}
	return count, nil
}

// DecrementReviewsCount lowers the lifetime counter, floored at zero.
func (r *UserRepository) DecrementReviewsCount(ctx context.Context, id string) (int, error) {
	const query = `UPDATE users SET reviews_count = GREATEST(reviews_count - 1, 0), updated_at = $2 WHERE id = $1 RETURNING reviews_count`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("decrement lifetime count: %w", err)
	}
	return count, nil
}

// RankingPosition computes the user's position on the review-count leaderboard
// from actual review rows, not the denormalized counter.
func (r *UserRepository) RankingPosition(ctx context.Context, id string) (position, totalUsers, reviewCount int, err error) {
	const ownQuery = `SELECT COUNT(*) FROM reviews WHERE user_id = $1`
	if err = r.db.GetContext(ctx, &reviewCount, ownQuery, id); err != nil {
		return 0, 0, 0, fmt.Errorf("count own reviews: %w", err)
	}

	const aheadQuery = `
SELECT COUNT(*) FROM (
    SELECT user_id FROM reviews WHERE user_id IS NOT NULL GROUP BY user_id HAVING COUNT(*) > $1
) ahead`
	var ahead int
	if err = r.db.GetContext(ctx, &ahead, aheadQuery, reviewCount); err != nil {
		return 0, 0, 0, fmt.Errorf("count users ahead: %w", err)
	}

	const totalQuery = `SELECT COUNT(DISTINCT user_id) FROM reviews WHERE user_id IS NOT NULL`
	if err = r.db.GetContext(ctx, &totalUsers, totalQuery); err != nil {
		return 0, 0, 0, fmt.Errorf("count reviewing users: %w", err)
	}

	return ahead + 1, totalUsers, reviewCount, nil
}
