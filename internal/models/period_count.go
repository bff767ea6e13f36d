package models

import "time"

// UserReviewPeriodCount tracks how many reviews a user posted while a given
// period was active. Exactly one row exists per (user, period) pair and the
// count never goes below zero.
type UserReviewPeriodCount struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	ReviewPeriodID string    `db:"review_period_id" json:"review_period_id"`
	ReviewsCount   int       `db:"reviews_count" json:"reviews_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
