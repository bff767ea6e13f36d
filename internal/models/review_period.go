package models

import "time"

// ReviewPeriod is an administrator-defined time window. At most one period is
// active at any time; the active period scopes review-count bookkeeping.
type ReviewPeriod struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	StartsAt  time.Time `db:"starts_at" json:"starts_at"`
	EndsAt    time.Time `db:"ends_at" json:"ends_at"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// WithinPeriod reports whether the instant falls inside the window, inclusive
// on both ends.
func (p *ReviewPeriod) WithinPeriod(instant time.Time) bool {
	return !instant.Before(p.StartsAt) && !instant.After(p.EndsAt)
}

// ReviewPeriodStats augments a period with counter aggregates for admin views.
type ReviewPeriodStats struct {
	ReviewPeriod
	UserCount    int  `json:"user_count"`
	TotalReviews int  `json:"total_reviews"`
	Within       bool `json:"within_period"`
}
