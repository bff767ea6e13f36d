package models

import "time"

// Thank is a gratitude reaction on a review. One per (user, review).
type Thank struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	ReviewID  string    `db:"review_id" json:"review_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
