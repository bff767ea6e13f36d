package models

import "time"

// Bookmark marks a lecture a user wants to revisit. One per (user, lecture).
type Bookmark struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	LectureID string    `db:"lecture_id" json:"lecture_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// BookmarkedLecture joins a bookmark with its lecture and review aggregates.
type BookmarkedLecture struct {
	LectureID    string    `db:"lecture_id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Lecturer     string    `db:"lecturer" json:"lecturer"`
	Faculty      string    `db:"faculty" json:"faculty"`
	BookmarkedAt time.Time `db:"bookmarked_at" json:"bookmarked_at"`
	ReviewCount  int       `db:"review_count" json:"review_count"`
	AvgRating    float64   `db:"avg_rating" json:"avg_rating"`
}
