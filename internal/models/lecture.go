package models

import "time"

// Lecture models a course offering reviews are attached to.
type Lecture struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Lecturer  string    `db:"lecturer" json:"lecturer"`
	Faculty   string    `db:"faculty" json:"faculty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// LectureSummary augments a lecture with review aggregates for listings.
type LectureSummary struct {
	Lecture
	ReviewCount int     `db:"review_count" json:"review_count"`
	AvgRating   float64 `db:"avg_rating" json:"avg_rating"`
}

// LectureFilter defines filters supported by the lecture listing.
type LectureFilter struct {
	Faculty  string
	Title    string
	Page     int
	PageSize int
}
