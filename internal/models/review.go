package models

import "time"

// Review is a user-submitted course review. UserID is nil for anonymous
// submissions.
type Review struct {
	ID                string    `db:"id" json:"id"`
	LectureID         string    `db:"lecture_id" json:"lecture_id"`
	UserID            *string   `db:"user_id" json:"user_id,omitempty"`
	Rating            float64   `db:"rating" json:"rating"`
	Content           string    `db:"content" json:"content"`
	Textbook          *string   `db:"textbook" json:"textbook,omitempty"`
	Attendance        *string   `db:"attendance" json:"attendance,omitempty"`
	GradingType       *string   `db:"grading_type" json:"grading_type,omitempty"`
	ContentDifficulty *string   `db:"content_difficulty" json:"content_difficulty,omitempty"`
	ContentQuality    *string   `db:"content_quality" json:"content_quality,omitempty"`
	PeriodYear        *string   `db:"period_year" json:"period_year,omitempty"`
	PeriodTerm        *string   `db:"period_term" json:"period_term,omitempty"`
	ThanksCount       int       `db:"thanks_count" json:"thanks_count"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// LatestReview joins a review with its lecture headline for the global feed.
type LatestReview struct {
	Review
	LectureTitle    string `db:"lecture_title" json:"lecture_title"`
	LectureLecturer string `db:"lecture_lecturer" json:"lecture_lecturer"`
}
