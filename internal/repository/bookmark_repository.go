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

// BookmarkRepository handles persistence for lecture bookmarks.
type BookmarkRepository struct {
	db *sqlx.DB
}

// NewBookmarkRepository instantiates a bookmark repository.
func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Exists reports whether the user has bookmarked the lecture.
func (r *BookmarkRepository) Exists(ctx context.Context, userID, lectureID string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM bookmarks WHERE user_id = $1 AND lecture_id = $2 LIMIT 1`, userID, lectureID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return true, nil
}

// Create inserts a bookmark; the unique pair constraint rejects duplicates.
func (r *BookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	if bookmark.ID == "" {
		bookmark.ID = uuid.NewString()
	}
	if bookmark.CreatedAt.IsZero() {
		bookmark.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO bookmarks (id, user_id, lecture_id, created_at) VALUES (:id, :user_id, :lecture_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, bookmark); err != nil {
		return fmt.Errorf("create bookmark: %w", err)
	}
	return nil
}

// Delete removes the user's bookmark for the lecture, reporting whether a row
// was removed.
func (r *BookmarkRepository) Delete(ctx context.Context, userID, lectureID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE user_id = $1 AND lecture_id = $2`, userID, lectureID)
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete bookmark result: %w", err)
	}
	return affected > 0, nil
}

// CountByUser returns the user's bookmark total.
func (r *BookmarkRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookmarks WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("count bookmarks: %w", err)
	}
	return count, nil
}

// ListLecturesByUser returns the user's bookmarked lectures with review
// aggregates, newest bookmark first.
func (r *BookmarkRepository) ListLecturesByUser(ctx context.Context, userID string, limit, offset int) ([]models.BookmarkedLecture, error) {
	const query = `
SELECT l.id AS lecture_id, l.title, l.lecturer, l.faculty, b.created_at AS bookmarked_at,
       COUNT(r.id) AS review_count,
       COALESCE(ROUND(AVG(r.rating)::numeric, 1), 0) AS avg_rating
FROM bookmarks b
JOIN lectures l ON l.id = b.lecture_id
LEFT JOIN reviews r ON r.lecture_id = l.id
WHERE b.user_id = $1
GROUP BY l.id, b.created_at
ORDER BY b.created_at DESC
LIMIT $2 OFFSET $3`
	var lectures []models.BookmarkedLecture
	if err := r.db.SelectContext(ctx, &lectures, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("list bookmarked lectures: %w", err)
	}
	return lectures, nil
}
