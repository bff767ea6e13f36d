package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kougiview/kougiview-api/internal/models"
)

// LectureRepository handles persistence for lectures.
type LectureRepository struct {
	db *sqlx.DB
}

// NewLectureRepository instantiates a lecture repository.
func NewLectureRepository(db *sqlx.DB) *LectureRepository {
	return &LectureRepository{db: db}
}

// List returns lectures with review aggregates, filtered and paginated.
func (r *LectureRepository) List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, int, error) {
	base := "FROM lectures l WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Faculty != "" {
		conditions = append(conditions, fmt.Sprintf("l.faculty = $%d", len(args)+1))
		args = append(args, filter.Faculty)
	}
	if filter.Title != "" {
		conditions = append(conditions, fmt.Sprintf("l.title ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Title+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`
SELECT l.id, l.title, l.lecturer, l.faculty, l.created_at, l.updated_at,
       COUNT(r.id) AS review_count,
       COALESCE(ROUND(AVG(r.rating)::numeric, 1), 0) AS avg_rating
FROM lectures l
LEFT JOIN reviews r ON r.lecture_id = l.id
WHERE 1=1%s
GROUP BY l.id
ORDER BY l.title
LIMIT %d OFFSET %d`, joinedConditions(conditions), size, offset)

	var lectures []models.LectureSummary
	if err := r.db.SelectContext(ctx, &lectures, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lectures: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lectures: %w", err)
	}

	return lectures, total, nil
}

func joinedConditions(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " AND " + strings.Join(conditions, " AND ")
}

// FindByID loads a lecture by identifier.
func (r *LectureRepository) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	const query = `SELECT id, title, lecturer, faculty, created_at, updated_at FROM lectures WHERE id = $1`
	var lecture models.Lecture
	if err := r.db.GetContext(ctx, &lecture, query, id); err != nil {
		return nil, err
	}
	return &lecture, nil
}

// ExistsByIdentity checks the (title, lecturer, faculty) uniqueness triple.
func (r *LectureRepository) ExistsByIdentity(ctx context.Context, title, lecturer, faculty string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM lectures WHERE title = $1 AND lecturer = $2 AND faculty = $3 LIMIT 1`, title, lecturer, faculty)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check lecture uniqueness: %w", err)
	}
	return true, nil
}

// Create inserts a new lecture record.
func (r *LectureRepository) Create(ctx context.Context, lecture *models.Lecture) error {
	if lecture.ID == "" {
		lecture.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lecture.CreatedAt.IsZero() {
		lecture.CreatedAt = now
	}
	lecture.UpdatedAt = now

	const query = `INSERT INTO lectures (id, title, lecturer, faculty, created_at, updated_at) VALUES (:id, :title, :lecturer, :faculty, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lecture); err != nil {
		return fmt.Errorf("create lecture: %w", err)
	}
	return nil
}
