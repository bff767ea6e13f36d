package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type lectureRepository interface {
	List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, int, error)
	FindByID(ctx context.Context, id string) (*models.Lecture, error)
	ExistsByIdentity(ctx context.Context, title, lecturer, faculty string) (bool, error)
	Create(ctx context.Context, lecture *models.Lecture) error
}

// CreateLectureRequest describes payload for registering a lecture.
type CreateLectureRequest struct {
	Title    string `json:"title" validate:"required,max=255"`
	Lecturer string `json:"lecturer" validate:"required,max=255"`
	Faculty  string `json:"faculty" validate:"required,max=255"`
}

// LectureService handles lecture catalogue operations.
type LectureService struct {
	repo      lectureRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLectureService creates a new lecture service instance.
func NewLectureService(repo lectureRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *LectureService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LectureService{repo: repo, cache: cache, validator: validate, logger: logger}
}

type lectureListPayload struct {
	Lectures   []models.LectureSummary `json:"lectures"`
	Pagination models.Pagination       `json:"pagination"`
}

// List returns lectures matching the filter with review aggregates.
func (s *LectureService) List(ctx context.Context, filter models.LectureFilter) ([]models.LectureSummary, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	key := fmt.Sprintf("lectures:list:%s:%s:%d:%d", filter.Faculty, filter.Title, filter.Page, filter.PageSize)
	if s.cache != nil {
		var cached lectureListPayload
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Lectures, &cached.Pagination, nil
		}
	}

	lectures, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lectures")
	}

	pagination := models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, lectureListPayload{Lectures: lectures, Pagination: pagination}, 0)
	}

	return lectures, &pagination, nil
}

// Get loads a single lecture.
func (s *LectureService) Get(ctx context.Context, id string) (*models.Lecture, error) {
	lecture, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}
	return lecture, nil
}

// Create registers a lecture, rejecting duplicates on the
// (title, lecturer, faculty) triple.
func (s *LectureService) Create(ctx context.Context, req CreateLectureRequest) (*models.Lecture, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lecture payload")
	}

	exists, err := s.repo.ExistsByIdentity(ctx, req.Title, req.Lecturer, req.Faculty)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check lecture uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this lecture is already registered")
	}

	lecture := &models.Lecture{Title: req.Title, Lecturer: req.Lecturer, Faculty: req.Faculty}
	if err := s.repo.Create(ctx, lecture); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lecture")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "lectures:*"); err != nil {
			s.logger.Warn("failed to invalidate lecture caches", zap.Error(err))
		}
	}

	return lecture, nil
}
