package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type bookmarkRepository interface {
	Exists(ctx context.Context, userID, lectureID string) (bool, error)
	Create(ctx context.Context, bookmark *models.Bookmark) error
	Delete(ctx context.Context, userID, lectureID string) (bool, error)
}

// BookmarkService toggles lecture bookmarks for authenticated users.
type BookmarkService struct {
	bookmarks bookmarkRepository
	lectures  reviewLectureRepository
	logger    *zap.Logger
}

// NewBookmarkService creates a new bookmark service instance.
func NewBookmarkService(bookmarks bookmarkRepository, lectures reviewLectureRepository, logger *zap.Logger) *BookmarkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookmarkService{bookmarks: bookmarks, lectures: lectures, logger: logger}
}

// Add bookmarks the lecture for the user. Adding twice is a conflict.
func (s *BookmarkService) Add(ctx context.Context, userID, lectureID string) (*models.Bookmark, error) {
	if _, err := s.lectures.FindByID(ctx, lectureID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}

	exists, err := s.bookmarks.Exists(ctx, userID, lectureID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bookmark")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "lecture is already bookmarked")
	}

	bookmark := &models.Bookmark{UserID: userID, LectureID: lectureID}
	if err := s.bookmarks.Create(ctx, bookmark); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bookmark")
	}
	return bookmark, nil
}

// Remove deletes the user's bookmark for the lecture.
func (s *BookmarkService) Remove(ctx context.Context, userID, lectureID string) error {
	removed, err := s.bookmarks.Delete(ctx, userID, lectureID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bookmark")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "bookmark not found")
	}
	return nil
}

// Status reports whether the user has bookmarked the lecture.
func (s *BookmarkService) Status(ctx context.Context, userID, lectureID string) (bool, error) {
	exists, err := s.bookmarks.Exists(ctx, userID, lectureID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check bookmark")
	}
	return exists, nil
}
