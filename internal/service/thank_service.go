package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type thankRepository interface {
	Exists(ctx context.Context, userID, reviewID string) (bool, error)
	Create(ctx context.Context, thank *models.Thank) error
	Delete(ctx context.Context, userID, reviewID string) (bool, error)
}

type thankReviewRepository interface {
	FindByID(ctx context.Context, id string) (*models.Review, error)
	AdjustThanksCount(ctx context.Context, id string, delta int) (int, error)
}

// ThankService handles the thanks reaction on reviews and keeps the
// denormalized counter on the review row in step.
type ThankService struct {
	thanks  thankRepository
	reviews thankReviewRepository
	logger  *zap.Logger
}

// NewThankService creates a new thank service instance.
func NewThankService(thanks thankRepository, reviews thankReviewRepository, logger *zap.Logger) *ThankService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThankService{thanks: thanks, reviews: reviews, logger: logger}
}

// Add thanks a review on behalf of the user. Users cannot thank their own
// reviews, and a second thank is a conflict.
func (s *ThankService) Add(ctx context.Context, userID, reviewID string) (int, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	if review.UserID != nil && *review.UserID == userID {
		return 0, appErrors.Clone(appErrors.ErrValidation, "you cannot thank your own review")
	}

	exists, err := s.thanks.Exists(ctx, userID, reviewID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check thank")
	}
	if exists {
		return 0, appErrors.Clone(appErrors.ErrConflict, "you have already thanked this review")
	}

	if err := s.thanks.Create(ctx, &models.Thank{UserID: userID, ReviewID: reviewID}); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create thank")
	}

	count, err := s.reviews.AdjustThanksCount(ctx, reviewID, +1)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thanks count")
	}
	return count, nil
}

// Remove withdraws the user's thank from the review.
func (s *ThankService) Remove(ctx context.Context, userID, reviewID string) (int, error) {
	removed, err := s.thanks.Delete(ctx, userID, reviewID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete thank")
	}
	if !removed {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "thank not found")
	}

	count, err := s.reviews.AdjustThanksCount(ctx, reviewID, -1)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update thanks count")
	}
	return count, nil
}

// Status reports whether the user has thanked the review.
func (s *ThankService) Status(ctx context.Context, userID, reviewID string) (bool, error) {
	exists, err := s.thanks.Exists(ctx, userID, reviewID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check thank")
	}
	return exists, nil
}
