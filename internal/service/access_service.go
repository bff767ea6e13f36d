package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
)

// redactedPrefixRunes is how much of a review stays visible to callers
// without access. A fixed rune prefix, not a percentage; review content is
// predominantly multi-byte.
const redactedPrefixRunes = 30

type accessPeriodRepository interface {
	FindActive(ctx context.Context) (*models.ReviewPeriod, error)
}

type accessCountRepository interface {
	Get(ctx context.Context, userID, periodID string) (int, error)
}

type accessUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// AccessService decides whether a caller sees full review content and applies
// the matching redaction to listings.
type AccessService struct {
	periods accessPeriodRepository
	counts  accessCountRepository
	users   accessUserRepository
	logger  *zap.Logger
}

// NewAccessService creates a new access service instance.
func NewAccessService(periods accessPeriodRepository, counts accessCountRepository, users accessUserRepository, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{periods: periods, counts: counts, users: users, logger: logger}
}

// Evaluate computes the access decision for the given user ID; an empty ID is
// an anonymous caller. With an active period configured the gate asks for at
// least one review in that period; without one it falls back to the lifetime
// count, which keeps deployments that never configured periods working.
// Storage failures deny access rather than surfacing an error.
func (s *AccessService) Evaluate(ctx context.Context, userID string) models.AccessDecision {
	if userID == "" {
		return models.AccessDecision{}
	}

	period, err := s.periods.FindActive(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("access evaluation failed to load active period, denying", zap.Error(err))
		return models.AccessDecision{}
	}

	if period != nil {
		count, err := s.counts.Get(ctx, userID, period.ID)
		if err != nil {
			s.logger.Warn("access evaluation failed to load period count, denying", zap.Error(err))
			return models.AccessDecision{Period: period}
		}
		return models.AccessDecision{Granted: count >= 1, Period: period}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("access evaluation failed to load user, denying", zap.Error(err))
		}
		return models.AccessDecision{}
	}
	return models.AccessDecision{Granted: user.ReviewsCount >= 1}
}

// RedactForListing masks review content for the caller. The reviews must
// already be in the order the listing renders; the first item is always left
// intact as the free preview, every other item is cut to a fixed prefix when
// access is denied.
func (s *AccessService) RedactForListing(reviews []models.Review, decision models.AccessDecision) []models.RedactedReview {
	result := make([]models.RedactedReview, 0, len(reviews))
	for i, review := range reviews {
		if !decision.Granted && i > 0 {
			review.Content = truncateContent(review.Content)
		}
		result = append(result, models.RedactedReview{Review: review, AccessGranted: decision.Granted})
	}
	return result
}

// RedactLatestFeed applies the same first-item exemption to the global feed,
// which is ordered newest first, so the exempted item is the most recent
// review.
func (s *AccessService) RedactLatestFeed(reviews []models.LatestReview, decision models.AccessDecision) []models.RedactedLatestReview {
	result := make([]models.RedactedLatestReview, 0, len(reviews))
	for i, review := range reviews {
		if !decision.Granted && i > 0 {
			review.Content = truncateContent(review.Content)
		}
		result = append(result, models.RedactedLatestReview{LatestReview: review, AccessGranted: decision.Granted})
	}
	return result
}

func truncateContent(content string) string {
	runes := []rune(content)
	if len(runes) <= redactedPrefixRunes {
		return content
	}
	return string(runes[:redactedPrefixRunes])
}
