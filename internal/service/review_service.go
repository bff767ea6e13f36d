package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

const latestFeedCacheKey = "reviews:latest"

type reviewRepository interface {
	FindByID(ctx context.Context, id string) (*models.Review, error)
	ListByLecture(ctx context.Context, lectureID string) ([]models.Review, error)
	ListLatest(ctx context.Context, limit int) ([]models.LatestReview, error)
	ExistsByUserAndLecture(ctx context.Context, userID, lectureID string) (bool, error)
	Total(ctx context.Context) (int, error)
	Create(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id string) error
}

type reviewLectureRepository interface {
	FindByID(ctx context.Context, id string) (*models.Lecture, error)
}

type lifetimeCountRepository interface {
	IncrementReviewsCount(ctx context.Context, id string) (int, error)
	DecrementReviewsCount(ctx context.Context, id string) (int, error)
}

type periodCountRepository interface {
	Increment(ctx context.Context, userID, periodID string) (int, error)
	Decrement(ctx context.Context, userID, periodID string) (int, error)
}

type recaptchaVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

type accessEvaluator interface {
	Evaluate(ctx context.Context, userID string) models.AccessDecision
	RedactForListing(reviews []models.Review, decision models.AccessDecision) []models.RedactedReview
	RedactLatestFeed(reviews []models.LatestReview, decision models.AccessDecision) []models.RedactedLatestReview
}

// CreateReviewRequest describes payload for submitting a review.
type CreateReviewRequest struct {
	Rating            float64 `json:"rating" validate:"required,gte=0.5,lte=5"`
	Content           string  `json:"content" validate:"required,min=20,max=400"`
	Textbook          *string `json:"textbook"`
	Attendance        *string `json:"attendance"`
	GradingType       *string `json:"grading_type"`
	ContentDifficulty *string `json:"content_difficulty"`
	ContentQuality    *string `json:"content_quality"`
	PeriodYear        *string `json:"period_year"`
	PeriodTerm        *string `json:"period_term"`
	RecaptchaToken    string  `json:"token" validate:"required"`
}

// ReviewService coordinates the review lifecycle: the review row itself plus
// the period-scoped and lifetime counters that must move with it.
type ReviewService struct {
	reviews   reviewRepository
	lectures  reviewLectureRepository
	users     lifetimeCountRepository
	periods   accessPeriodRepository
	counts    periodCountRepository
	recaptcha recaptchaVerifier
	access    accessEvaluator
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger

	latestLimit int
}

// NewReviewService creates a new review service instance.
func NewReviewService(
	reviews reviewRepository,
	lectures reviewLectureRepository,
	users lifetimeCountRepository,
	periods accessPeriodRepository,
	counts periodCountRepository,
	recaptcha recaptchaVerifier,
	access accessEvaluator,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
	latestLimit int,
) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if latestLimit <= 0 {
		latestLimit = 3
	}
	return &ReviewService{
		reviews:     reviews,
		lectures:    lectures,
		users:       users,
		periods:     periods,
		counts:      counts,
		recaptcha:   recaptcha,
		access:      access,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		latestLimit: latestLimit,
	}
}

// Create validates and stores a review, then moves the owner's counters. An
// empty actingUserID is an anonymous submission, which never touches any
// counter. Counter failures propagate so the caller can retry instead of
// silently desynchronizing.
func (s *ReviewService) Create(ctx context.Context, lectureID, actingUserID string, req CreateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	ok, err := s.recaptcha.Verify(ctx, req.RecaptchaToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "recaptcha verification unavailable")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrRecaptchaRejected, "")
	}

	if _, err := s.lectures.FindByID(ctx, lectureID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}

	review := &models.Review{
		LectureID:         lectureID,
		Rating:            req.Rating,
		Content:           req.Content,
		Textbook:          req.Textbook,
		Attendance:        req.Attendance,
		GradingType:       req.GradingType,
		ContentDifficulty: req.ContentDifficulty,
		ContentQuality:    req.ContentQuality,
		PeriodYear:        req.PeriodYear,
		PeriodTerm:        req.PeriodTerm,
	}

	if actingUserID != "" {
		exists, err := s.reviews.ExistsByUserAndLecture(ctx, actingUserID, lectureID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "you have already reviewed this lecture")
		}
		review.UserID = &actingUserID
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	if actingUserID != "" {
		if err := s.applyCounterDelta(ctx, actingUserID, +1); err != nil {
			return nil, err
		}
	}

	s.invalidateListings(ctx)
	return review, nil
}

// Delete removes the acting user's review and mirrors the counter updates
// made on creation, floored at zero.
func (s *ReviewService) Delete(ctx context.Context, reviewID, actingUserID string) error {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	if review.UserID == nil || *review.UserID != actingUserID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the review owner can delete it")
	}

	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}

	if err := s.applyCounterDelta(ctx, actingUserID, -1); err != nil {
		return err
	}

	s.invalidateListings(ctx)
	return nil
}

// ListByLecture returns a lecture's reviews in ascending creation order with
// content redacted according to the caller's access decision.
func (s *ReviewService) ListByLecture(ctx context.Context, lectureID, userID string) ([]models.RedactedReview, models.AccessDecision, error) {
	if _, err := s.lectures.FindByID(ctx, lectureID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.AccessDecision{}, appErrors.Clone(appErrors.ErrNotFound, "lecture not found")
		}
		return nil, models.AccessDecision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecture")
	}

	reviews, err := s.reviews.ListByLecture(ctx, lectureID)
	if err != nil {
		return nil, models.AccessDecision{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}

	decision := s.access.Evaluate(ctx, userID)
	return s.access.RedactForListing(reviews, decision), decision, nil
}

// Latest returns the newest reviews across all lectures, redacted for the
// caller. The raw feed is cached; redaction stays per-request.
func (s *ReviewService) Latest(ctx context.Context, userID string) ([]models.RedactedLatestReview, error) {
	var feed []models.LatestReview
	hit := false
	if s.cache != nil {
		var err error
		hit, err = s.cache.Get(ctx, latestFeedCacheKey, &feed)
		if err != nil {
			hit = false
		}
	}

	if !hit {
		var err error
		feed, err = s.reviews.ListLatest(ctx, s.latestLimit)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list latest reviews")
		}
		if s.cache != nil {
			_ = s.cache.Set(ctx, latestFeedCacheKey, feed, 0)
		}
	}

	decision := s.access.Evaluate(ctx, userID)
	return s.access.RedactLatestFeed(feed, decision), nil
}

// Total returns the platform-wide review count.
func (s *ReviewService) Total(ctx context.Context) (int, error) {
	count, err := s.reviews.Total(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count reviews")
	}
	return count, nil
}

// applyCounterDelta moves the period counter (when an active period exists)
// and the lifetime counter together. Period-count errors fail the operation;
// the two stores must not diverge silently.
func (s *ReviewService) applyCounterDelta(ctx context.Context, userID string, delta int) error {
	period, err := s.periods.FindActive(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}

	if period != nil {
		if delta > 0 {
			_, err = s.counts.Increment(ctx, userID, period.ID)
		} else {
			_, err = s.counts.Decrement(ctx, userID, period.ID)
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period count")
		}
	}

	if delta > 0 {
		_, err = s.users.IncrementReviewsCount(ctx, userID)
	} else {
		_, err = s.users.DecrementReviewsCount(ctx, userID)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lifetime count")
	}

	return nil
}

func (s *ReviewService) invalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "reviews:*"); err != nil {
		s.logger.Warn("failed to invalidate review caches", zap.Error(err))
	}
	if err := s.cache.Invalidate(ctx, "lectures:*"); err != nil {
		s.logger.Warn("failed to invalidate lecture caches", zap.Error(err))
	}
}
