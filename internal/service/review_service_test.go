package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type reviewRepoStub struct {
	reviews   map[string]*models.Review
	byLecture []models.Review
	latest    []models.LatestReview
	exists    bool
	created   *models.Review
	deletedID string
	err       error
}

func (s *reviewRepoStub) FindByID(ctx context.Context, id string) (*models.Review, error) {
	if s.err != nil {
		return nil, s.err
	}
	review, ok := s.reviews[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return review, nil
}

func (s *reviewRepoStub) ListByLecture(ctx context.Context, lectureID string) ([]models.Review, error) {
	return s.byLecture, s.err
}

func (s *reviewRepoStub) ListLatest(ctx context.Context, limit int) ([]models.LatestReview, error) {
	return s.latest, s.err
}

func (s *reviewRepoStub) ExistsByUserAndLecture(ctx context.Context, userID, lectureID string) (bool, error) {
	return s.exists, nil
}

func (s *reviewRepoStub) Total(ctx context.Context) (int, error) {
	return len(s.reviews), s.err
}

func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	if s.err != nil {
		return s.err
	}
	s.created = review
	return nil
}

func (s *reviewRepoStub) Delete(ctx context.Context, id string) error {
	s.deletedID = id
	return s.err
}

type lectureStub struct {
	missing bool
}

func (s *lectureStub) FindByID(ctx context.Context, id string) (*models.Lecture, error) {
	if s.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Lecture{ID: id, Title: "情報科学概論"}, nil
}

type lifetimeStub struct {
	count      int
	increments int
	decrements int
	err        error
}

func (s *lifetimeStub) IncrementReviewsCount(ctx context.Context, id string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.count++
	s.increments++
	return s.count, nil
}

func (s *lifetimeStub) DecrementReviewsCount(ctx context.Context, id string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.count > 0 {
		s.count--
	}
	s.decrements++
	return s.count, nil
}

type periodCounterStub struct {
	counts     map[string]int
	increments int
	decrements int
	err        error
}

func (s *periodCounterStub) Increment(ctx context.Context, userID, periodID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.counts == nil {
		s.counts = make(map[string]int)
	}
	key := userID + "/" + periodID
	s.counts[key]++
	s.increments++
	return s.counts[key], nil
}

func (s *periodCounterStub) Decrement(ctx context.Context, userID, periodID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	key := userID + "/" + periodID
	if s.counts[key] > 0 {
		s.counts[key]--
	}
	s.decrements++
	return s.counts[key], nil
}

type recaptchaStub struct {
	ok  bool
	err error
}

func (s *recaptchaStub) Verify(ctx context.Context, token string) (bool, error) {
	return s.ok, s.err
}

type accessStub struct {
	decision models.AccessDecision
}

func (s *accessStub) Evaluate(ctx context.Context, userID string) models.AccessDecision {
	return s.decision
}

func (s *accessStub) RedactForListing(reviews []models.Review, decision models.AccessDecision) []models.RedactedReview {
	result := make([]models.RedactedReview, 0, len(reviews))
	for _, review := range reviews {
		result = append(result, models.RedactedReview{Review: review, AccessGranted: decision.Granted})
	}
	return result
}

func (s *accessStub) RedactLatestFeed(reviews []models.LatestReview, decision models.AccessDecision) []models.RedactedLatestReview {
	result := make([]models.RedactedLatestReview, 0, len(reviews))
	for _, review := range reviews {
		result = append(result, models.RedactedLatestReview{LatestReview: review, AccessGranted: decision.Granted})
	}
	return result
}

func validReviewRequest() CreateReviewRequest {
	return CreateReviewRequest{
		Rating:         4.5,
		Content:        strings.Repeat("講義の進め方が丁寧で", 3),
		RecaptchaToken: "token",
	}
}

func newReviewService(reviews *reviewRepoStub, users *lifetimeStub, periods *periodRepoStub, counts *periodCounterStub) *ReviewService {
	return NewReviewService(reviews, &lectureStub{}, users, periods, counts, &recaptchaStub{ok: true}, &accessStub{}, nil, nil, nil, 3)
}

func TestReviewCreateAnonymousTouchesNoCounter(t *testing.T) {
	reviews := &reviewRepoStub{}
	users := &lifetimeStub{}
	counts := &periodCounterStub{}
	svc := newReviewService(reviews, users, &periodRepoStub{period: activePeriod()}, counts)

	review, err := svc.Create(context.Background(), "l1", "", validReviewRequest())
	require.NoError(t, err)
	assert.Nil(t, review.UserID)
	assert.Zero(t, users.increments)
	assert.Zero(t, counts.increments)
}

func TestReviewCreateMovesBothCounters(t *testing.T) {
	reviews := &reviewRepoStub{}
	users := &lifetimeStub{}
	counts := &periodCounterStub{}
	svc := newReviewService(reviews, users, &periodRepoStub{period: activePeriod()}, counts)

	review, err := svc.Create(context.Background(), "l1", "u1", validReviewRequest())
	require.NoError(t, err)
	require.NotNil(t, review.UserID)
	assert.Equal(t, "u1", *review.UserID)
	assert.Equal(t, 1, users.increments)
	assert.Equal(t, 1, counts.increments)
	assert.Equal(t, 1, counts.counts["u1/p1"])
}

func TestReviewCreateWithoutActivePeriodSkipsPeriodCounter(t *testing.T) {
	reviews := &reviewRepoStub{}
	users := &lifetimeStub{}
	counts := &periodCounterStub{}
	svc := newReviewService(reviews, users, &periodRepoStub{}, counts)

	_, err := svc.Create(context.Background(), "l1", "u1", validReviewRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, users.increments)
	assert.Zero(t, counts.increments)
}

func TestReviewCreateRejectsDuplicate(t *testing.T) {
	reviews := &reviewRepoStub{exists: true}
	svc := newReviewService(reviews, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{})

	_, err := svc.Create(context.Background(), "l1", "u1", validReviewRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, reviews.created)
}

func TestReviewCreateRejectsShortContent(t *testing.T) {
	svc := newReviewService(&reviewRepoStub{}, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{})

	req := validReviewRequest()
	req.Content = "too short"
	_, err := svc.Create(context.Background(), "l1", "u1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateRejectsFailedRecaptcha(t *testing.T) {
	svc := NewReviewService(&reviewRepoStub{}, &lectureStub{}, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{}, &recaptchaStub{ok: false}, &accessStub{}, nil, nil, nil, 3)

	_, err := svc.Create(context.Background(), "l1", "u1", validReviewRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRecaptchaRejected.Code, appErrors.FromError(err).Code)
}

func TestReviewCreatePropagatesCounterFailure(t *testing.T) {
	counts := &periodCounterStub{err: errors.New("connection reset")}
	svc := newReviewService(&reviewRepoStub{}, &lifetimeStub{}, &periodRepoStub{period: activePeriod()}, counts)

	_, err := svc.Create(context.Background(), "l1", "u1", validReviewRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestReviewDeleteRequiresOwnership(t *testing.T) {
	owner := "u1"
	reviews := &reviewRepoStub{reviews: map[string]*models.Review{"r1": {ID: "r1", UserID: &owner}}}
	svc := newReviewService(reviews, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{})

	err := svc.Delete(context.Background(), "r1", "u2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reviews.deletedID)
}

func TestReviewDeleteRejectsAnonymousReviews(t *testing.T) {
	reviews := &reviewRepoStub{reviews: map[string]*models.Review{"r1": {ID: "r1"}}}
	svc := newReviewService(reviews, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{})

	err := svc.Delete(context.Background(), "r1", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReviewDeleteMirrorsCounters(t *testing.T) {
	owner := "u1"
	reviews := &reviewRepoStub{reviews: map[string]*models.Review{"r1": {ID: "r1", UserID: &owner}}}
	users := &lifetimeStub{count: 2}
	counts := &periodCounterStub{counts: map[string]int{"u1/p1": 1}}
	svc := newReviewService(reviews, users, &periodRepoStub{period: activePeriod()}, counts)

	require.NoError(t, svc.Delete(context.Background(), "r1", "u1"))
	assert.Equal(t, "r1", reviews.deletedID)
	assert.Equal(t, 1, users.decrements)
	assert.Equal(t, 1, counts.decrements)
	assert.Zero(t, counts.counts["u1/p1"])
}

func TestReviewListByLectureUnknownLecture(t *testing.T) {
	svc := NewReviewService(&reviewRepoStub{}, &lectureStub{missing: true}, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{}, &recaptchaStub{ok: true}, &accessStub{}, nil, nil, nil, 3)

	_, _, err := svc.ListByLecture(context.Background(), "nope", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewListByLecturePassesDecisionThrough(t *testing.T) {
	reviews := &reviewRepoStub{byLecture: []models.Review{{ID: "r1"}, {ID: "r2"}}}
	access := &accessStub{decision: models.AccessDecision{Granted: true}}
	svc := NewReviewService(reviews, &lectureStub{}, &lifetimeStub{}, &periodRepoStub{}, &periodCounterStub{}, &recaptchaStub{ok: true}, access, nil, nil, nil, 3)

	result, decision, err := svc.ListByLecture(context.Background(), "l1", "u1")
	require.NoError(t, err)
	assert.True(t, decision.Granted)
	require.Len(t, result, 2)
	assert.True(t, result[0].AccessGranted)
}
