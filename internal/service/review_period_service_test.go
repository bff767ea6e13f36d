package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type periodAdminRepoStub struct {
	periods     map[string]*models.ReviewPeriod
	nameTaken   bool
	otherActive bool
	activatedID string
	deactivated string
	deletedID   string
	created     *models.ReviewPeriod
	updated     *models.ReviewPeriod
}

func (s *periodAdminRepoStub) List(ctx context.Context) ([]models.ReviewPeriod, error) {
	result := make([]models.ReviewPeriod, 0, len(s.periods))
	for _, p := range s.periods {
		result = append(result, *p)
	}
	return result, nil
}

func (s *periodAdminRepoStub) FindByID(ctx context.Context, id string) (*models.ReviewPeriod, error) {
	period, ok := s.periods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *period
	return &clone, nil
}

func (s *periodAdminRepoStub) FindActive(ctx context.Context) (*models.ReviewPeriod, error) {
	for _, p := range s.periods {
		if p.IsActive {
			clone := *p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodAdminRepoStub) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return s.nameTaken, nil
}

func (s *periodAdminRepoStub) ExistsOtherActive(ctx context.Context, excludeID string) (bool, error) {
	return s.otherActive, nil
}

func (s *periodAdminRepoStub) Create(ctx context.Context, period *models.ReviewPeriod) error {
	s.created = period
	return nil
}

func (s *periodAdminRepoStub) Update(ctx context.Context, period *models.ReviewPeriod) error {
	s.updated = period
	return nil
}

func (s *periodAdminRepoStub) SetActive(ctx context.Context, id string) error {
	s.activatedID = id
	for pid, p := range s.periods {
		p.IsActive = pid == id
	}
	return nil
}

func (s *periodAdminRepoStub) SetInactive(ctx context.Context, id string) error {
	s.deactivated = id
	if p, ok := s.periods[id]; ok {
		p.IsActive = false
	}
	return nil
}

func (s *periodAdminRepoStub) Delete(ctx context.Context, id string) error {
	s.deletedID = id
	return nil
}

func (s *periodAdminRepoStub) CounterStats(ctx context.Context, id string) (int, int, error) {
	return 2, 5, nil
}

func validPeriodRequest() CreateReviewPeriodRequest {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	return CreateReviewPeriodRequest{
		Name:     "2026 Spring",
		StartsAt: start,
		EndsAt:   start.AddDate(0, 3, 0),
	}
}

func TestPeriodCreateRejectsInvertedDates(t *testing.T) {
	svc := NewReviewPeriodService(&periodAdminRepoStub{}, nil, nil)

	req := validPeriodRequest()
	req.EndsAt = req.StartsAt.Add(-time.Hour)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodCreateRejectsDuplicateName(t *testing.T) {
	svc := NewReviewPeriodService(&periodAdminRepoStub{nameTaken: true}, nil, nil)

	_, err := svc.Create(context.Background(), validPeriodRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPeriodCreateRejectsSecondActive(t *testing.T) {
	svc := NewReviewPeriodService(&periodAdminRepoStub{otherActive: true}, nil, nil)

	req := validPeriodRequest()
	req.IsActive = true
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodActivateSwapsActiveFlag(t *testing.T) {
	repo := &periodAdminRepoStub{periods: map[string]*models.ReviewPeriod{
		"p1": {ID: "p1", Name: "Old", IsActive: true},
		"p2": {ID: "p2", Name: "New"},
	}}
	svc := NewReviewPeriodService(repo, nil, nil)

	period, err := svc.Activate(context.Background(), "p2")
	require.NoError(t, err)
	assert.True(t, period.IsActive)
	assert.Equal(t, "p2", repo.activatedID)
	assert.False(t, repo.periods["p1"].IsActive)
	assert.True(t, repo.periods["p2"].IsActive)
}

func TestPeriodActivateUnknownPeriod(t *testing.T) {
	svc := NewReviewPeriodService(&periodAdminRepoStub{}, nil, nil)

	_, err := svc.Activate(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPeriodDeactivateIsIdempotent(t *testing.T) {
	repo := &periodAdminRepoStub{periods: map[string]*models.ReviewPeriod{"p1": {ID: "p1", Name: "Spring"}}}
	svc := NewReviewPeriodService(repo, nil, nil)

	period, err := svc.Deactivate(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, period.IsActive)

	period, err = svc.Deactivate(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, period.IsActive)
}

func TestPeriodGetCurrentReturnsNilWithoutActive(t *testing.T) {
	svc := NewReviewPeriodService(&periodAdminRepoStub{}, nil, nil)

	current, err := svc.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestPeriodGetCurrentIncludesCounterStats(t *testing.T) {
	repo := &periodAdminRepoStub{periods: map[string]*models.ReviewPeriod{
		"p1": {ID: "p1", Name: "Spring", StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour), IsActive: true},
	}}
	svc := NewReviewPeriodService(repo, nil, nil)

	current, err := svc.GetCurrent(context.Background())
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, 2, current.UserCount)
	assert.Equal(t, 5, current.TotalReviews)
	assert.True(t, current.Within)
}
