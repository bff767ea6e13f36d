package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/models"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

type reviewPeriodRepository interface {
	List(ctx context.Context) ([]models.ReviewPeriod, error)
	FindByID(ctx context.Context, id string) (*models.ReviewPeriod, error)
	FindActive(ctx context.Context) (*models.ReviewPeriod, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	ExistsOtherActive(ctx context.Context, excludeID string) (bool, error)
	Create(ctx context.Context, period *models.ReviewPeriod) error
	Update(ctx context.Context, period *models.ReviewPeriod) error
	SetActive(ctx context.Context, id string) error
	SetInactive(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	CounterStats(ctx context.Context, id string) (int, int, error)
}

// CreateReviewPeriodRequest describes payload for creating review periods.
type CreateReviewPeriodRequest struct {
	Name     string    `json:"name" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
	IsActive bool      `json:"is_active"`
}

// UpdateReviewPeriodRequest updates mutable fields on a period.
type UpdateReviewPeriodRequest struct {
	Name     string    `json:"name" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required"`
	IsActive *bool     `json:"is_active"`
}

// ReviewPeriodService orchestrates review period administration. It owns the
// "at most one active period" invariant outside of the activation swap, which
// the repository enforces transactionally.
type ReviewPeriodService struct {
	repo      reviewPeriodRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewReviewPeriodService creates a new review period service instance.
func NewReviewPeriodService(repo reviewPeriodRepository, validate *validator.Validate, logger *zap.Logger) *ReviewPeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewPeriodService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns all periods ordered by start.
func (s *ReviewPeriodService) List(ctx context.Context) ([]models.ReviewPeriodStats, error) {
	periods, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list review periods")
	}

	stats := make([]models.ReviewPeriodStats, 0, len(periods))
	now := s.now().UTC()
	for _, p := range periods {
		stats = append(stats, models.ReviewPeriodStats{ReviewPeriod: p, Within: p.WithinPeriod(now)})
	}
	return stats, nil
}

// Get returns a period by ID with counter aggregates.
func (s *ReviewPeriodService) Get(ctx context.Context, id string) (*models.ReviewPeriodStats, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review period")
	}

	userCount, totalReviews, err := s.repo.CounterStats(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period counters")
	}

	return &models.ReviewPeriodStats{
		ReviewPeriod: *period,
		UserCount:    userCount,
		TotalReviews: totalReviews,
		Within:       period.WithinPeriod(s.now().UTC()),
	}, nil
}

// GetCurrent returns the active period, or nil when none is configured. The
// empty state is valid (between terms) and is not an error.
func (s *ReviewPeriodService) GetCurrent(ctx context.Context) (*models.ReviewPeriodStats, error) {
	period, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active period")
	}

	userCount, totalReviews, err := s.repo.CounterStats(ctx, period.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period counters")
	}

	return &models.ReviewPeriodStats{
		ReviewPeriod: *period,
		UserCount:    userCount,
		TotalReviews: totalReviews,
		Within:       period.WithinPeriod(s.now().UTC()),
	}, nil
}

// Create adds a new period ensuring date and uniqueness validation. Creating
// directly with is_active=true is rejected when a different active period
// exists; the exclusive swap is only available through Activate.
func (s *ReviewPeriodService) Create(ctx context.Context, req CreateReviewPeriodRequest) (*models.ReviewPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review period payload")
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ends_at must be after starts_at")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a review period with this name already exists")
	}

	if req.IsActive {
		activeExists, err := s.repo.ExistsOtherActive(ctx, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active period")
		}
		if activeExists {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only one period can be active at a time")
		}
	}

	period := &models.ReviewPeriod{
		Name:     req.Name,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		IsActive: req.IsActive,
	}

	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review period")
	}

	return period, nil
}

// Update modifies a period record under the same validation rules as Create.
func (s *ReviewPeriodService) Update(ctx context.Context, id string, req UpdateReviewPeriodRequest) (*models.ReviewPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review period payload")
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ends_at must be after starts_at")
	}

	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review period")
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a review period with this name already exists")
	}

	if req.IsActive != nil && *req.IsActive {
		activeExists, err := s.repo.ExistsOtherActive(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active period")
		}
		if activeExists {
			return nil, appErrors.Clone(appErrors.ErrValidation, "only one period can be active at a time")
		}
	}

	period.Name = req.Name
	period.StartsAt = req.StartsAt
	period.EndsAt = req.EndsAt
	if req.IsActive != nil {
		period.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review period")
	}

	return period, nil
}

// Activate designates a period as the single active one, atomically swapping
// out whichever period held the flag before.
func (s *ReviewPeriodService) Activate(ctx context.Context, id string) (*models.ReviewPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review period")
	}

	if err := s.repo.SetActive(ctx, period.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate review period")
	}
	period.IsActive = true
	return period, nil
}

// Deactivate clears the active flag unconditionally. Idempotent.
func (s *ReviewPeriodService) Deactivate(ctx context.Context, id string) (*models.ReviewPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review period")
	}

	if err := s.repo.SetInactive(ctx, period.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate review period")
	}
	period.IsActive = false
	return period, nil
}

// Delete removes a period. Counter rows cascade with it.
func (s *ReviewPeriodService) Delete(ctx context.Context, id string) error {
	_, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review period not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review period")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review period")
	}
	return nil
}
