package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kougiview/kougiview-api/internal/repository"
	appErrors "github.com/kougiview/kougiview-api/pkg/errors"
)

// CacheService fronts the Redis cache repository with a hit/miss API so
// callers never branch on redis errors themselves. A disabled cache behaves
// as a permanent miss.
type CacheService struct {
	repo       *repository.CacheRepository
	enabled    bool
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewCacheService creates a new cache service instance.
func NewCacheService(repo *repository.CacheRepository, enabled bool, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &CacheService{repo: repo, enabled: enabled, defaultTTL: defaultTTL, logger: logger}
}

// Get loads the cached value into dest. Returns false on a miss or any
// backend failure; a flaky cache must never fail a request.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.enabled || s.repo == nil {
		return false, nil
	}

	err := s.repo.Get(ctx, key, dest)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, appErrors.ErrCacheMiss) {
		return false, nil
	}

	s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	return false, err
}

// Set stores the value under key. A non-positive ttl uses the configured
// default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.enabled || s.repo == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate drops every key matching the pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.enabled || s.repo == nil {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, pattern)
}
