package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cscinfonest/portal-api/internal/models"
	appErrors "github.com/cscinfonest/portal-api/pkg/errors"
)

type cacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService wraps the cache repository with portal key conventions.
// All methods degrade to no-ops when no cache backend is configured.
type CacheService struct {
	repo    cacheRepository
	ttl     time.Duration
	logger  *zap.Logger
	metrics *MetricsService
}

func NewCacheService(repo cacheRepository, ttl time.Duration, logger *zap.Logger, metrics *MetricsService) *CacheService {
	return &CacheService{repo: repo, ttl: ttl, logger: logger, metrics: metrics}
}

func (s *CacheService) key(kind models.EntityKind, suffix string) string {
	return fmt.Sprintf("portal:%s:%s", kind, suffix)
}

// Get loads a cached value into dest. Returns false on miss or backend error.
func (s *CacheService) Get(ctx context.Context, kind models.EntityKind, suffix string, dest interface{}) bool {
	if s == nil || s.repo == nil {
		return false
	}
	started := time.Now()
	err := s.repo.Get(ctx, s.key(kind, suffix), dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(started))
	if err == nil {
		return true
	}
	if err != appErrors.ErrCacheMiss {
		s.logger.Warn("cache read failed", zap.String("kind", string(kind)), zap.Error(err))
	}
	return false
}

func (s *CacheService) Set(ctx context.Context, kind models.EntityKind, suffix string, value interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.Set(ctx, s.key(kind, suffix), value, s.ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

// InvalidateKind drops every cached read for one entity kind after a mutation.
func (s *CacheService) InvalidateKind(ctx context.Context, kind models.EntityKind) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, fmt.Sprintf("portal:%s:*", kind)); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}
