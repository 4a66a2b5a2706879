package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

// Search result keys live under this namespace so writes can drop them wholesale.
const searchCachePrefix = "search:"

const (
	defaultCacheFailureThreshold = 3
	defaultCacheCooldown         = 30 * time.Second
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Purge(ctx context.Context, namespace string) error
	Generation(ctx context.Context, namespace string) (int64, error)
	BumpGeneration(ctx context.Context, namespace string) (int64, error)
}

// CacheService fronts the search cache. After a run of backend failures it stops
// calling the backend for a cooldown period and serves every lookup as a miss.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool

	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	failures    int
	bypassUntil time.Time
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:       repo,
		metrics:    metrics,
		defaultTTL: defaultTTL,
		logger:     logger,
		enabled:    enabled,
		threshold:  defaultCacheFailureThreshold,
		cooldown:   defaultCacheCooldown,
		now:        time.Now,
	}
}

// Enabled indicates whether caching is configured.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get decodes a cached entry into dest and reports whether it was a hit.
// Backend errors are logged and counted, never surfaced to the caller.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.available() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	switch {
	case err == nil:
		s.metrics.RecordCacheOperation(true, duration)
		s.succeeded()
		return true
	case errors.Is(err, appErrors.ErrCacheMiss):
		s.metrics.RecordCacheOperation(false, duration)
		s.succeeded()
		return false
	default:
		s.metrics.RecordCacheOperation(false, duration)
		s.failed("get", key, err)
		return false
	}
}

// Set stores value under key; ttl <= 0 uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.available() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.failed("set", key, err)
		return
	}
	s.succeeded()
}

// SearchKey builds a search cache key stamped with the current search generation.
// Callers must take the key before reading the data it caches: a write that lands
// after an invalidation is then stored under a retired generation and never read.
// The second result is false when the cache cannot be used for this request.
func (s *CacheService) SearchKey(ctx context.Context, suffix string) (string, bool) {
	if !s.available() {
		return "", false
	}
	gen, err := s.repo.Generation(ctx, searchCachePrefix)
	if err != nil {
		s.failed("generation", searchCachePrefix, err)
		return "", false
	}
	return fmt.Sprintf("%sg%d:%s", searchCachePrefix, gen, suffix), true
}

// InvalidateSearch retires every cached search result. It runs even while reads are
// bypassed so a recovering backend does not serve entries from before the write.
func (s *CacheService) InvalidateSearch(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if _, err := s.repo.BumpGeneration(ctx, searchCachePrefix); err != nil {
		s.failed("bump generation", searchCachePrefix, err)
	}
	if err := s.repo.Purge(ctx, searchCachePrefix); err != nil {
		s.failed("purge", searchCachePrefix, err)
	}
}

func (s *CacheService) available() bool {
	if !s.Enabled() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.bypassUntil)
}

func (s *CacheService) succeeded() {
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}

func (s *CacheService) failed(op, key string, err error) {
	s.mu.Lock()
	s.failures++
	tripped := s.failures >= s.threshold
	if tripped {
		s.failures = 0
		s.bypassUntil = s.now().Add(s.cooldown)
	}
	s.mu.Unlock()

	s.logger.Warn("cache "+op+" failed", zap.String("key", key), zap.Error(err))
	if tripped {
		s.logger.Warn("cache bypassed after repeated failures", zap.Duration("cooldown", s.cooldown))
	}
}
