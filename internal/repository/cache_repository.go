package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/class-booking-api/pkg/errors"
)

const (
	cacheIndexSuffix      = "__keys"
	cacheGenerationSuffix = "__gen"
	purgeBatchSize        = 100
)

// CacheRepository stores JSON payloads in Redis. Every key is also recorded in a
// per-namespace index set, so a namespace can be purged without scanning the keyspace.
// A nil client behaves as an always-empty cache.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository constructs a cache repository.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes the cached value into dest, or returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return appErrors.ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A payload from an older release; treat it as absent.
		r.logger.Debug("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return appErrors.ErrCacheMiss
	}
	return nil
}

// Set writes the value and indexes the key under its namespace in one round trip.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}

	index := indexKey(key)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, ttl)
		pipe.SAdd(ctx, index, key)
		// The index outlives its members by one TTL; stale members are harmless.
		pipe.Expire(ctx, index, 2*ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Purge removes every key written under namespace (for example "search:").
func (r *CacheRepository) Purge(ctx context.Context, namespace string) error {
	if r.client == nil {
		return nil
	}

	index := namespace + cacheIndexSuffix
	members, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("redis read index %s: %w", index, err)
	}

	for start := 0; start < len(members); start += purgeBatchSize {
		end := start + purgeBatchSize
		if end > len(members) {
			end = len(members)
		}
		if err := r.client.Unlink(ctx, members[start:end]...).Err(); err != nil {
			return fmt.Errorf("redis unlink %s: %w", namespace, err)
		}
	}
	if err := r.client.Unlink(ctx, index).Err(); err != nil {
		return fmt.Errorf("redis unlink %s: %w", index, err)
	}

	r.logger.Debug("cache namespace purged", zap.String("namespace", namespace), zap.Int("keys", len(members)))
	return nil
}

// Generation returns the namespace's current generation; an unset counter reads as zero.
func (r *CacheRepository) Generation(ctx context.Context, namespace string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Get(ctx, namespace+cacheGenerationSuffix).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis read generation %s: %w", namespace, err)
	}
	return gen, nil
}

// BumpGeneration advances the namespace generation, retiring every key built from an older one.
func (r *CacheRepository) BumpGeneration(ctx context.Context, namespace string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	gen, err := r.client.Incr(ctx, namespace+cacheGenerationSuffix).Result()
	if err != nil {
		return 0, fmt.Errorf("redis bump generation %s: %w", namespace, err)
	}
	return gen, nil
}

// Ping checks connectivity; a nil client is always healthy.
func (r *CacheRepository) Ping(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection if present.
func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// indexKey maps "search:10001:25::" to "search:__keys".
func indexKey(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i+1] + cacheIndexSuffix
	}
	return key + ":" + cacheIndexSuffix
}
