// Package cache provides an optional Redis-backed response cache for
// the read endpoints. Scoring the full fleet on every request is the
// expensive path; caching the serialized response for a short TTL
// keeps dashboard refreshes cheap.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/internal/config"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/logger"
)

const keyPrefix = "factory:response:"

// ResponseCache stores serialized endpoint responses keyed by
// endpoint name
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte)
	Invalidate(ctx context.Context, keys ...string)
	Close() error
}

// RedisCache is the Redis-backed ResponseCache
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection before
// returning
func NewRedisCache(cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrUnavailable, "redis connect: %v", err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
		log:    logger.Get().With("component", "response_cache"),
	}, nil
}

// Get returns the cached payload for key, if present. Cache errors
// degrade to a miss; the caller recomputes.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warnw("Cache read failed", "key", key, "error", err)
		return nil, false
	}
	return payload, true
}

// Set stores the payload under key for the configured TTL. Write
// failures are logged and swallowed.
func (c *RedisCache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.client.Set(ctx, keyPrefix+key, payload, c.ttl).Err(); err != nil {
		c.log.Warnw("Cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops the cached payloads for the given keys, used after
// a model reload changes what every endpoint would return
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) {
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = keyPrefix + key
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil {
		c.log.Warnw("Cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache satisfies ResponseCache when caching is disabled
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) ([]byte, bool)  { return nil, false }
func (NoopCache) Set(ctx context.Context, key string, payload []byte) {}
func (NoopCache) Invalidate(ctx context.Context, keys ...string)      {}
func (NoopCache) Close() error                                        { return nil }
