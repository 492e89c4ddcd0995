package cache

import (
	"context"
	"fmt"
	"time"

	"transaction-service/internal/redisclient"
)

// RedisCache keeps entries in Redis under a shared key prefix so that several
// service instances see the same cache.
type RedisCache struct {
	client     *redisclient.Client
	prefix     string
	defaultTTL time.Duration
}

// NewRedisCache creates a new Redis-backed cache
func NewRedisCache(client *redisclient.Client, prefix string, defaultTTL time.Duration) *RedisCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &RedisCache{client: client, prefix: prefix, defaultTTL: defaultTTL}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.client.GetBytes(ctx, c.prefix+key)
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.client.SetBytes(ctx, c.prefix+key, value, ttl)
}

// Flush deletes the keys under the cache prefix only; other data in the
// same Redis database is left alone.
func (c *RedisCache) Flush(ctx context.Context) error {
	if _, err := c.client.DeleteByPrefix(ctx, c.prefix); err != nil {
		return fmt.Errorf("failed to flush redis cache: %w", err)
	}
	return nil
}

// Close is a no-op; the redis client is owned by the caller
func (c *RedisCache) Close() error {
	return nil
}
