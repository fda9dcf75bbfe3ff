// Package cache provides a Redis read-through cache for settings lookups.
// Cache failures always degrade to database reads; the cache is never
// authoritative.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "settings:"

// Cache wraps a Redis client for setting value caching.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache from a parsed Redis URL. Returns nil (a disabled cache)
// when redisURL is empty.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewWithClient(redis.NewClient(opt), ttl), nil
}

// NewWithClient wraps an existing Redis client (used by tests).
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached raw value for key and whether it was present.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	if c == nil || c.client == nil {
		return "", false
	}
	value, err := c.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores the raw value for key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, value string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Set(ctx, keyPrefix+key, value, c.ttl).Err()
}

// Invalidate drops the cached entry for key.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, keyPrefix+key).Err()
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
