package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/allerscan/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key this service writes to a shared Redis
const keyPrefix = "allerscan:"

// RedisCache stores registry payloads in Redis so several instances share one cache
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at redisURL and verifies it answers
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	return &RedisCache{client: client}, nil
}

// Get retrieves a value from the cache
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return value, nil
}

// Set stores a value in the cache with TTL
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Delete removes a value from the cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Exists checks if a key exists in the cache
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return n > 0, nil
}

// Close releases the connection pool
func (c *RedisCache) Close() error {
	return c.client.Close()
}
