// Package cache holds the registry response caches: an in-process map and a shared Redis.
package cache

import (
	"fmt"
	"io"

	"github.com/allerscan/backend/config"
	"github.com/allerscan/backend/internal/domain"
	"go.uber.org/zap"
)

// Store is a cache that owns background resources
type Store interface {
	domain.CacheRepository
	io.Closer
}

// New builds the cache selected by cfg.Type
func New(cfg config.CacheConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Type {
	case "redis":
		c, err := NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		logger.Info("[Cache] Using Redis cache", zap.Duration("ttl", cfg.TTL))
		return c, nil
	case "memory", "":
		logger.Info("[Cache] Using in-memory cache", zap.Duration("ttl", cfg.TTL))
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
