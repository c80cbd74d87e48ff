package cache

import (
	"context"
	"sync"
	"time"

	"github.com/allerscan/backend/internal/domain"
)

// cleanupInterval is how often expired entries are swept
const cleanupInterval = 10 * time.Minute

// entry is a single cached registry payload with its expiry
type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-process cache with TTL support.
// Values are copied on the way in and out so callers never share a buffer with the cache.
type MemoryCache struct {
	data  map[string]entry
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache and starts its expiry sweeper
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]entry),
		stop: make(chan struct{}),
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiresAt) {
		return nil, domain.ErrCacheMiss
	}

	return append([]byte(nil), item.value...), nil
}

// Set stores a value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = entry{
		value:     append([]byte(nil), value...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists {
		return false, nil
	}
	return !time.Now().After(item.expiresAt), nil
}

// Close stops the expiry sweeper
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired(time.Now())
		}
	}
}

func (c *MemoryCache) removeExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, item := range c.data {
		if now.After(item.expiresAt) {
			delete(c.data, key)
		}
	}
}

// Size returns the current number of items in the cache, expired or not
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]entry)
}
