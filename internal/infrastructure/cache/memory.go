package cache

import (
	"context"
	"sync"
	"time"

	"github.com/TVimala/Packaged-Food-Rating-App/internal/domain"
)

// cleanupInterval is how often expired entries are swept
const cleanupInterval = 10 * time.Minute

// cacheItem represents a single item in the cache with expiration
type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return now.After(i.expiration)
}

// MemoryCache is a thread-safe in-memory cache with TTL support. When
// maxEntries is positive, inserting a new key into a full cache evicts the
// entry closest to expiry.
type MemoryCache struct {
	data       map[string]cacheItem
	mutex      sync.RWMutex
	maxEntries int
	stop       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryCache creates a new in-memory cache. maxEntries <= 0 means
// unbounded. Call Close to stop the background sweeper.
func NewMemoryCache(maxEntries int) *MemoryCache {
	cache := &MemoryCache{
		data:       make(map[string]cacheItem),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}

	go cache.cleanupExpired(cleanupInterval)

	return cache
}

// Get retrieves a value from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || item.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	return item.value, nil
}

// Set stores a copy of value in the cache with TTL
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	if _, exists := c.data[key]; !exists && c.maxEntries > 0 && len(c.data) >= c.maxEntries {
		c.evictLocked(now)
	}

	c.data[key] = cacheItem{
		value:      append([]byte(nil), value...),
		expiration: now.Add(ttl),
	}

	return nil
}

// evictLocked drops expired entries, or when there are none, the entry that
// would expire first.
func (c *MemoryCache) evictLocked(now time.Time) {
	var victim string
	var soonest time.Time
	removed := false
	for key, item := range c.data {
		if item.expired(now) {
			delete(c.data, key)
			removed = true
			continue
		}
		if victim == "" || item.expiration.Before(soonest) {
			victim, soonest = key, item.expiration
		}
	}
	if !removed && victim != "" {
		delete(c.data, victim)
	}
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
	return exists && !item.expired(time.Now()), nil
}

// cleanupExpired removes expired entries from the cache periodically
func (c *MemoryCache) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *MemoryCache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, item := range c.data {
		if item.expired(now) {
			delete(c.data, key)
		}
	}
}

// Close stops the background sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() {
	c.closeOnce.Do(func() { close(c.stop) })
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
