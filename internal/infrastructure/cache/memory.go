package cache

import (
	"context"
	"sync"
	"time"

	"github.com/nutrilog/backend/internal/domain"
)

const defaultSweepInterval = 10 * time.Minute

type entry struct {
	payload   []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// MemoryCache is a thread-safe in-memory cache of encoded payloads with TTL support
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a cache that sweeps expired entries every 10 minutes
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheWithInterval(defaultSweepInterval)
}

// NewMemoryCacheWithInterval creates a cache with a custom sweep interval
func NewMemoryCacheWithInterval(interval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]entry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go c.sweep(interval)
	return c
}

// Get returns a copy of the payload stored under key
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || e.expired(c.now()) {
		return nil, domain.ErrCacheMiss
	}
	return append([]byte(nil), e.payload...), nil
}

// Set stores a copy of value under key for ttl
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		payload:   append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a value from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if a key exists in the cache and is not expired
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	return ok && !e.expired(c.now()), nil
}

// Size returns the number of stored entries, expired ones included until swept
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Close stops the background sweeper. It is safe to call more than once.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) sweep(interval time.Duration) {
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
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
		}
	}
}
