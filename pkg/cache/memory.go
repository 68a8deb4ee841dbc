package cache

import (
	"context"
	"slices"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// DefaultCleanupInterval is how often MemoryCache purges expired entries.
const DefaultCleanupInterval = 30 * time.Minute

// MemoryCache keeps entries in process memory. It suits long-running serve
// and watch processes; everything is lost on exit.
type MemoryCache struct {
	cache *gocache.Cache
}

// NewMemoryCache creates an in-memory cache. Entries stored with a ttl of 0
// never expire.
func NewMemoryCache(cleanupInterval time.Duration) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &MemoryCache{cache: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Get retrieves a copy of the stored value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, found := c.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		c.cache.Delete(key)
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

// Set stores a copy of data.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	c.cache.Set(key, slices.Clone(data), ttl)
	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Len returns the number of stored entries, including expired ones not yet
// purged.
func (c *MemoryCache) Len() int { return c.cache.ItemCount() }

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.cache.Flush()
	return nil
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.cache.Flush()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
