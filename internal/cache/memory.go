package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"web-search-answer-api/internal/search"
)

// MemoryCache is a single in-process cache backed by go-cache.
type MemoryCache struct {
	client *gocache.Cache
}

// NewMemoryCache creates a new MemoryCache.
func NewMemoryCache(defaultExpiration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		client: gocache.New(defaultExpiration, cleanupInterval),
	}
}

// GetHits retrieves a cached result batch.
func (c *MemoryCache) GetHits(_ context.Context, key string) ([]search.Hit, bool) {
	if val, found := c.client.Get(key); found {
		if hits, ok := val.([]search.Hit); ok {
			return hits, true
		}
	}
	return nil, false
}

// SetHits stores a result batch.
func (c *MemoryCache) SetHits(_ context.Context, key string, hits []search.Hit, duration time.Duration) {
	c.client.Set(key, hits, duration)
}
