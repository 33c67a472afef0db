package cache

import (
	"context"
	"time"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"

	"web-search-answer-api/internal/search"
)

const shardCount = 256 // A power of 2 keeps the mask cheap.

// ShardedMemoryCache splits keys across many go-cache instances so the
// janitor and lock contention stay bounded under heavy traffic.
type ShardedMemoryCache struct {
	shards []*gocache.Cache
}

// NewShardedMemoryCache creates a cache with shardCount shards.
func NewShardedMemoryCache(defaultExpiration, cleanupInterval time.Duration) *ShardedMemoryCache {
	c := &ShardedMemoryCache{
		shards: make([]*gocache.Cache, shardCount),
	}
	for i := 0; i < shardCount; i++ {
		c.shards[i] = gocache.New(defaultExpiration, cleanupInterval)
	}
	return c
}

func (c *ShardedMemoryCache) getShard(key string) *gocache.Cache {
	hasher := xxhash.New()
	hasher.Write([]byte(key))
	return c.shards[hasher.Sum64()&(shardCount-1)]
}

// GetHits retrieves a cached result batch.
func (c *ShardedMemoryCache) GetHits(_ context.Context, key string) ([]search.Hit, bool) {
	if val, found := c.getShard(key).Get(key); found {
		if hits, ok := val.([]search.Hit); ok {
			return hits, true
		}
	}
	return nil, false
}

// SetHits stores a result batch.
func (c *ShardedMemoryCache) SetHits(_ context.Context, key string, hits []search.Hit, duration time.Duration) {
	c.getShard(key).Set(key, hits, duration)
}
