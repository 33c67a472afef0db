// Package cache stores recent search results so identical query batches
// within the TTL skip the provider round trip.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"web-search-answer-api/internal/config"
	"web-search-answer-api/internal/search"
)

// Cache is the interface implemented by the memory, sharded, and redis
// backends.
type Cache interface {
	GetHits(ctx context.Context, key string) ([]search.Hit, bool)
	SetHits(ctx context.Context, key string, hits []search.Hit, duration time.Duration)
}

// New builds the backend selected by CACHE_BACKEND.
func New(cfg *config.AppConfig) Cache {
	switch cfg.CacheBackend {
	case "redis":
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "sharded":
		return NewShardedMemoryCache(cfg.CacheTTL(), 2*cfg.CacheTTL())
	}
	return NewMemoryCache(cfg.CacheTTL(), 2*cfg.CacheTTL())
}

// Key derives the cache key for one search batch. Every field that changes
// the merged result participates.
func Key(provider string, plans []search.PlannedQuery, topK *int, useYouTubeTranscript bool) string {
	var b strings.Builder
	b.WriteString("search:")
	b.WriteString(provider)
	for _, p := range plans {
		fmt.Fprintf(&b, "|%s\x1f%s\x1f%s\x1f%s", p.Query, p.Type, p.Language, p.Period)
	}
	if topK != nil {
		fmt.Fprintf(&b, "|topk=%d", *topK)
	}
	if useYouTubeTranscript {
		b.WriteString("|yt")
	}
	return b.String()
}
