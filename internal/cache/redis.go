package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"web-search-answer-api/internal/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisCache shares search results across processes.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache.
func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{client: rdb}
}

// GetHits retrieves a cached result batch. Any redis or decode failure is
// treated as a miss.
func (c *RedisCache) GetHits(ctx context.Context, key string) ([]search.Hit, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	} else if err != nil {
		log.Warn().Err(err).Msg("redis get failed")
		return nil, false
	}
	var hits []search.Hit
	if err := json.Unmarshal([]byte(val), &hits); err != nil {
		return nil, false
	}
	return hits, true
}

// SetHits stores a result batch. Failures only cost the next caller a
// provider round trip, so they are logged and dropped.
func (c *RedisCache) SetHits(ctx context.Context, key string, hits []search.Hit, duration time.Duration) {
	payload, err := json.Marshal(hits)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, duration).Err(); err != nil {
		log.Warn().Err(err).Msg("redis set failed")
	}
}
