package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = time.Minute

// Cache key prefixes.
const (
	CachePopularPrefix = "cache:posts:popular:"
	CacheStatsKey      = "cache:statistics"
)

// Cache is a small JSON cache over Redis. A nil *Cache or a Cache without a client is a no-op.
type Cache struct {
	rc  *redis.Client
	ttl time.Duration
}

// NewCache wraps rc. rc may be nil.
func NewCache(rc *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache{rc: rc, ttl: ttl}
}

func (c *Cache) enabled() bool {
	return c != nil && c.rc != nil
}

// GetBytes returns cached bytes for key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			Logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return b, true
}

// SetJSON marshals v and stores it under key with the cache TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	if !c.enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) {
	if !c.enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // bounded number of rounds
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			Logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}

// Invalidate drops every key written by the post listings and statistics.
func (c *Cache) Invalidate(ctx context.Context) {
	c.InvalidateByPrefix(ctx, CachePopularPrefix)
	c.InvalidateByPrefix(ctx, CacheStatsKey)
}
