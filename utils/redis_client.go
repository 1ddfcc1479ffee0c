package utils

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amaforum/ama/config"
)

// NewRedis returns a Redis client built from cfg, or nil when Redis is disabled.
// An unreachable server is reported but the client is still returned so callers can retry later.
func NewRedis(cfg config.AppConfig) (*redis.Client, error) {
	if !cfg.RedisEnabled {
		return nil, nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		return rc, fmt.Errorf("redis ping %s: %w", rc.Options().Addr, err)
	}
	return rc, nil
}
