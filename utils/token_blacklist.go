package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const blacklistPrefix = "jwt:blacklist:"

// TokenBlacklist records revoked session tokens until they expire.
// Redis is used when available; otherwise entries are kept in memory.
type TokenBlacklist struct {
	rc *redis.Client

	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewTokenBlacklist creates a blacklist. rc may be nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, entries: map[string]time.Time{}}
}

// Revoke stores token until expiresAt. Already expired tokens are ignored.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if token == "" || ttl <= 0 {
		return
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		err := b.rc.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
		if err == nil {
			return
		}
		Logger.Warn("redis blacklist write failed, keeping token in memory", zap.Error(err))
	}
	b.mu.Lock()
	b.entries[token] = expiresAt
	b.mu.Unlock()
}

// IsRevoked reports whether token was revoked before its natural expiry.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistPrefix+token).Result()
		if err == nil && n > 0 {
			return true
		}
	}

	b.mu.RLock()
	expiresAt, ok := b.entries[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false
	}
	return true
}
