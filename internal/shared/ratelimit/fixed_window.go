// Package ratelimit holds the Redis-backed limiter shared by all API replicas.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"smartdoc-backend/internal/shared/server/middleware"
)

var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return count
`)

// FixedWindow counts requests per key in fixed, wall-clock aligned windows.
type FixedWindow struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ middleware.Limiter = (*FixedWindow)(nil)

// NewFixedWindow connects a limiter to the Redis at addr.
func NewFixedWindow(addr, password, prefix string) (*FixedWindow, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "smartdoc:ratelimit"
	}
	return &FixedWindow{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
		now:    time.Now,
	}, nil
}

// Allow increments the key's counter for the current window. When the limit
// is exceeded it reports the time left until the window rolls over.
func (l *FixedWindow) Allow(ctx context.Context, key string, rule middleware.RateLimitRule) (bool, time.Duration, error) {
	if rule.Limit <= 0 || rule.Window <= 0 {
		return true, 0, nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := rule.Window.Milliseconds()
	if windowMs <= 0 {
		return true, 0, nil
	}
	nowMs := l.now().UTC().UnixMilli()
	slot := nowMs / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, slot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	count, err := fixedWindowScript.Run(ctx, l.client, []string{redisKey}, windowMs).Int64()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script: %w", err)
	}
	if count <= int64(rule.Limit) {
		return true, 0, nil
	}
	remaining := (slot+1)*windowMs - nowMs
	return false, time.Duration(remaining) * time.Millisecond, nil
}

// Close releases the Redis connection pool.
func (l *FixedWindow) Close() error {
	return l.client.Close()
}
