package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow is a fixed-window counter shared across instances through a
// Redis INCR/EXPIRE pair. It satisfies the same Limiter contract as the
// in-memory window, so deployments can switch without touching call sites.
type RedisWindow struct {
	rdb    *redis.Client
	prefix string
	max    int
	window time.Duration
}

func NewRedisWindow(rdb *redis.Client, prefix string, max int, window time.Duration) *RedisWindow {
	return &RedisWindow{rdb: rdb, prefix: prefix, max: max, window: window}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limiter incr: %w", err)
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limiter expire: %w", err)
		}
	}

	if count > int64(l.max) {
		ttl, err := l.rdb.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return Result{Allowed: false, RetryAfter: ttl}, nil
	}
	return Result{Allowed: true, Remaining: l.max - int(count)}, nil
}
