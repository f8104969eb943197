package redis

import (
	"context"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/portal-cidadao/repository"
)

type rateLimiter struct {
	client *redislib.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRateLimiter returns a fixed-window counter allowing limit hits per key
// per window.
func NewRateLimiter(client *redislib.Client, prefix string, limit int, window time.Duration) repository.RateLimiter {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &rateLimiter{
		client: client,
		prefix: prefix,
		limit:  int64(limit),
		window: window,
	}
}

func (l *rateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if l.limit <= 0 {
		return true, 0, nil
	}
	redisKey := l.prefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limiter: incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limiter: expire: %w", err)
		}
	}
	if count <= l.limit {
		return true, 0, nil
	}

	ttl, err := l.client.TTL(ctx, redisKey).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limiter: ttl: %w", err)
	}
	if ttl < 0 {
		// The counter lost its expiry; restore it so the key cannot block forever.
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
		ttl = l.window
	}
	return false, ttl, nil
}
