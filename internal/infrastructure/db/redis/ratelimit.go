package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

const rateLimitKeyPrefix = "ratelimit:"

// allowScript prunes entries older than the window, rejects when the key is at
// its limit, otherwise records the request and refreshes the key TTL. Running
// as one script keeps check-and-record atomic across concurrent clients.
var allowScript = redis.NewScript(`
local key    = KEYS[1]
local now    = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit  = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return 1
`)

// SlidingWindowLimiter is a Redis-backed sliding-window rate limiter, shared
// across every instance of the service. Each key holds a sorted set of request
// timestamps that expires with the window, so stale clients cost nothing.
type SlidingWindowLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewSlidingWindowLimiter builds a limiter admitting up to limit requests per
// key per window.
func NewSlidingWindowLimiter(client redis.Scripter, limit int, window time.Duration) *SlidingWindowLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &SlidingWindowLimiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow admits and records the request, or returns domain.ErrRateLimited when
// the key has exhausted its window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) error {
	now := l.now()
	res, err := allowScript.Run(ctx, l.client,
		[]string{rateLimitKeyPrefix + key},
		now.UnixMilli(),
		l.window.Milliseconds(),
		l.limit,
		strconv.FormatInt(now.UnixNano(), 10),
	).Int()
	if err != nil {
		return fmt.Errorf("rate limit check: %w", err)
	}
	if res == 0 {
		return domain.ErrRateLimited
	}
	return nil
}
