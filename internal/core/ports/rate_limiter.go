package ports

import "context"

// RateLimiter throttles requests per client identifier using a sliding window.
type RateLimiter interface {
	// Allow admits the request and records it, or returns
	// domain.ErrRateLimited when the key has exhausted its window.
	Allow(ctx context.Context, key string) error
}
