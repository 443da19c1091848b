// Package ratelimit implements an in-process sliding-window rate limiter with
// sharded locking, used to guard the auth endpoints against brute force.
package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/oceanauth/auth-api/internal/core/domain"
)

const defaultShards = 16

// SlidingWindow tracks request timestamps per client key and rejects a request
// once the key has reached its limit within the trailing window. Keys whose
// window has fully drained are evicted, so the key set stays bounded by the
// set of recently active clients.
type SlidingWindow struct {
	limit  int
	window time.Duration
	shards []*shard
	now    func() time.Time
}

type shard struct {
	mu   sync.Mutex
	keys map[string][]time.Time
}

// NewSlidingWindow builds a limiter admitting up to limit requests per key per
// window.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &SlidingWindow{
		limit:  limit,
		window: window,
		shards: make([]*shard, defaultShards),
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard{keys: make(map[string][]time.Time)}
	}
	return l
}

// Allow admits and records the request, or returns domain.ErrRateLimited when
// the key has exhausted its window. Checks for the same key are serialized by
// the shard mutex; different keys contend only when they hash to one shard.
func (l *SlidingWindow) Allow(_ context.Context, key string) error {
	now := l.now()
	cutoff := now.Add(-l.window)

	s := l.shards[shardIndex(key, len(l.shards))]
	s.mu.Lock()
	defer s.mu.Unlock()

	stamps := s.keys[key]
	live := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			live = append(live, ts)
		}
	}

	if len(live) >= l.limit {
		s.keys[key] = live
		return domain.ErrRateLimited
	}

	s.keys[key] = append(live, now)
	return nil
}

// Prune drops every key whose window has fully drained. Allow prunes a key's
// timestamps on each access; Prune sweeps the map entries of clients that
// never came back, keeping memory bounded over the process lifetime.
func (l *SlidingWindow) Prune() {
	cutoff := l.now().Add(-l.window)
	for _, s := range l.shards {
		s.mu.Lock()
		for key, stamps := range s.keys {
			stale := true
			for _, ts := range stamps {
				if ts.After(cutoff) {
					stale = false
					break
				}
			}
			if stale {
				delete(s.keys, key)
			}
		}
		s.mu.Unlock()
	}
}

func shardIndex(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % n
}
