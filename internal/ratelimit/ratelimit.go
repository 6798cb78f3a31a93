package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles how often a single chat user may trigger an acquisition.
type Limiter interface {
	Allow(userID int64) bool
}

// InMemoryLimiter keeps one token bucket per user id. Buckets are created on
// first use and never expire; the map is bounded by the bot's actual
// audience.
type InMemoryLimiter struct {
	mu      sync.Mutex
	buckets map[int64]*rate.Limiter
	refill  rate.Limit
	burst   int
}

// NewInMemoryLimiter allows requests actions per interval, with burst
// commands permitted back to back. Non-positive arguments are clamped to a
// one-per-second, single-slot bucket.
func NewInMemoryLimiter(requests int, per time.Duration, burst int) *InMemoryLimiter {
	if requests <= 0 {
		requests = 1
	}
	if per <= 0 {
		per = time.Second
	}
	if burst <= 0 {
		burst = 1
	}
	return &InMemoryLimiter{
		buckets: make(map[int64]*rate.Limiter),
		refill:  rate.Every(per / time.Duration(requests)),
		burst:   burst,
	}
}

var _ Limiter = (*InMemoryLimiter)(nil)

// Allow reports whether the user may run another command right now.
func (l *InMemoryLimiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[userID]
	if !ok {
		bucket = rate.NewLimiter(l.refill, l.burst)
		l.buckets[userID] = bucket
	}
	return bucket.Allow()
}
