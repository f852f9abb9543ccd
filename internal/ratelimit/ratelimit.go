package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is the interface punch endpoints rate-limit through.
// The abstraction allows swapping the in-memory implementation for a
// distributed one without touching the handlers.
type Limiter interface {
	// Allow checks if a request from the given key (user ID, IP) is allowed
	Allow(ctx context.Context, key string) bool
}

// InMemoryLimiter implements per-key token buckets. Suitable for
// single-instance deployments.
type InMemoryLimiter struct {
	rate  rate.Limit // requests per second
	burst int

	limiters   sync.Map // map[string]*rate.Limiter
	lastAccess sync.Map // map[string]time.Time

	cleanupInterval time.Duration
	maxAge          time.Duration
	stopCleanup     chan struct{}
}

// NewInMemoryLimiter creates a limiter allowing rps requests per second with
// the given burst per key. A background goroutine evicts idle buckets.
func NewInMemoryLimiter(rps float64, burst int) *InMemoryLimiter {
	l := &InMemoryLimiter{
		rate:            rate.Limit(rps),
		burst:           burst,
		cleanupInterval: 5 * time.Minute,
		maxAge:          10 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go l.cleanup()

	return l
}

// Allow checks if a single request is allowed
func (l *InMemoryLimiter) Allow(ctx context.Context, key string) bool {
	limiter := l.getLimiter(key)
	l.lastAccess.Store(key, time.Now().UTC())
	return limiter.Allow()
}

// getLimiter gets or creates a rate limiter for the given key
func (l *InMemoryLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, exists := l.limiters.Load(key); exists {
		return limiter.(*rate.Limiter)
	}

	limiter := rate.NewLimiter(l.rate, l.burst)

	// May race with another goroutine; first store wins.
	actual, loaded := l.limiters.LoadOrStore(key, limiter)
	if loaded {
		return actual.(*rate.Limiter)
	}

	l.lastAccess.Store(key, time.Now().UTC())
	return limiter
}

// cleanup periodically removes idle limiters to prevent memory leaks
func (l *InMemoryLimiter) cleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopCleanup:
			return
		}
	}
}

func (l *InMemoryLimiter) evictIdle() {
	cutoff := time.Now().UTC().Add(-l.maxAge)
	var stale []string

	l.lastAccess.Range(func(key, value interface{}) bool {
		if value.(time.Time).Before(cutoff) {
			stale = append(stale, key.(string))
		}
		return true
	})

	for _, key := range stale {
		l.limiters.Delete(key)
		l.lastAccess.Delete(key)
	}
}

// Stop stops the cleanup goroutine
func (l *InMemoryLimiter) Stop() {
	close(l.stopCleanup)
}
