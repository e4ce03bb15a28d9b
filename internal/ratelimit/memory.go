package ratelimit

import (
	"context"
	"sync"
	"time"
)

type counter struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is the single-instance Limiter. Counters live in a map keyed
// by window index and caller; expired entries are swept at most once a minute.
type MemoryLimiter struct {
	mu        sync.Mutex
	windows   []Window
	counters  map[memKey]*counter
	lastSweep time.Time
	now       func() time.Time
}

type memKey struct {
	window int
	key    string
}

// NewMemoryLimiter returns an in-process Limiter.
func NewMemoryLimiter(windows []Window) *MemoryLimiter {
	return &MemoryLimiter{
		windows:  windows,
		counters: make(map[memKey]*counter),
		now:      time.Now,
	}
}

// Allow counts a hit against every window for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	for i, w := range l.windows {
		k := memKey{window: i, key: key}
		c, ok := l.counters[k]
		if !ok || !now.Before(c.resetAt) {
			c = &counter{resetAt: now.Add(w.Period)}
			l.counters[k] = c
		}
		c.count++

		if c.count > w.Limit {
			return Decision{Allowed: false, Breached: w, RetryAfter: c.resetAt.Sub(now)}, nil
		}
	}
	return Decision{Allowed: true}, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for k, c := range l.counters {
		if !now.Before(c.resetAt) {
			delete(l.counters, k)
		}
	}
}
