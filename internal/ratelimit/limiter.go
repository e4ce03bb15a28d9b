// Package ratelimit implements fixed-window request limits per caller. Two
// backends share the Limiter interface: Redis, for deployments with more than
// one instance, and an in-process map for a single instance.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Window is one limit: at most Limit requests per Period.
type Window struct {
	Limit  int
	Period time.Duration
}

// String renders the window for logs, e.g.
// "50 per 1 hour".
func (w Window) String() string {
	switch {
	case w.Period%(24*time.Hour) == 0:
		return fmt.Sprintf("%d per %d day", w.Limit, w.Period/(24*time.Hour))
	case w.Period%time.Hour == 0:
		return fmt.Sprintf("%d per %d hour", w.Limit, w.Period/time.Hour)
	case w.Period%time.Minute == 0:
		return fmt.Sprintf("%d per %d minute", w.Limit, w.Period/time.Minute)
	default:
		return fmt.Sprintf("%d per %s", w.Limit, w.Period)
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed bool

	// Breached and RetryAfter are set only when Allowed is false.
	Breached   Window
	RetryAfter time.Duration
}

// Limiter counts a request against every window for key.
type Limiter interface {
	// Allow records one hit for key. Implementations must be safe for
	// concurrent use. A non-nil error means the backend could not be
	// consulted; the Decision is then meaningless.
	Allow(ctx context.Context, key string) (Decision, error)
}
