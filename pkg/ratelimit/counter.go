package ratelimit

import (
	"context"
	"time"
)

// Window is the state of one fixed window.
type Window struct {
	ResetAt time.Time
	Count   int64
}

// Counter stores fixed-window hit counts. Implementations must be safe for
// concurrent use.
type Counter interface {
	// Increment adds one hit to key. A window that has expired, or none at
	// all, is restarted with a length of period.
	Increment(ctx context.Context, key string, period time.Duration) (Window, error)
	// Peek returns the current window without counting a hit. A missing
	// window has Count 0 and a zero ResetAt.
	Peek(ctx context.Context, key string) (Window, error)
	Reset(ctx context.Context, key string) error
}
