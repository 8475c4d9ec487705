package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

const (
	DefaultLimit  = 100
	DefaultPeriod = 60 * time.Second
)

// Rate limit response headers.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
)

// Result describes the window after a call to Limit.
type Result struct {
	Reset     time.Time
	Limit     int
	Remaining int
	Success   bool
}

// Option configures a RateLimit.
type Option func(*RateLimit)

// WithLimit sets the number of hits allowed per period. Default: 100.
func WithLimit(n int) Option {
	return func(r *RateLimit) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithPeriod sets the window length. Default: 60s.
func WithPeriod(d time.Duration) Option {
	return func(r *RateLimit) {
		if d > 0 {
			r.period = d
		}
	}
}

// RateLimit counts hits per key in fixed windows.
type RateLimit struct {
	counter Counter
	period  time.Duration
	limit   int
}

// New creates a RateLimit over counter.
func New(counter Counter, opts ...Option) *RateLimit {
	r := &RateLimit{counter: counter, limit: DefaultLimit, period: DefaultPeriod}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Limit counts one hit for key and reports whether it is within the limit.
func (r *RateLimit) Limit(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	w, err := r.counter.Increment(ctx, key, r.period)
	if err != nil {
		return nil, err
	}
	return r.result(w), nil
}

// Peek reports the current window for key without counting a hit.
func (r *RateLimit) Peek(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}
	w, err := r.counter.Peek(ctx, key)
	if err != nil {
		return nil, err
	}
	if w.ResetAt.IsZero() {
		w.ResetAt = time.Now().Add(r.period)
	}
	return r.result(w), nil
}

// Reset clears the window for key.
func (r *RateLimit) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return r.counter.Reset(ctx, key)
}

// WriteHTTPMetadata sets the X-RateLimit headers for key on h without
// counting a hit. Reset is sent as a Unix timestamp in seconds.
func (r *RateLimit) WriteHTTPMetadata(ctx context.Context, key string, h http.Header) error {
	res, err := r.Peek(ctx, key)
	if err != nil {
		return err
	}
	res.WriteHeaders(h)
	return nil
}

// WriteHeaders sets the X-RateLimit headers from res.
func (res *Result) WriteHeaders(h http.Header) {
	h.Set(HeaderLimit, strconv.Itoa(res.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(res.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(res.Reset.Unix(), 10))
}

func (r *RateLimit) result(w Window) *Result {
	remaining := max(int64(r.limit)-w.Count, 0)
	return &Result{
		Success:   w.Count <= int64(r.limit),
		Limit:     r.limit,
		Remaining: int(remaining),
		Reset:     w.ResetAt,
	}
}
