package middlewares

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

type TimeoutConfig struct {
	OnTimeout func(w http.ResponseWriter, r *http.Request, err *TimeoutError)
	Timeout   time.Duration
}

type TimeoutOption func(*TimeoutConfig)

// WithTimeoutHandler replaces the default 504 response.
func WithTimeoutHandler(fn func(w http.ResponseWriter, r *http.Request, err *TimeoutError)) TimeoutOption {
	return func(cfg *TimeoutConfig) {
		cfg.OnTimeout = fn
	}
}

// Timeout sets a deadline on the request context. Handlers observe it
// through r.Context() or edgekit.Signal. When the deadline passed and the
// handler wrote nothing, the client gets 504 Gateway Timeout.
//
// Deferred work is not affected: it runs on a context detached from the
// request.
func Timeout(timeout time.Duration, opts ...TimeoutOption) func(http.Handler) http.Handler {
	cfg := &TimeoutConfig{Timeout: timeout, OnTimeout: defaultTimeoutResponse}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if errors.Is(ctx.Err(), context.DeadlineExceeded) && cfg.OnTimeout != nil {
				cfg.OnTimeout(w, r, &TimeoutError{Duration: cfg.Timeout})
			}
		})
	}
}

func defaultTimeoutResponse(w http.ResponseWriter, _ *http.Request, _ *TimeoutError) {
	if ww, ok := w.(written); ok && ww.Written() {
		return
	}
	http.Error(w, http.StatusText(http.StatusGatewayTimeout), http.StatusGatewayTimeout)
}
