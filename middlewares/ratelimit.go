package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/pkg/logger"
	"github.com/dmitrymomot/edgekit/pkg/values"
)

// RateLimitKeyFunc picks the bucket a request is counted in.
type RateLimitKeyFunc func(r *http.Request) (string, error)

// ClientIPKey counts requests per client IP.
func ClientIPKey(r *http.Request) (string, error) {
	ip, err := values.IPFromRequest(r)
	if err != nil {
		return "", err
	}
	return "ip:" + ip.String(), nil
}

type RateLimitConfig struct {
	Key    RateLimitKeyFunc
	Logger *slog.Logger
}

type RateLimitOption func(*RateLimitConfig)

func WithRateLimitKey(fn RateLimitKeyFunc) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if fn != nil {
			cfg.Key = fn
		}
	}
}

func WithRateLimitLogger(l *slog.Logger) RateLimitOption {
	return func(cfg *RateLimitConfig) {
		if l != nil {
			cfg.Logger = l
		}
	}
}

// RateLimit counts each request with the scope's rate limiter and answers
// 429 Too Many Requests once the window is exhausted. X-RateLimit headers
// are set on every counted response. It must run inside the event scope;
// counter failures let the request through.
func RateLimit(opts ...RateLimitOption) func(http.Handler) http.Handler {
	cfg := &RateLimitConfig{Key: ClientIPKey, Logger: logger.NewNope()}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			c, err := internal.Scope(ctx, "rateLimit")
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			limiter, err := c.RateLimit()
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			key, err := cfg.Key(r)
			if err != nil {
				cfg.Logger.WarnContext(ctx, "rate limit key unavailable", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Limit(ctx, key)
			if err != nil {
				cfg.Logger.ErrorContext(ctx, "rate limit counter failed",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			res.WriteHeaders(w.Header())
			if !res.Success {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
