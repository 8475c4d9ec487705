package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/edgekit/pkg/logger"
)

// StorageResolver returns the storage for a request. It lets the middleware
// pick up a per-request storage instead of a fixed one.
type StorageResolver func(ctx context.Context) (Storage, error)

// Static resolves to the same storage for every request.
func Static(s Storage) StorageResolver {
	return func(context.Context) (Storage, error) {
		return s, nil
	}
}

// Option configures the session middleware.
type Option func(*middleware)

// WithCookieName sets the name of the session cookie.
func WithCookieName(name string) Option {
	return func(m *middleware) {
		m.codec.name = name
	}
}

// WithSecret signs the session cookie with HMAC-SHA256. The secret must be at least 32 bytes.
func WithSecret(secret string) Option {
	return func(m *middleware) {
		if len(secret) < 32 {
			m.err = ErrShortSecret
			return
		}
		m.codec.secret = []byte(secret)
	}
}

// WithCookieMaxAge sets the cookie lifetime. Zero makes it a browser-session cookie.
func WithCookieMaxAge(d time.Duration) Option {
	return func(m *middleware) {
		m.codec.maxAge = d
	}
}

// WithSecure marks the cookie Secure.
func WithSecure(secure bool) Option {
	return func(m *middleware) {
		m.codec.secure = secure
	}
}

// WithDomain scopes the cookie to a domain.
func WithDomain(domain string) Option {
	return func(m *middleware) {
		m.codec.domain = domain
	}
}

// WithSameSite sets the SameSite attribute. Default: Lax.
func WithSameSite(ss http.SameSite) Option {
	return func(m *middleware) {
		m.codec.sameSite = ss
	}
}

// WithLogger sets the logger for save failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *middleware) {
		if l != nil {
			m.logger = l
		}
	}
}

type middleware struct {
	resolve StorageResolver
	logger  *slog.Logger
	err     error
	codec   cookieCodec
}

type contextKey struct{}

type handle struct {
	storage   Storage
	session   *Session
	destroyed bool
}

// Middleware loads the session named by the cookie, exposes it through FromContext
// and saves it after the handler when it is dirty.
//
// The cookie is written before the handler runs, so handlers may stream responses freely.
// A cookie that fails signature verification starts a fresh session.
func Middleware(resolve StorageResolver, opts ...Option) (func(http.Handler) http.Handler, error) {
	m := &middleware{
		resolve: resolve,
		logger:  logger.NewNope(),
		codec: cookieCodec{
			name:     DefaultCookieName,
			path:     "/",
			sameSite: http.SameSiteLaxMode,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.wrap, nil
}

func (m *middleware) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		storage, err := m.resolve(ctx)
		if err != nil {
			m.logger.ErrorContext(ctx, "session storage unavailable", slog.String("error", err.Error()))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		id, err := m.codec.read(r)
		if err != nil {
			if errors.Is(err, ErrBadSignature) {
				m.logger.WarnContext(ctx, "discarding tampered session cookie")
			}
			id = ""
		}

		s, err := storage.Read(ctx, id)
		if err != nil {
			m.logger.ErrorContext(ctx, "session read failed", slog.String("error", err.Error()))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		m.codec.write(w, s.ID())

		h := &handle{storage: storage, session: s}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKey{}, h)))

		if h.destroyed || !s.IsDirty() {
			return
		}
		if err := storage.Save(context.WithoutCancel(ctx), s); err != nil {
			m.logger.ErrorContext(ctx, "session save failed",
				slog.String("session_id", s.ID()),
				slog.String("error", err.Error()),
			)
		}
	})
}

// FromContext returns the session loaded by Middleware.
func FromContext(ctx context.Context) (*Session, error) {
	h, ok := ctx.Value(contextKey{}).(*handle)
	if !ok {
		return nil, ErrNoSession
	}
	return h.session, nil
}

// Destroy deletes the current session from storage and skips the automatic save.
// The cookie keeps pointing at the deleted id, which reads back as an empty session.
func Destroy(ctx context.Context) error {
	h, ok := ctx.Value(contextKey{}).(*handle)
	if !ok {
		return ErrNoSession
	}
	h.destroyed = true
	return h.storage.Destroy(ctx, h.session)
}
