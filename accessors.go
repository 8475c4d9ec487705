package edgekit

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/pkg/ai"
	"github.com/dmitrymomot/edgekit/pkg/cache"
	"github.com/dmitrymomot/edgekit/pkg/db"
	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/env"
	"github.com/dmitrymomot/edgekit/pkg/geo"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/ratelimit"
	"github.com/dmitrymomot/edgekit/pkg/session"
	"github.com/dmitrymomot/edgekit/pkg/storage"
)

// Accessors read the event scope from ctx. Outside a scope they return a
// *ContextError; when the binding is missing, a *ConfigError.

func KV(ctx context.Context) (*kv.KV, error) {
	c, err := internal.Scope(ctx, "kv")
	if err != nil {
		return nil, err
	}
	return c.KV()
}

// Cache is a read-through cache over the KV binding.
func Cache(ctx context.Context) (*cache.Cache, error) {
	c, err := internal.Scope(ctx, "cache")
	if err != nil {
		return nil, err
	}
	return c.Cache()
}

func FS(ctx context.Context) (*storage.FS, error) {
	c, err := internal.Scope(ctx, "fs")
	if err != nil {
		return nil, err
	}
	return c.FS()
}

func DB(ctx context.Context) (*db.DB, error) {
	c, err := internal.Scope(ctx, "db")
	if err != nil {
		return nil, err
	}
	return c.DB()
}

func ORM(ctx context.Context) (*gorm.DB, error) {
	c, err := internal.Scope(ctx, "orm")
	if err != nil {
		return nil, err
	}
	return c.ORM()
}

// Queue sends through the deferred hook; the event waits for the send.
func Queue(ctx context.Context) (*queue.Queue, error) {
	c, err := internal.Scope(ctx, "queue")
	if err != nil {
		return nil, err
	}
	return c.Queue()
}

func AI(ctx context.Context) (*ai.AI, error) {
	c, err := internal.Scope(ctx, "ai")
	if err != nil {
		return nil, err
	}
	return c.AI()
}

// Geo is only available while handling an HTTP request.
func Geo(ctx context.Context) (*geo.Geo, error) {
	c, err := internal.Scope(ctx, "geo")
	if err != nil {
		return nil, err
	}
	return c.Geo()
}

// Env never reports a missing binding.
func Env(ctx context.Context) (*env.Env, error) {
	c, err := internal.Scope(ctx, "env")
	if err != nil {
		return nil, err
	}
	return c.Env(), nil
}

func RateLimit(ctx context.Context) (*ratelimit.RateLimit, error) {
	c, err := internal.Scope(ctx, "rateLimit")
	if err != nil {
		return nil, err
	}
	return c.RateLimit()
}

func SessionStorage(ctx context.Context) (session.Storage, error) {
	c, err := internal.Scope(ctx, "sessionStorage")
	if err != nil {
		return nil, err
	}
	return c.SessionStorage()
}

// Session returns the session loaded by WithSessions.
func Session(ctx context.Context) (*session.Session, error) {
	return session.FromContext(ctx)
}

func Request(ctx context.Context) (*http.Request, error) {
	c, err := internal.Scope(ctx, "request")
	if err != nil {
		return nil, err
	}
	return c.Request()
}

func Headers(ctx context.Context) (http.Header, error) {
	c, err := internal.Scope(ctx, "headers")
	if err != nil {
		return nil, err
	}
	return c.Headers()
}

// Signal is closed when the request is aborted.
func Signal(ctx context.Context) (<-chan struct{}, error) {
	c, err := internal.Scope(ctx, "signal")
	if err != nil {
		return nil, err
	}
	return c.Signal()
}

// WaitUntil runs fn after the current call returns without letting request
// cancellation abort it. The event waits for fn before it completes.
// Failures are logged.
//
//	_ = edgekit.WaitUntil(ctx, func(ctx context.Context) error {
//	    return audit.Record(ctx, entry)
//	})
func WaitUntil(ctx context.Context, fn deferred.Func) error {
	c, err := internal.Scope(ctx, "waitUntil")
	if err != nil {
		return err
	}
	c.Go(fn)
	return nil
}
