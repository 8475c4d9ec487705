package internal

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

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

// Event identifies what started a scope.
type Event string

const (
	EventFetch     Event = "fetch"
	EventScheduled Event = "scheduled"
	EventQueue     Event = "queue"
)

// Carrier holds the resources of one event. It is built once per event by
// App and not modified afterwards; wrappers are created eagerly because
// they are thin.
type Carrier struct {
	event    Event
	bindings *Bindings
	deferred *deferred.Group
	logger   *slog.Logger
	request  *http.Request
	env      *env.Env

	kv       *kv.KV
	cache    *cache.Cache
	fs       *storage.FS
	db       *db.DB
	orm      *gorm.DB
	queue    *queue.Queue
	ai       *ai.AI
	limiter  *ratelimit.RateLimit
	sessions session.Storage
	geo      *geo.Geo
	geoErr   error
}

// carrierSettings are the per-app knobs applied to every carrier.
type carrierSettings struct {
	cacheOpts     []cache.Option
	cacheGroup    *singleflight.Group
	rateLimitOpts []ratelimit.Option
	sessionOpts   []session.KVOption
	deferredOpts  []deferred.Option
}

// newCarrier builds the carrier for one event and returns the scoped
// context. Deferred work receives the same scope.
func newCarrier(ctx context.Context, ev Event, b *Bindings, r *http.Request, log *slog.Logger, s *carrierSettings) (context.Context, *Carrier) {
	c := &Carrier{
		event:    ev,
		bindings: b,
		logger:   log,
		request:  r,
		env:      env.New(b.Vars),
	}

	scoped := WithCarrier(ctx, c)
	if r != nil {
		// the stored request resolves the same scope as the handler's ctx
		c.request = r.WithContext(scoped)
	}
	c.deferred = deferred.New(scoped, append([]deferred.Option{deferred.WithLogger(log)}, s.deferredOpts...)...)

	if b.KV != nil {
		c.kv = kv.New(b.KV)
		c.cache = cache.New(c.kv, c, append([]cache.Option{cache.WithGroup(s.cacheGroup)}, s.cacheOpts...)...)
	}
	if b.FS != nil {
		c.fs = storage.New(b.FS)
	}
	if b.DB != nil {
		c.db = db.New(b.DB)
		c.orm = b.ORM
	}
	if b.Queue != nil {
		c.queue = queue.New(b.Queue, c)
	}
	if b.AI != nil {
		c.ai = ai.New(b.AI)
	}

	switch {
	case b.Counter != nil:
		c.limiter = ratelimit.New(b.Counter, s.rateLimitOpts...)
	case b.KV != nil:
		c.limiter = ratelimit.New(ratelimit.NewKVCounter(b.KV), s.rateLimitOpts...)
	}

	switch {
	case b.Sessions != nil:
		c.sessions = b.Sessions
	case c.kv != nil:
		c.sessions = session.NewKVStorage(c.kv, s.sessionOpts...)
	}

	if r != nil {
		c.geo, c.geoErr = geo.FromRequest(r)
	}

	return scoped, c
}

// Event reports what started the scope.
func (c *Carrier) Event() Event { return c.event }

// Bindings returns the capability set the carrier was built from.
func (c *Carrier) Bindings() *Bindings { return c.bindings }

// Go schedules fn on the event's deferred group. Carrier satisfies
// deferred.Deferrer so wrappers can defer through it.
func (c *Carrier) Go(fn deferred.Func) {
	c.deferred.Go(fn)
}

// Wait blocks until deferred work finishes or the ceiling elapses.
func (c *Carrier) Wait() error {
	return c.deferred.Wait()
}

// Pending returns the number of deferred functions still running.
func (c *Carrier) Pending() int {
	return c.deferred.Pending()
}

func (c *Carrier) KV() (*kv.KV, error) {
	if c.kv == nil {
		return nil, &ConfigError{Binding: BindingKV}
	}
	return c.kv, nil
}

// Cache shares the KV binding.
func (c *Carrier) Cache() (*cache.Cache, error) {
	if c.cache == nil {
		return nil, &ConfigError{Binding: BindingKV}
	}
	return c.cache, nil
}

func (c *Carrier) FS() (*storage.FS, error) {
	if c.fs == nil {
		return nil, &ConfigError{Binding: BindingFS}
	}
	return c.fs, nil
}

func (c *Carrier) DB() (*db.DB, error) {
	if c.db == nil {
		return nil, &ConfigError{Binding: BindingDB}
	}
	return c.db, nil
}

// ORM requires the DB binding; the gorm handle is opened over it at startup.
func (c *Carrier) ORM() (*gorm.DB, error) {
	if c.orm == nil {
		return nil, &ConfigError{Binding: BindingDB}
	}
	return c.orm, nil
}

func (c *Carrier) Queue() (*queue.Queue, error) {
	if c.queue == nil {
		return nil, &ConfigError{Binding: BindingQueue}
	}
	return c.queue, nil
}

func (c *Carrier) AI() (*ai.AI, error) {
	if c.ai == nil {
		return nil, &ConfigError{Binding: BindingAI}
	}
	return c.ai, nil
}

// RateLimit uses the configured counter, or a KV-backed one.
func (c *Carrier) RateLimit() (*ratelimit.RateLimit, error) {
	if c.limiter == nil {
		return nil, &ConfigError{Binding: BindingKV}
	}
	return c.limiter, nil
}

// SessionStorage uses the configured storage, or a KV-backed one.
func (c *Carrier) SessionStorage() (session.Storage, error) {
	if c.sessions == nil {
		return nil, &ConfigError{Binding: BindingKV}
	}
	return c.sessions, nil
}

// Env is available in every event.
func (c *Carrier) Env() *env.Env {
	return c.env
}

func (c *Carrier) Request() (*http.Request, error) {
	if c.request == nil {
		return nil, &ContextError{Accessor: "request"}
	}
	return c.request, nil
}

func (c *Carrier) Headers() (http.Header, error) {
	if c.request == nil {
		return nil, &ContextError{Accessor: "headers"}
	}
	return c.request.Header, nil
}

// Geo returns geo.ErrGeoUnavailable when the request carries no location headers.
func (c *Carrier) Geo() (*geo.Geo, error) {
	if c.request == nil {
		return nil, &ContextError{Accessor: "geo"}
	}
	return c.geo, c.geoErr
}

// Signal is closed when the client goes away or the server cancels the request.
func (c *Carrier) Signal() (<-chan struct{}, error) {
	if c.request == nil {
		return nil, &ContextError{Accessor: "signal"}
	}
	return c.request.Context().Done(), nil
}

var _ deferred.Deferrer = (*Carrier)(nil)
