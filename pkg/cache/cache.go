package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/kv"
)

const (
	// Prefix namespaces cache entries in the underlying store.
	Prefix = "cache"

	// DefaultTTL applies when a Fetch call does not pass WithTTL.
	DefaultTTL = 60 * time.Second
)

// ComputeFunc produces the value to cache on a miss. The result must be JSON-serializable.
type ComputeFunc func(ctx context.Context) (any, error)

// FetchOption configures a single Fetch call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	ttl time.Duration
}

// WithTTL sets how long a computed value stays cached. Non-positive values keep the default.
func WithTTL(d time.Duration) FetchOption {
	return func(o *fetchOptions) {
		if d > 0 {
			o.ttl = d
		}
	}
}

// Option configures a Cache.
type Option func(*Cache)

// WithDefaultTTL overrides DefaultTTL for this cache.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithGroup makes the cache collapse misses through g. Caches built per
// event share one group so concurrent events compute a key once.
func WithGroup(g *singleflight.Group) Option {
	return func(c *Cache) {
		if g != nil {
			c.group = g
		}
	}
}

// Cache is a read-through cache whose writes are deferred.
type Cache struct {
	kv       *kv.KV
	deferrer deferred.Deferrer
	group    *singleflight.Group
	ttl      time.Duration
}

// New creates a cache over store. Writes and purges are scheduled on d.
func New(store *kv.KV, d deferred.Deferrer, opts ...Option) *Cache {
	c := &Cache{kv: store, deferrer: d, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	if c.group == nil {
		c.group = new(singleflight.Group)
	}
	return c
}

// Key returns the namespaced store key for key.
func Key(key string) string {
	return Prefix + ":" + key
}

// Fetch returns the cached JSON for key, computing and caching it on a miss.
// The write happens after Fetch returns; a failed write is logged by the Deferrer
// and only costs a recompute next time.
func (c *Cache) Fetch(ctx context.Context, key string, compute ComputeFunc, opts ...FetchOption) (json.RawMessage, error) {
	if compute == nil {
		return nil, ErrNoCallback
	}

	fo := fetchOptions{ttl: c.ttl}
	for _, opt := range opts {
		opt(&fo)
	}

	nk := Key(key)
	res, err := c.kv.Get(ctx, nk)
	if err != nil {
		return nil, err
	}
	if res.Found() {
		return res.Data, nil
	}

	// concurrent misses on one key share a single compute and a single write
	v, err, _ := c.group.Do(nk, func() (any, error) {
		value, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, errors.Join(ErrMarshal, err)
		}

		raw := json.RawMessage(data)
		c.deferrer.Go(func(ctx context.Context) error {
			return c.kv.Set(ctx, nk, raw, kv.WithTTL(fo.ttl))
		})
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// Purge schedules removal of key.
func (c *Cache) Purge(_ context.Context, key string) {
	nk := Key(key)
	c.deferrer.Go(func(ctx context.Context) error {
		return c.kv.Del(ctx, nk)
	})
}

// Fetch is the typed form of Cache.Fetch.
func Fetch[T any](ctx context.Context, c *Cache, key string, compute func(ctx context.Context) (T, error), opts ...FetchOption) (T, error) {
	var zero T
	if compute == nil {
		return zero, ErrNoCallback
	}

	raw, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return compute(ctx)
	}, opts...)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, errors.Join(ErrUnmarshal, err)
	}
	return out, nil
}
