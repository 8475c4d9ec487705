package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
	"github.com/dmitrymomot/edgekit/pkg/kv"
)

const kvKeyPrefix = "ratelimit:"

type kvWindow struct {
	Count   int64 `json:"count"`
	ResetAt int64 `json:"reset"`
}

// KVCounter keeps windows in a kv.Store. Updates are read-modify-write
// with last write winning, so concurrent hits may be undercounted.
// When ctx carries a deferred hook the window write goes through it and
// Increment returns as soon as the new count is known.
type KVCounter struct {
	store kv.Store
	now   func() time.Time
}

// NewKVCounter creates a KV-backed counter.
func NewKVCounter(store kv.Store) *KVCounter {
	return &KVCounter{store: store, now: time.Now}
}

func (c *KVCounter) load(ctx context.Context, key string) (kvWindow, bool, error) {
	var w kvWindow
	e, err := c.store.Get(ctx, kvKeyPrefix+key)
	if errors.Is(err, kv.ErrNotFound) {
		return w, false, nil
	}
	if err != nil {
		return w, false, errors.Join(ErrCounterFailed, err)
	}
	if err := json.Unmarshal(e.Value, &w); err != nil {
		// a corrupt window starts over
		return kvWindow{}, false, nil
	}
	return w, true, nil
}

// Increment implements Counter.
func (c *KVCounter) Increment(ctx context.Context, key string, period time.Duration) (Window, error) {
	now := c.now()
	w, ok, err := c.load(ctx, key)
	if err != nil {
		return Window{}, err
	}
	if !ok || now.UnixMilli() >= w.ResetAt {
		w = kvWindow{ResetAt: now.Add(period).UnixMilli()}
	}
	w.Count++

	b, err := json.Marshal(w)
	if err != nil {
		return Window{}, errors.Join(ErrCounterFailed, err)
	}
	ttl := time.UnixMilli(w.ResetAt).Sub(now)
	put := func(ctx context.Context) error {
		if err := c.store.Put(ctx, kvKeyPrefix+key, b, kv.PutOptions{TTL: ttl}); err != nil {
			return errors.Join(ErrCounterFailed, err)
		}
		return nil
	}

	out := Window{Count: w.Count, ResetAt: time.UnixMilli(w.ResetAt)}
	if d, ok := deferred.FromContext(ctx); ok {
		d.Go(put)
		return out, nil
	}
	if err := put(ctx); err != nil {
		return Window{}, err
	}
	return out, nil
}

// Peek implements Counter.
func (c *KVCounter) Peek(ctx context.Context, key string) (Window, error) {
	w, ok, err := c.load(ctx, key)
	if err != nil || !ok || c.now().UnixMilli() >= w.ResetAt {
		return Window{}, err
	}
	return Window{Count: w.Count, ResetAt: time.UnixMilli(w.ResetAt)}, nil
}

// Reset implements Counter.
func (c *KVCounter) Reset(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, kvKeyPrefix+key); err != nil {
		return errors.Join(ErrCounterFailed, err)
	}
	return nil
}

var _ Counter = (*KVCounter)(nil)
