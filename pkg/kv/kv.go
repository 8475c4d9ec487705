package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Key is one item of a Keys page.
type Key struct {
	Meta map[string]string `json:"meta"`
	Name string            `json:"name"`
	// TTL is the absolute expiration as a unix timestamp in seconds, zero when the key never expires.
	TTL int64 `json:"ttl,omitempty"`
}

// KeysResult is a page of keys. Cursor is empty once Done is true.
type KeysResult struct {
	Cursor string `json:"cursor,omitempty"`
	Items  []Key  `json:"items"`
	Done   bool   `json:"done"`
}

// GetResult holds a decoded lookup. Data is nil when the key does not exist.
type GetResult struct {
	Meta map[string]string `json:"meta"`
	Data json.RawMessage   `json:"data"`
}

// Found reports whether the key existed.
func (r *GetResult) Found() bool {
	return r != nil && r.Data != nil
}

// KeysOption narrows a Keys call.
type KeysOption func(*ListOptions)

// WithLimit caps the number of keys in a page.
func WithLimit(n int) KeysOption {
	return func(o *ListOptions) {
		o.Limit = n
	}
}

// WithCursor continues listing from a previous page.
func WithCursor(cursor string) KeysOption {
	return func(o *ListOptions) {
		o.Cursor = cursor
	}
}

// SetOption configures a Set call.
type SetOption func(*PutOptions)

// WithTTL expires the value after d.
func WithTTL(d time.Duration) SetOption {
	return func(o *PutOptions) {
		o.TTL = d
	}
}

// WithMetadata attaches metadata returned alongside the value and in key listings.
func WithMetadata(meta map[string]string) SetOption {
	return func(o *PutOptions) {
		o.Metadata = meta
	}
}

// KV stores JSON values in a Store.
type KV struct {
	store Store
}

// New wraps a Store.
func New(store Store) *KV {
	return &KV{store: store}
}

// Store returns the underlying binding.
func (k *KV) Store() Store {
	return k.store
}

// Keys lists keys starting with prefix.
func (k *KV) Keys(ctx context.Context, prefix string, opts ...KeysOption) (*KeysResult, error) {
	lo := ListOptions{Prefix: prefix}
	for _, opt := range opts {
		opt(&lo)
	}

	page, err := k.store.List(ctx, lo)
	if err != nil {
		return nil, err
	}

	items := make([]Key, 0, len(page.Keys))
	for _, key := range page.Keys {
		item := Key{Name: key.Name, Meta: key.Metadata}
		if !key.ExpiresAt.IsZero() {
			item.TTL = key.ExpiresAt.Unix()
		}
		items = append(items, item)
	}

	if page.Complete {
		return &KeysResult{Items: items, Done: true}, nil
	}
	return &KeysResult{Items: items, Cursor: page.Cursor}, nil
}

// Get returns the raw JSON value and its metadata. A missing key is not an error.
func (k *KV) Get(ctx context.Context, key string) (*GetResult, error) {
	e, err := k.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return &GetResult{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &GetResult{Data: json.RawMessage(e.Value), Meta: e.Metadata}, nil
}

// GetInto decodes the value into dst and reports whether the key existed.
func (k *KV) GetInto(ctx context.Context, key string, dst any) (bool, error) {
	res, err := k.Get(ctx, key)
	if err != nil || !res.Found() {
		return false, err
	}
	if err := json.Unmarshal(res.Data, dst); err != nil {
		return true, errors.Join(ErrUnmarshal, err)
	}
	return true, nil
}

// Set JSON-encodes value and writes it. json.RawMessage values are stored as given.
func (k *KV) Set(ctx context.Context, key string, value any, opts ...SetOption) error {
	var po PutOptions
	for _, opt := range opts {
		opt(&po)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	return k.store.Put(ctx, key, data, po)
}

// Has reports whether the key exists.
func (k *KV) Has(ctx context.Context, key string) (bool, error) {
	res, err := k.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return res.Found(), nil
}

// Del removes the key.
func (k *KV) Del(ctx context.Context, key string) error {
	return k.store.Delete(ctx, key)
}
