package kv

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fieldValue = "v"
	fieldMeta  = "m"
)

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithPrefix namespaces every key as "{prefix}:{key}" so several stores can share one Redis.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// Redis is a Store backed by Redis hashes: field "v" holds the value, field "m" the JSON metadata.
// Expiration uses native key TTLs.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis-backed store.
// The client is usually obtained from pkg/redis.Connect; its lifecycle stays with the caller.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		fields *redis.MapStringStringCmd
		ttl    *redis.DurationCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		fields = p.HGetAll(ctx, r.key(key))
		ttl = p.PTTL(ctx, r.key(key))
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := fields.Val()
	raw, ok := m[fieldValue]
	if !ok {
		return nil, ErrNotFound
	}

	meta, err := decodeMeta(m[fieldMeta])
	if err != nil {
		return nil, err
	}

	return &Entry{
		Value:     []byte(raw),
		Metadata:  meta,
		ExpiresAt: expiresAt(ttl.Val()),
	}, nil
}

// Put implements Store. The write is atomic: stale metadata and TTL never survive an overwrite.
func (r *Redis) Put(ctx context.Context, key string, value []byte, opts PutOptions) error {
	if key == "" {
		return ErrEmptyKey
	}

	meta, err := encodeMeta(opts.Metadata)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		k := r.key(key)
		p.Del(ctx, k)
		p.HSet(ctx, k, fieldValue, value, fieldMeta, meta)
		if opts.TTL > 0 {
			p.PExpire(ctx, k, opts.TTL)
		}
		return nil
	})
	return err
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// List implements Store using SCAN. The cursor is the Redis scan cursor;
// Limit is passed as the COUNT hint, so a page may hold more or fewer keys.
func (r *Redis) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	var cursor uint64
	if opts.Cursor != "" {
		c, err := strconv.ParseUint(opts.Cursor, 10, 64)
		if err != nil {
			return nil, ErrInvalidCursor
		}
		cursor = c
	}

	pattern := r.key(escapeGlob(opts.Prefix)) + "*"
	keys, next, err := r.client.Scan(ctx, cursor, pattern, int64(listLimit(opts.Limit))).Result()
	if err != nil {
		return nil, err
	}

	res := &ListResult{Complete: next == 0}
	if next != 0 {
		res.Cursor = strconv.FormatUint(next, 10)
	}
	if len(keys) == 0 {
		return res, nil
	}

	metas := make([]*redis.StringCmd, len(keys))
	ttls := make([]*redis.DurationCmd, len(keys))
	_, err = r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			metas[i] = p.HGet(ctx, k, fieldMeta)
			ttls[i] = p.PTTL(ctx, k)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	for i, k := range keys {
		meta, err := decodeMeta(metas[i].Val())
		if err != nil {
			return nil, err
		}
		res.Keys = append(res.Keys, ListedKey{
			Name:      strings.TrimPrefix(k, r.key("")),
			Metadata:  meta,
			ExpiresAt: expiresAt(ttls[i].Val()),
		})
	}
	return res, nil
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// expiresAt converts a PTTL reply; negative values mean no TTL or missing key.
func expiresAt(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

func encodeMeta(m map[string]string) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", errors.Join(ErrMarshal, err)
	}
	return string(data), nil
}

func decodeMeta(s string) (map[string]string, error) {
	if s == "" {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	return m, nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}

var _ Store = (*Redis)(nil)
