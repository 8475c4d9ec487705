package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter keeps windows in Redis using INCR and PEXPIRE NX, so hits
// from many processes are counted atomically.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a RedisCounter.
type RedisOption func(*RedisCounter)

// WithRedisPrefix sets the key prefix. Default: "ratelimit:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisCounter) {
		c.prefix = prefix
	}
}

// NewRedisCounter creates a Redis-backed counter.
func NewRedisCounter(client redis.UniversalClient, opts ...RedisOption) *RedisCounter {
	c := &RedisCounter{client: client, prefix: kvKeyPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Increment implements Counter.
func (c *RedisCounter) Increment(ctx context.Context, key string, period time.Duration) (Window, error) {
	k := c.prefix + key
	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.PExpireNX(ctx, k, period)
		pttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Window{}, errors.Join(ErrCounterFailed, err)
	}

	ttl := pttl.Val()
	if ttl <= 0 {
		ttl = period
	}
	return Window{Count: incr.Val(), ResetAt: time.Now().Add(ttl)}, nil
}

// Peek implements Counter.
func (c *RedisCounter) Peek(ctx context.Context, key string) (Window, error) {
	k := c.prefix + key
	var (
		get  *redis.StringCmd
		pttl *redis.DurationCmd
	)
	_, err := c.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, k)
		pttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Window{}, errors.Join(ErrCounterFailed, err)
	}
	n, err := get.Int64()
	if errors.Is(err, redis.Nil) {
		return Window{}, nil
	}
	if err != nil {
		return Window{}, errors.Join(ErrCounterFailed, err)
	}
	w := Window{Count: n}
	if ttl := pttl.Val(); ttl > 0 {
		w.ResetAt = time.Now().Add(ttl)
	}
	return w, nil
}

// Reset implements Counter.
func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return errors.Join(ErrCounterFailed, err)
	}
	return nil
}

var _ Counter = (*RedisCounter)(nil)
