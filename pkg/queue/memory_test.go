package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/queue"
)

type collector struct {
	mu      sync.Mutex
	batches []*queue.Batch
	seen    []*queue.Message
}

func (c *collector) add(b *queue.Batch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, b)
	c.seen = append(c.seen, b.Messages...)
}

func (c *collector) messages() []*queue.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*queue.Message(nil), c.seen...)
}

func startConsumer(t *testing.T, q *queue.Memory, h queue.Handler) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Consume(ctx, h) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
		_ = q.Close()
	})
}

func TestMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("delivers batches", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("emails", queue.WithMaxBatchWait(20*time.Millisecond))
		for _, body := range []string{`1`, `2`, `3`} {
			require.NoError(t, q.Send(ctx, []byte(body), queue.SendOptions{}))
		}

		c := &collector{}
		startConsumer(t, q, func(_ context.Context, b *queue.Batch) error {
			c.add(b)
			return nil
		})

		require.Eventually(t, func() bool { return len(c.messages()) == 3 }, time.Second, 5*time.Millisecond)
		msgs := c.messages()
		c.mu.Lock()
		require.Equal(t, "emails", c.batches[0].Queue)
		c.mu.Unlock()
		require.Equal(t, "1", string(msgs[0].Body))
		require.Equal(t, 1, msgs[0].Attempts)
		require.NotEmpty(t, msgs[0].ID)
		require.Equal(t, queue.ContentTypeJSON, msgs[0].ContentType)
	})

	t.Run("batch size caps delivery", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("q", queue.WithBatchSize(2), queue.WithMaxBatchWait(20*time.Millisecond))
		for range 5 {
			require.NoError(t, q.Send(ctx, []byte(`{}`), queue.SendOptions{}))
		}

		c := &collector{}
		startConsumer(t, q, func(_ context.Context, b *queue.Batch) error {
			c.add(b)
			return nil
		})

		require.Eventually(t, func() bool { return len(c.messages()) == 5 }, time.Second, 5*time.Millisecond)
		c.mu.Lock()
		defer c.mu.Unlock()
		for _, b := range c.batches {
			require.LessOrEqual(t, len(b.Messages), 2)
		}
	})

	t.Run("retries failed batches", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("q", queue.WithMaxBatchWait(10*time.Millisecond), queue.WithMaxRetries(5))
		require.NoError(t, q.Send(ctx, []byte(`{}`), queue.SendOptions{}))

		c := &collector{}
		startConsumer(t, q, func(_ context.Context, b *queue.Batch) error {
			c.add(b)
			if b.Messages[0].Attempts < 3 {
				return errors.New("not yet")
			}
			return nil
		})

		require.Eventually(t, func() bool { return len(c.messages()) == 3 }, time.Second, 5*time.Millisecond)
		msgs := c.messages()
		require.Equal(t, []int{1, 2, 3}, []int{msgs[0].Attempts, msgs[1].Attempts, msgs[2].Attempts})
		require.Equal(t, msgs[0].ID, msgs[2].ID)

		time.Sleep(30 * time.Millisecond)
		require.Len(t, c.messages(), 3)
	})

	t.Run("drops after max retries", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("q", queue.WithMaxBatchWait(10*time.Millisecond), queue.WithMaxRetries(2))
		require.NoError(t, q.Send(ctx, []byte(`{}`), queue.SendOptions{}))

		c := &collector{}
		startConsumer(t, q, func(_ context.Context, b *queue.Batch) error {
			c.add(b)
			b.RetryAll()
			return nil
		})

		require.Eventually(t, func() bool { return len(c.messages()) == 2 }, time.Second, 5*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		require.Len(t, c.messages(), 2)
	})

	t.Run("delayed send", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("q", queue.WithMaxBatchWait(5*time.Millisecond))
		require.NoError(t, q.Send(ctx, []byte(`{}`), queue.SendOptions{Delay: 50 * time.Millisecond}))
		require.Zero(t, q.Len())

		require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, 5*time.Millisecond)
	})

	t.Run("closed queue", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("q")
		require.NoError(t, q.Close())
		require.ErrorIs(t, q.Send(ctx, []byte(`{}`), queue.SendOptions{}), queue.ErrClosed)
		require.ErrorIs(t, q.Consume(ctx, func(context.Context, *queue.Batch) error { return nil }), queue.ErrClosed)
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		q := queue.NewMemory("q")
		require.ErrorIs(t, q.Send(ctx, nil, queue.SendOptions{}), queue.ErrEmptyBody)
	})
}
