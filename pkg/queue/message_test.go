package queue_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/queue"
)

func newBatch(n int) *queue.Batch {
	b := &queue.Batch{Queue: "test"}
	for i := range n {
		b.Messages = append(b.Messages, queue.NewMessage(string(rune('a'+i)), []byte(`{}`), time.Now(), 1))
	}
	return b
}

func TestMessage(t *testing.T) {
	t.Parallel()

	t.Run("first settlement wins", func(t *testing.T) {
		t.Parallel()

		m := queue.NewMessage("1", []byte(`{}`), time.Now(), 1)
		m.Ack()
		m.Retry()
		require.True(t, m.Acked())
		require.False(t, m.Retried())

		m = queue.NewMessage("2", []byte(`{}`), time.Now(), 1)
		m.Retry(queue.WithRetryDelay(time.Minute))
		m.Ack()
		require.True(t, m.Retried())
		require.Equal(t, time.Minute, m.RetryDelay())
	})

	t.Run("decode", func(t *testing.T) {
		t.Parallel()

		m := queue.NewMessage("1", []byte(`{"n":3}`), time.Now(), 1)
		var v struct{ N int }
		require.NoError(t, m.Decode(&v))
		require.Equal(t, 3, v.N)
	})
}

func TestBatch_Settle(t *testing.T) {
	t.Parallel()

	t.Run("success acks unsettled", func(t *testing.T) {
		t.Parallel()

		b := newBatch(3)
		b.Messages[1].Retry()

		acked, retried := b.Settle(nil)
		require.Len(t, acked, 2)
		require.Len(t, retried, 1)
		require.Equal(t, "b", retried[0].ID)
	})

	t.Run("failure retries unsettled", func(t *testing.T) {
		t.Parallel()

		b := newBatch(3)
		b.Messages[0].Ack()

		acked, retried := b.Settle(errors.New("boom"))
		require.Len(t, acked, 1)
		require.Equal(t, "a", acked[0].ID)
		require.Len(t, retried, 2)
	})

	t.Run("ack all and retry all", func(t *testing.T) {
		t.Parallel()

		b := newBatch(2)
		b.AckAll()
		b.RetryAll()
		for _, m := range b.Messages {
			require.True(t, m.Acked())
		}
	})
}
