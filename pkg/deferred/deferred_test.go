package deferred_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/deferred"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	t.Run("waits for all scheduled work", func(t *testing.T) {
		t.Parallel()

		g := deferred.New(context.Background())
		var n atomic.Int32
		for range 5 {
			g.Go(func(context.Context) error {
				time.Sleep(10 * time.Millisecond)
				n.Add(1)
				return nil
			})
		}

		require.NoError(t, g.Wait())
		require.Equal(t, int32(5), n.Load())
		require.Equal(t, 0, g.Pending())
	})

	t.Run("failures are counted not returned", func(t *testing.T) {
		t.Parallel()

		g := deferred.New(context.Background())
		g.Go(func(context.Context) error { return errors.New("boom") })
		g.Go(func(context.Context) error { panic("kaboom") })
		g.Go(func(context.Context) error { return nil })

		require.NoError(t, g.Wait())
		require.Equal(t, 2, g.Failed())
	})

	t.Run("work ignores event cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		g := deferred.New(ctx)
		cancel()

		var ctxErr atomic.Value
		g.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				ctxErr.Store(err)
			}
			return nil
		})

		require.NoError(t, g.Wait())
		require.Nil(t, ctxErr.Load())
	})

	t.Run("wait gives up after ceiling", func(t *testing.T) {
		t.Parallel()

		g := deferred.New(context.Background(), deferred.WithTimeout(20*time.Millisecond))
		release := make(chan struct{})
		g.Go(func(context.Context) error {
			<-release
			return nil
		})

		err := g.Wait()
		require.ErrorIs(t, err, deferred.ErrTimeout)
		require.Equal(t, 1, g.Pending())
		close(release)
	})

	t.Run("nil function is ignored", func(t *testing.T) {
		t.Parallel()

		g := deferred.New(context.Background())
		g.Go(nil)
		require.NoError(t, g.Wait())
		require.Equal(t, 0, g.Pending())
	})
}

func TestInline(t *testing.T) {
	t.Parallel()

	var ran bool
	deferred.Inline{}.Go(func(context.Context) error {
		ran = true
		return errors.New("ignored")
	})
	require.True(t, ran)
}

func TestContext(t *testing.T) {
	t.Parallel()

	_, ok := deferred.FromContext(context.Background())
	require.False(t, ok)

	g := deferred.New(context.Background())
	d, ok := deferred.FromContext(deferred.NewContext(context.Background(), g))
	require.True(t, ok)
	require.Same(t, g, d)
}
