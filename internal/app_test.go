package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/pkg/job"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/task"
)

var fixedTime = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func scheduledCarrier(t *testing.T) *internal.Carrier {
	t.Helper()

	var seen *internal.Carrier
	app := internal.New(internal.WithTask(task.New("capture", func(ctx context.Context) error {
		seen, _ = internal.CarrierFrom(ctx)
		return nil
	}), nil))

	require.NoError(t, app.Scheduled(context.Background(), fixedTime))
	require.NotNil(t, seen)
	require.Equal(t, internal.EventScheduled, seen.Event())
	return seen
}

func TestApp_DeferredRunsAfterResponse(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var done atomic.Bool

	app := internal.New()
	h := app.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := internal.CarrierFrom(r.Context())
		c.Go(func(ctx context.Context) error {
			<-release
			if ctx.Err() != nil {
				return ctx.Err()
			}
			done.Store(true)
			return nil
		})
		_, _ = w.Write([]byte("ok"))
	}))

	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	cancel()

	require.Equal(t, "ok", rec.Body.String())
	require.False(t, done.Load())

	close(release)
	require.NoError(t, app.Drain(context.Background()))
	require.True(t, done.Load())
}

func TestApp_CacheMissesCollapseAcrossRequests(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	release := make(chan struct{})
	var calls atomic.Int32

	app := internal.New(internal.WithKV(store))
	h := app.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := internal.CarrierFrom(r.Context())
		ch, err := c.Cache()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		raw, err := ch.Fetch(r.Context(), "hot", func(context.Context) (any, error) {
			calls.Add(1)
			<-release
			return "v", nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(raw)
	}))

	recs := []*httptest.ResponseRecorder{httptest.NewRecorder(), httptest.NewRecorder()}
	var wg sync.WaitGroup
	for _, rec := range recs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	require.NoError(t, app.Drain(context.Background()))

	for _, rec := range recs {
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `"v"`, rec.Body.String())
	}
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 1, store.Len())
}

func TestApp_Scheduled(t *testing.T) {
	t.Parallel()

	var hourly, nightly atomic.Int32
	app := internal.New(
		internal.WithTask(task.New("hourly", func(context.Context) error {
			hourly.Add(1)
			return nil
		}), task.Every().Hourly()),
		internal.WithTask(task.New("nightly", func(context.Context) error {
			nightly.Add(1)
			return errors.New("logged, not returned")
		}), task.Every().DailyAt("03:30")),
	)
	require.Equal(t, 2, app.Tasks().Len())

	require.NoError(t, app.Scheduled(context.Background(), fixedTime))
	require.NoError(t, app.Scheduled(context.Background(), fixedTime.Add(time.Minute)))
	require.NoError(t, app.Scheduled(context.Background(), time.Date(2024, 3, 5, 3, 30, 0, 0, time.UTC)))

	require.Equal(t, int32(1), hourly.Load())
	require.Equal(t, int32(1), nightly.Load())
}

func TestApp_WithTaskPanicsOnBadSchedule(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		internal.New(internal.WithTask(task.New("bad", func(context.Context) error { return nil }), task.Every().DailyAt("25:99")))
	})
}

type greeting struct {
	Name string `json:"name"`
}

func TestApp_QueueBatch(t *testing.T) {
	t.Parallel()

	t.Run("jobs settle before return", func(t *testing.T) {
		t.Parallel()

		var greeted atomic.Value
		var failures atomic.Int32
		app := internal.New(
			internal.WithJobs(job.New("greet", func(_ context.Context, g greeting) error {
				greeted.Store(g.Name)
				return nil
			})),
			internal.WithJobErrorHandler(func(context.Context, error, *queue.Message) {
				failures.Add(1)
			}),
		)

		ok := queue.NewMessage("1", []byte(`{"job":"greet","name":"Ada"}`), fixedTime, 1)
		unknown := queue.NewMessage("2", []byte(`{"job":"nope"}`), fixedTime, 1)
		b := &queue.Batch{Queue: "jobs", Messages: []*queue.Message{ok, unknown}}

		require.NoError(t, app.QueueBatch(context.Background(), b))
		require.True(t, ok.Acked())
		require.False(t, unknown.Acked())
		require.Equal(t, "Ada", greeted.Load())
		require.Equal(t, int32(1), failures.Load())
	})

	t.Run("handler enqueue is flushed", func(t *testing.T) {
		t.Parallel()

		out := queue.NewMemory("out")
		t.Cleanup(func() { _ = out.Close() })

		app := internal.New(
			internal.WithQueue(out),
			internal.WithQueueHandler(func(ctx context.Context, b *queue.Batch) error {
				c, _ := internal.CarrierFrom(ctx)
				q, err := c.Queue()
				if err != nil {
					return err
				}
				for _, m := range b.Messages {
					if err := q.Enqueue(ctx, map[string]string{"copy": m.ID}); err != nil {
						return err
					}
					m.Ack()
				}
				return nil
			}),
		)

		b := &queue.Batch{Queue: "in", Messages: []*queue.Message{queue.NewMessage("a", []byte(`{}`), fixedTime, 1)}}
		require.NoError(t, app.QueueBatch(context.Background(), b))
		require.Equal(t, 1, out.Len())
		require.Equal(t, "out", app.Bindings().QueueName)
	})

	t.Run("no handler", func(t *testing.T) {
		t.Parallel()

		err := internal.New().QueueBatch(context.Background(), &queue.Batch{Queue: "q"})
		require.ErrorIs(t, err, internal.ErrNoQueueHandler)
	})
}

func TestApp_HealthChecks(t *testing.T) {
	t.Parallel()

	app := internal.New(internal.WithHealthChecks(
		internal.WithReadinessCheck("REDIS", func(context.Context) error { return errors.New("down") }),
	))

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_Run(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var hooked atomic.Bool

	app := internal.New(internal.WithQueue(queue.NewMemory("jobs")), internal.WithQueueHandler(func(context.Context, *queue.Batch) error {
		return nil
	}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Run(
			internal.WithContext(ctx),
			internal.Address("127.0.0.1:0"),
			internal.ShutdownTimeout(5*time.Second),
			internal.ShutdownHook(func(context.Context) error {
				hooked.Store(true)
				return nil
			}),
		)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	require.True(t, hooked.Load())
}
