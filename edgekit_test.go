package edgekit_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/queue"
	"github.com/dmitrymomot/edgekit/pkg/storage"
)

func TestAccessors_OutsideScope(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cases := map[string]func() error{
		"kv":             func() error { _, err := edgekit.KV(ctx); return err },
		"cache":          func() error { _, err := edgekit.Cache(ctx); return err },
		"fs":             func() error { _, err := edgekit.FS(ctx); return err },
		"db":             func() error { _, err := edgekit.DB(ctx); return err },
		"orm":            func() error { _, err := edgekit.ORM(ctx); return err },
		"queue":          func() error { _, err := edgekit.Queue(ctx); return err },
		"ai":             func() error { _, err := edgekit.AI(ctx); return err },
		"geo":            func() error { _, err := edgekit.Geo(ctx); return err },
		"env":            func() error { _, err := edgekit.Env(ctx); return err },
		"rateLimit":      func() error { _, err := edgekit.RateLimit(ctx); return err },
		"sessionStorage": func() error { _, err := edgekit.SessionStorage(ctx); return err },
		"request":        func() error { _, err := edgekit.Request(ctx); return err },
		"headers":        func() error { _, err := edgekit.Headers(ctx); return err },
		"signal":         func() error { _, err := edgekit.Signal(ctx); return err },
		"waitUntil":      func() error { return edgekit.WaitUntil(ctx, nil) },
	}

	for accessor, call := range cases {
		t.Run(accessor, func(t *testing.T) {
			t.Parallel()

			err := call()
			var ctxErr *edgekit.ContextError
			require.True(t, errors.As(err, &ctxErr))
			require.Equal(t, `You must run "`+accessor+`()" from inside an Edge-first context.`, err.Error())
			require.ErrorIs(t, err, edgekit.ErrContextMissing)
		})
	}
}

type counterHandler struct{}

func (counterHandler) Routes(r chi.Router) {
	r.Post("/count/{name}", func(w http.ResponseWriter, r *http.Request) {
		store, err := edgekit.KV(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		key := "count:" + chi.URLParam(r, "name")
		var n int
		if _, err := store.GetInto(r.Context(), key, &n); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		n++
		if err := store.Set(r.Context(), key, n); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"count": n})
	})

	r.Get("/file", func(w http.ResponseWriter, r *http.Request) {
		if _, err := edgekit.FS(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusNotImplemented)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestApp_KVCounter(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	t.Cleanup(func() { _ = store.Close() })
	app := edgekit.New(edgekit.WithKV(store), edgekit.WithHandlers(counterHandler{}))

	for want := 1; want <= 3; want++ {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/count/visits", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]int
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Equal(t, want, body["count"])
	}

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/file", nil))
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	require.Equal(t, "Configure FS in your wrangler.toml file.\n", rec.Body.String())
}

func TestMiddleware_ForeignRouter(t *testing.T) {
	t.Parallel()

	app := edgekit.New(
		edgekit.WithFS(storage.NewMemoryBucket()),
		edgekit.WithVars(map[string]string{"APP_NAME": "demo"}),
	)

	r := chi.NewRouter()
	r.Use(edgekit.Middleware(app))
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		env, err := edgekit.Env(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		name, _ := env.Fetch("APP_NAME")
		_, _ = w.Write([]byte(name))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "demo", rec.Body.String())
}

func TestWaitUntil(t *testing.T) {
	t.Parallel()

	q := queue.NewMemory("audit")
	t.Cleanup(func() { _ = q.Close() })

	app := edgekit.New(
		edgekit.WithQueue(q),
		edgekit.WithQueueHandler(func(ctx context.Context, b *queue.Batch) error {
			return edgekit.WaitUntil(ctx, func(ctx context.Context) error {
				out, err := edgekit.Queue(ctx)
				if err != nil {
					return err
				}
				return out.Enqueue(ctx, map[string]int{"seen": len(b.Messages)})
			})
		}),
	)

	b := &queue.Batch{Queue: "in", Messages: []*queue.Message{queue.NewMessage("1", []byte(`{}`), time.Now(), 1)}}
	require.NoError(t, app.QueueBatch(context.Background(), b))
	require.Equal(t, 1, q.Len())
}
