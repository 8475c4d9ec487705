package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/middlewares"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/ratelimit"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	h := middlewares.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middlewares.GetRequestID(r.Context())
	}))

	t.Run("reuses incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("CF-Ray", "8a1b2c3d4e5f-AMS")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "8a1b2c3d4e5f-AMS", seen)
		require.Equal(t, "8a1b2c3d4e5f-AMS", rec.Header().Get("X-Request-ID"))
	})

	t.Run("generates when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Len(t, seen, 36)
		require.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	})

	t.Run("extractor", func(t *testing.T) {
		t.Parallel()

		_, ok := middlewares.RequestIDExtractor()(context.Background())
		require.False(t, ok)
	})
}

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("panic becomes 500", func(t *testing.T) {
		t.Parallel()

		h := middlewares.Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("custom handler receives panic error", func(t *testing.T) {
		t.Parallel()

		var got *middlewares.PanicError
		h := middlewares.Recover(
			middlewares.WithRecoverDisablePrintStack(),
			middlewares.WithRecoverHandler(func(w http.ResponseWriter, _ *http.Request, err *middlewares.PanicError) {
				got = err
				w.WriteHeader(http.StatusTeapot)
			}),
		)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		}))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
		require.NotNil(t, got)
		require.Equal(t, "kaboom", got.Value)
		require.Nil(t, got.Stack)
		require.Equal(t, "panic: kaboom", got.Error())
	})

	t.Run("abort handler is re-panicked", func(t *testing.T) {
		t.Parallel()

		h := middlewares.Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))
		require.PanicsWithValue(t, http.ErrAbortHandler, func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
	})
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("handler that gives up gets 504", func(t *testing.T) {
		t.Parallel()

		h := middlewares.Timeout(10 * time.Millisecond)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	})

	t.Run("fast handler untouched", func(t *testing.T) {
		t.Parallel()

		h := middlewares.Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "ok", rec.Body.String())
	})

	t.Run("timeout error", func(t *testing.T) {
		t.Parallel()

		var got *middlewares.TimeoutError
		h := middlewares.Timeout(5*time.Millisecond, middlewares.WithTimeoutHandler(
			func(w http.ResponseWriter, _ *http.Request, err *middlewares.TimeoutError) {
				got = err
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)

		te, ok := middlewares.AsTimeoutError(got)
		require.True(t, ok)
		require.Equal(t, 5*time.Millisecond, te.Duration)
	})
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	t.Cleanup(func() { _ = store.Close() })

	app := internal.New(
		internal.WithKV(store),
		internal.WithRateLimit(nil, ratelimit.WithLimit(2), ratelimit.WithPeriod(time.Minute)),
		internal.WithMiddleware(middlewares.RateLimit()),
		internal.WithHandlers(internal.HandlerFunc(func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		})),
	)

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("CF-Connecting-IP", "203.0.113.7")
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		require.Equal(t, "2", rec.Header().Get(ratelimit.HeaderLimit))
		_, err := strconv.ParseInt(rec.Header().Get(ratelimit.HeaderReset), 10, 64)
		require.NoError(t, err)

		// window writes are deferred past the response
		require.NoError(t, app.Drain(context.Background()))
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimit_OutsideScope(t *testing.T) {
	t.Parallel()

	h := middlewares.RateLimit()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
