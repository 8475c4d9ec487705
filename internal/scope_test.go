package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/internal"
	"github.com/dmitrymomot/edgekit/pkg/geo"
	"github.com/dmitrymomot/edgekit/pkg/kv"
	"github.com/dmitrymomot/edgekit/pkg/storage"
)

func TestErrors(t *testing.T) {
	t.Parallel()

	ctxErr := &internal.ContextError{Accessor: "kv"}
	require.Equal(t, `You must run "kv()" from inside an Edge-first context.`, ctxErr.Error())
	require.ErrorIs(t, ctxErr, internal.ErrContextMissing)

	cfgErr := &internal.ConfigError{Binding: internal.BindingKV}
	require.Equal(t, "Configure KV in your wrangler.toml file.", cfgErr.Error())
	require.ErrorIs(t, cfgErr, internal.ErrBindingMissing)
}

func TestScope_Missing(t *testing.T) {
	t.Parallel()

	_, ok := internal.CarrierFrom(context.Background())
	require.False(t, ok)

	_, err := internal.Scope(context.Background(), "kv")
	var ctxErr *internal.ContextError
	require.True(t, errors.As(err, &ctxErr))
	require.Equal(t, "kv", ctxErr.Accessor)
}

func TestBindings_Has(t *testing.T) {
	t.Parallel()

	var nilBindings *internal.Bindings
	require.False(t, nilBindings.Has(internal.BindingKV))

	b := &internal.Bindings{KV: kv.NewMemory(), FS: storage.NewMemoryBucket()}
	require.True(t, b.Has(internal.BindingKV))
	require.True(t, b.Has(internal.BindingFS))
	require.False(t, b.Has(internal.BindingDB))
	require.False(t, b.Has(internal.BindingQueue))
	require.False(t, b.Has(internal.BindingAI))
	require.Equal(t, []string{"FS", "KV"}, b.Names())
}

// serve runs one request through app and returns the carrier seen by the handler.
func serve(t *testing.T, app *internal.App, req *http.Request) *internal.Carrier {
	t.Helper()

	var seen *internal.Carrier
	h := app.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = internal.CarrierFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.NoError(t, app.Drain(context.Background()))
	require.NotNil(t, seen)
	return seen
}

func TestCarrier_Accessors(t *testing.T) {
	t.Parallel()

	t.Run("configured bindings", func(t *testing.T) {
		t.Parallel()

		store := kv.NewMemory()
		t.Cleanup(func() { _ = store.Close() })
		app := internal.New(
			internal.WithKV(store),
			internal.WithFS(storage.NewMemoryBucket()),
			internal.WithVars(map[string]string{"GREETING": "hello"}),
		)

		c := serve(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, internal.EventFetch, c.Event())

		_, err := c.KV()
		require.NoError(t, err)
		_, err = c.Cache()
		require.NoError(t, err)
		_, err = c.FS()
		require.NoError(t, err)
		_, err = c.RateLimit()
		require.NoError(t, err)
		_, err = c.SessionStorage()
		require.NoError(t, err)
		require.Equal(t, "hello", c.Env().MustFetch("GREETING"))

		r, err := c.Request()
		require.NoError(t, err)
		require.Equal(t, "/", r.URL.Path)
		fromRequest, ok := internal.CarrierFrom(r.Context())
		require.True(t, ok)
		require.Same(t, c, fromRequest)
		_, err = c.Signal()
		require.NoError(t, err)
	})

	t.Run("missing bindings name the binding", func(t *testing.T) {
		t.Parallel()

		c := serve(t, internal.New(), httptest.NewRequest(http.MethodGet, "/", nil))

		checks := map[string]func() error{
			"KV":    func() error { _, err := c.KV(); return err },
			"FS":    func() error { _, err := c.FS(); return err },
			"DB":    func() error { _, err := c.DB(); return err },
			"QUEUE": func() error { _, err := c.Queue(); return err },
			"AI":    func() error { _, err := c.AI(); return err },
		}
		for binding, fn := range checks {
			var cfgErr *internal.ConfigError
			require.True(t, errors.As(fn(), &cfgErr), binding)
			require.Equal(t, internal.Binding(binding), cfgErr.Binding)
		}

		_, err := c.Cache()
		require.ErrorIs(t, err, internal.ErrBindingMissing)
		_, err = c.ORM()
		require.ErrorIs(t, err, internal.ErrBindingMissing)
	})

	t.Run("geo from request headers", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("CF-IPCountry", "DE")
		req.Header.Set("CF-IPCity", "Berlin")

		g, err := serve(t, internal.New(), req).Geo()
		require.NoError(t, err)
		require.Equal(t, "DE", g.Country)
		require.Equal(t, "Berlin", g.City)
		require.True(t, g.IsEurope)

		_, err = serve(t, internal.New(), httptest.NewRequest(http.MethodGet, "/", nil)).Geo()
		require.ErrorIs(t, err, geo.ErrGeoUnavailable)
	})
}

func TestCarrier_RequestOnlyAccessorsOutsideFetch(t *testing.T) {
	t.Parallel()

	c := scheduledCarrier(t)
	_, err := c.Request()
	require.ErrorIs(t, err, internal.ErrContextMissing)
	_, err = c.Headers()
	require.ErrorIs(t, err, internal.ErrContextMissing)
	_, err = c.Geo()
	require.ErrorIs(t, err, internal.ErrContextMissing)
	_, err = c.Signal()
	require.ErrorIs(t, err, internal.ErrContextMissing)
}
