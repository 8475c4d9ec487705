package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/edgekit/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		resp := health.Run(context.Background(), nil)
		require.Equal(t, health.StatusHealthy, resp.Status)
		require.Empty(t, resp.Checks)
	})

	t.Run("one failure marks unhealthy", func(t *testing.T) {
		t.Parallel()
		resp := health.Run(context.Background(), health.Checks{
			"DB":    func(context.Context) error { return nil },
			"REDIS": func(context.Context) error { return errors.New("connection refused") },
		})
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Equal(t, health.StatusHealthy, resp.Checks["DB"].Status)
		require.Equal(t, health.StatusUnhealthy, resp.Checks["REDIS"].Status)
		require.Equal(t, "connection refused", resp.Checks["REDIS"].Error)
	})

	t.Run("slow check times out", func(t *testing.T) {
		t.Parallel()
		block := make(chan struct{})
		defer close(block)

		resp := health.Run(context.Background(), health.Checks{
			"SLOW": func(context.Context) error { <-block; return nil },
		}, health.WithTimeout(20*time.Millisecond))
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Equal(t, health.ErrCheckTimeout.Error(), resp.Checks["SLOW"].Error)
	})
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	h := health.Routes(health.Checks{
		"DB": func(context.Context) error { return nil },
	})

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "OK", rec.Body.String())
	})

	t.Run("ready json", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		req.Header.Set("Accept", "application/json")
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp health.Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, health.StatusHealthy, resp.Status)
		require.Contains(t, resp.Checks, "DB")
	})
}

func TestReadinessHandler_Unavailable(t *testing.T) {
	t.Parallel()

	h := health.ReadinessHandler(health.Checks{
		"DB": func(context.Context) error { return errors.New("down") },
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "Service Unavailable", rec.Body.String())
}
