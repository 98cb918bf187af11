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

	"github.com/dmitrymomot/mosaic/pkg/health"
)

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		resp := health.Run(context.Background(), nil)
		require.True(t, resp.Healthy())
		require.Empty(t, resp.Checks)
	})

	t.Run("one failing check makes the response unhealthy", func(t *testing.T) {
		t.Parallel()
		resp := health.Run(context.Background(), health.Checks{
			"ok":   func(context.Context) error { return nil },
			"down": func(context.Context) error { return errors.New("connection refused") },
		})
		require.False(t, resp.Healthy())
		require.Equal(t, health.StatusHealthy, resp.Checks["ok"].Status)
		require.Equal(t, health.StatusUnhealthy, resp.Checks["down"].Status)
		require.Equal(t, "connection refused", resp.Checks["down"].Error)
	})

	t.Run("slow check times out", func(t *testing.T) {
		t.Parallel()
		resp := health.Run(context.Background(), health.Checks{
			"slow": func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		}, health.WithTimeout(10*time.Millisecond))
		require.False(t, resp.Healthy())
		require.Contains(t, resp.Checks["slow"].Error, "health: check timeout")
		require.Positive(t, resp.Checks["slow"].Duration)
	})
}

func TestChecks_Merge(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	all := health.Checks{}
	all.Merge("shop", health.Checks{"redis": noop})
	all.Merge("", health.Checks{"db": noop})

	require.Equal(t, []string{"db", "shop/redis"}, all.Names())
}

func TestHandlers(t *testing.T) {
	t.Parallel()

	t.Run("liveness plain text", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		health.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "OK", rec.Body.String())
	})

	t.Run("readiness json when unhealthy", func(t *testing.T) {
		t.Parallel()
		h := health.ReadinessHandler(health.Checks{
			"db": func(context.Context) error { return errors.New("down") },
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var resp health.Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, health.StatusUnhealthy, resp.Status)
		require.Equal(t, "down", resp.Checks["db"].Error)
	})

	t.Run("readiness plain text when healthy", func(t *testing.T) {
		t.Parallel()
		h := health.ReadinessHandler(health.Checks{
			"db": func(context.Context) error { return nil },
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "OK", rec.Body.String())
	})
}
