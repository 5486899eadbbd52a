package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReadiness_AllHealthy(t *testing.T) {
	c := New(time.Second, "1.0.0")
	c.RegisterCheck("store", func(context.Context) error { return nil })
	c.RegisterCheck("repository", func(context.Context) error { return nil })

	status := c.CheckReadiness(context.Background())

	assert.Equal(t, StatusReady, status.Status)
	assert.Len(t, status.Checks, 2)
	assert.Equal(t, []string{"repository", "store"}, c.Names())
}

func TestCheckReadiness_FailureDegrades(t *testing.T) {
	c := New(time.Second, "")
	c.RegisterCheck("store", func(context.Context) error { return errors.New("connection refused") })

	status := c.CheckReadiness(context.Background())

	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, StatusUnhealthy, status.Checks["store"].Status)
	assert.Equal(t, "connection refused", status.Checks["store"].Message)
}

func TestCheckReadiness_Timeout(t *testing.T) {
	c := New(20*time.Millisecond, "")
	c.RegisterCheck("slow", func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	status := c.CheckReadiness(context.Background())
	assert.Equal(t, StatusUnhealthy, status.Checks["slow"].Status)
}

func TestCheckReadiness_NoChecks(t *testing.T) {
	status := New(0, "").CheckReadiness(context.Background())
	assert.Equal(t, StatusReady, status.Status)
}

func TestHandlers(t *testing.T) {
	c := New(time.Second, "1.2.3")
	c.RegisterCheck("store", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var live HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &live))
	assert.Equal(t, StatusOK, live.Status)
	assert.Equal(t, "1.2.3", live.Version)

	rec = httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/ready", nil))
	assert.Zero(t, rec.Body.Len())
}
