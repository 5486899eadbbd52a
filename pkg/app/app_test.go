package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/tracking"
)

type backend struct {
	*httptest.Server
	hits atomic.Int64
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"jsonrpc":"2.0","result":"0x1","id":1}`)
	}))
	t.Cleanup(b.Close)
	return b
}

func testConfig(backendURL string) *config.Config {
	cfg := config.Default()
	cfg.Proxy.ListenAddress = "127.0.0.1:0"
	cfg.Proxy.ShutdownTimeout = 5 * time.Second
	cfg.Backends.URLs = []string{backendURL}
	cfg.Store.Backend = "memory"
	cfg.CallTracking.Backend = "memory"
	cfg.CallTracking.FlushInterval = 50 * time.Millisecond
	cfg.AccessLog.Enabled = false
	cfg.RateLimiting.GlobalIP.Enabled = true
	cfg.RateLimiting.GlobalIP.Requests = 2
	cfg.RateLimiting.GlobalIP.TimeWindow = time.Minute
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, Options{Version: "test", LogOutput: io.Discard})
	require.NoError(t, err)
	return a
}

func rpcRequest(body, ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", ip)
	return req
}

const blockNumber = `{"jsonrpc":"2.0","method":"eth_blockNumber","params":[],"id":1}`

func TestApp_RateLimitAndTracking(t *testing.T) {
	be := newBackend(t)
	a := newTestApp(t, testConfig(be.URL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startWorkers(ctx)
	defer func() { require.NoError(t, a.Shutdown(context.Background())) }()

	h := a.Handler()
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, rpcRequest(blockNumber, "1.2.3.4"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"jsonrpc":"2.0","result":"0x1","id":1}`, rec.Body.String())
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, rpcRequest(blockNumber, "1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Zero(t, rec.Body.Len())
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, int64(2), be.hits.Load())

	// Another caller has its own window.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, rpcRequest(blockNumber, "5.6.7.8"))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/call-tracking/1.2.3.4/eth_blockNumber", nil))
		if rec.Code != http.StatusOK {
			return false
		}
		var call tracking.TrackedCall
		if err := json.Unmarshal(rec.Body.Bytes(), &call); err != nil {
			return false
		}
		return call.SuccessfulCalls == 2 && call.FailedCalls == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestApp_RejectsUnsupportedVersion(t *testing.T) {
	be := newBackend(t)
	a := newTestApp(t, testConfig(be.URL))
	defer func() { require.NoError(t, a.Shutdown(context.Background())) }()

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, rpcRequest(`{"jsonrpc":"1.0","method":"eth_blockNumber","id":7}`, "1.2.3.4"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"jsonrpc":"2.0",
		"error":{"code":-32600,"message":"Unsupported JSON-RPC version: 1.0","data":{"version":"1.0"}},
		"id":7
	}`, rec.Body.String())
	assert.Zero(t, be.hits.Load())
}

func TestApp_MethodRateLimit(t *testing.T) {
	be := newBackend(t)
	cfg := testConfig(be.URL)
	cfg.RateLimiting.GlobalIP.Enabled = false
	cfg.RateLimiting.PerMethodIP.Enabled = true
	cfg.RateLimiting.PerMethodIP.Methods = map[string]config.MethodRateLimit{
		"eth_call": {Requests: 1, TimeWindow: time.Minute},
	}
	a := newTestApp(t, cfg)
	defer func() { require.NoError(t, a.Shutdown(context.Background())) }()

	call := `{"jsonrpc":"2.0","method":"eth_call","params":[],"id":1}`
	codes := make([]int, 0, 4)
	for _, body := range []string{call, call, blockNumber, blockNumber} {
		rec := httptest.NewRecorder()
		a.Handler().ServeHTTP(rec, rpcRequest(body, "1.2.3.4"))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{200, 429, 200, 200}, codes)
	assert.Equal(t, int64(3), be.hits.Load())
}

func TestApp_RunAndShutdown(t *testing.T) {
	be := newBackend(t)
	cfg := testConfig(be.URL)
	cfg.AccessLog.Enabled = true
	cfg.AccessLog.Output = "file"
	cfg.AccessLog.File.Path = t.TempDir() + "/access.log"
	a := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	for _, path := range []string{"/health", "/ready", "/metrics"} {
		resp, err := http.Get("http://" + a.Addr() + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Post("http://"+a.Addr()+"/", "application/json", strings.NewReader(blockNumber))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	assert.NoError(t, a.Shutdown(context.Background()))
}

func TestNew_InvalidBackend(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Backends.URLs = nil

	a, err := New(cfg, Options{LogOutput: io.Discard})
	assert.Error(t, err)
	assert.Nil(t, a)
}

func TestReload_ChangesLogLevel(t *testing.T) {
	be := newBackend(t)
	a := newTestApp(t, testConfig(be.URL))
	defer func() { require.NoError(t, a.Shutdown(context.Background())) }()

	next := config.Default()
	next.Telemetry.Logging.Level = "debug"
	a.reload(next)
	assert.Equal(t, "DEBUG", a.logLevel.Level().String())
}
