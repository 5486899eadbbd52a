package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/telemetry/health"
	"github.com/rpcgate/rpcgate/pkg/telemetry/logging"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-id", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(discardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, rec.Body.Len())
}

func TestNewRouter(t *testing.T) {
	proxyHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("proxy"))
	})
	statsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("stats " + r.URL.Path))
	})

	r := NewRouter(Routes{
		ProxyPath:        "/",
		Proxy:            proxyHandler,
		CallTrackingPath: "/call-tracking",
		CallTracking:     statsHandler,
		Health:           health.New(time.Second, "test"),
		MetricsPath:      "/metrics",
		Metrics:          http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("metrics")) }),
	}, discardLogger())

	tests := []struct {
		method string
		path   string
		status int
		body   string
	}{
		{http.MethodPost, "/", http.StatusOK, "proxy"},
		{http.MethodGet, "/call-tracking/1.2.3.4", http.StatusOK, "stats /call-tracking/1.2.3.4"},
		{http.MethodGet, "/metrics", http.StatusOK, "metrics"},
		{http.MethodGet, "/health", http.StatusOK, ""},
		{http.MethodGet, "/ready", http.StatusOK, ""},
		{http.MethodPost, "/other", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
			assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		})
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv := NewServer(config.ProxyConfig{ListenAddress: "127.0.0.1:0"}, config.TLSConfig{},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) }),
		discardLogger())
	require.NoError(t, srv.Listen())
	require.NotEmpty(t, srv.Addr())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	resp, err := http.Get("http://" + srv.Addr() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok", string(body))

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, <-errCh)
}

func TestServer_TLSMissingFiles(t *testing.T) {
	srv := NewServer(config.ProxyConfig{ListenAddress: "127.0.0.1:0"},
		config.TLSConfig{Enabled: true, CertFile: "/nonexistent/cert.pem", KeyFile: "/nonexistent/key.pem"},
		http.NotFoundHandler(), discardLogger())
	assert.Error(t, srv.Listen())
}
