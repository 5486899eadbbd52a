package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcgate/rpcgate/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_LevelIsAdjustable(t *testing.T) {
	var buf bytes.Buffer
	logger, level, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())

	level.Set(slog.LevelDebug)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_InvalidFormat(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Level: "info", Format: "xml"}, nil)
	require.Error(t, err)
}

func TestContextHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-1")
	logger.With("component", "test").InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "test", entry["component"])
	assert.NotContains(t, entry, "trace_id")
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestNewAccessLogWriter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "access.log")
	w, err := NewAccessLogWriter(config.AccessLogConfig{
		Output: "file",
		File:   config.AccessLogFileConfig{Path: path, MaxSizeMB: 1},
	})
	require.NoError(t, err)

	NewAccessLogger(w).Info("access", "ip", "1.2.3.4", "method", "foo")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"ip":"1.2.3.4"`)
	assert.Contains(t, string(data), `"log":"access"`)
}

func TestNewAccessLogWriter_Invalid(t *testing.T) {
	_, err := NewAccessLogWriter(config.AccessLogConfig{Output: "syslog"})
	require.Error(t, err)
}
