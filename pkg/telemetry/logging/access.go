package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/rpcgate/rpcgate/pkg/config"
)

// NewAccessLogWriter returns the sink for the access log. For file output the
// parent directory is created and the file is rotated by size and age.
// Closing the returned writer is a no-op for stdout.
func NewAccessLogWriter(cfg config.AccessLogConfig) (io.WriteCloser, error) {
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.File.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create access log directory: %w", err)
		}
		return &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
			LocalTime:  true,
		}, nil
	case "stdout", "":
		return nopCloser{os.Stdout}, nil
	default:
		return nil, fmt.Errorf("unsupported access log output: %q", cfg.Output)
	}
}

// NewAccessLogger builds the dedicated access logger. Entries are always
// written at info level in JSON so they can be shipped independently of the
// application log.
func NewAccessLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("log", "access")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
