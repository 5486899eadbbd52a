// Package logging configures the process-wide slog logger and the access log.
//
// # Usage
//
//	logger, level, err := logging.New(cfg.Telemetry.Logging, os.Stdout)
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	// later, on config reload
//	level.Set(slog.LevelDebug)
//
// Records logged with a context carry the request ID and, when tracing is
// active, the trace and span IDs:
//
//	ctx = logging.WithRequestID(ctx, "3f0c...")
//	slog.InfoContext(ctx, "forwarded") // ... request_id=3f0c...
//
// # Access log
//
// The access log is a separate logger with its own sink, either stdout or a
// size-rotated file (lumberjack). It is written in batches by the access log
// pipeline stage, never on the request path.
package logging
