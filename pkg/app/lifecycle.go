package app

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/telemetry/logging"
)

// Run starts the background workers and serves until ctx is cancelled or the
// listener fails, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if err := a.server.Listen(); err != nil {
		_ = a.Shutdown(context.Background())
		return err
	}

	a.startWorkers(ctx)

	a.logger.Info("rpcgate started",
		"version", a.opts.Version,
		"address", a.server.Addr(),
		"backends", len(a.cfg.Backends.URLs),
		"stages", len(a.chain.Stages()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown requested")
	case serveErr = <-errCh:
		if serveErr != nil {
			a.logger.Error("server stopped unexpectedly", "error", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Proxy.ShutdownTimeout)
	defer cancel()

	if err := a.Shutdown(shutdownCtx); err != nil {
		return multierror.Append(serveErr, err).ErrorOrNil()
	}
	return serveErr
}

func (a *App) startWorkers(ctx context.Context) {
	if a.aggregator != nil {
		a.aggregator.Start()
	}
	if a.accessLog != nil {
		a.accessLog.Start()
	}
	if a.sweeper != nil {
		a.sweeper.Start()
	}

	if a.cfg.WatchConfig && a.opts.ConfigPath != "" {
		w, err := config.NewWatcher(a.opts.ConfigPath, config.DefaultDebounceInterval)
		if err != nil {
			a.logger.Warn("config watching disabled", "error", err)
			return
		}
		a.watcher = w
		go func() {
			if err := w.Watch(ctx, a.reload); err != nil {
				a.logger.Error("config watcher stopped", "error", err)
			}
		}()
	}
}

// reload applies the settings that can change at runtime. Everything else
// needs a restart.
func (a *App) reload(cfg *config.Config) {
	level, err := logging.ParseLevel(cfg.Telemetry.Logging.Level)
	if err != nil {
		a.logger.Warn("ignoring invalid log level", "level", cfg.Telemetry.Logging.Level)
		return
	}
	if level != a.logLevel.Level() {
		a.logLevel.Set(level)
		a.logger.Info("log level changed", "level", level.String())
	}
}

// Shutdown stops the proxy in order: the listener, the stage drains, the
// batch loops, the cache sweeper, the backend transport and finally the
// stores and tracer. Only the first call has an effect.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	a.shutdownOnce.Do(func() {
		err = a.shutdown(ctx)
	})
	return err
}

func (a *App) shutdown(ctx context.Context) error {
	var result *multierror.Error

	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	if abandoned := a.chain.Drain(ctx); len(abandoned) > 0 {
		a.logger.Warn("drain abandoned at shutdown timeout", "stages", abandoned)
	}

	if a.aggregator != nil {
		if err := a.aggregator.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("call tracking: %w", err))
		}
	}
	if a.accessLog != nil {
		if err := a.accessLog.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("access log: %w", err))
		}
	}

	if a.sweeper != nil {
		a.sweeper.Stop(ctx)
		a.sweeper.Purge()
	}

	a.client.CloseIdleConnections()

	if err := a.closeResources(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		a.logger.Error("shutdown finished with errors", "error", err)
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
