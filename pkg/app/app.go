package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/redis/go-redis/v9"

	"github.com/rpcgate/rpcgate/pkg/api"
	"github.com/rpcgate/rpcgate/pkg/config"
	"github.com/rpcgate/rpcgate/pkg/limits/ratelimit"
	"github.com/rpcgate/rpcgate/pkg/limits/storage"
	"github.com/rpcgate/rpcgate/pkg/proxy"
	"github.com/rpcgate/rpcgate/pkg/proxy/stages"
	"github.com/rpcgate/rpcgate/pkg/routing"
	"github.com/rpcgate/rpcgate/pkg/server"
	"github.com/rpcgate/rpcgate/pkg/telemetry/health"
	"github.com/rpcgate/rpcgate/pkg/telemetry/logging"
	"github.com/rpcgate/rpcgate/pkg/telemetry/metrics"
	"github.com/rpcgate/rpcgate/pkg/telemetry/tracing"
	"github.com/rpcgate/rpcgate/pkg/tracking"
	trackingstorage "github.com/rpcgate/rpcgate/pkg/tracking/storage"
)

// Options are the process-level inputs that do not come from the
// configuration file.
type Options struct {
	Version string

	// ConfigPath is watched for changes when watch_config is set.
	ConfigPath string

	// LogOutput receives the application log. Default: stdout.
	LogOutput io.Writer
}

// App is a fully wired proxy.
type App struct {
	cfg  *config.Config
	opts Options

	logger   *slog.Logger
	logLevel *slog.LevelVar
	metrics  *metrics.Collector
	tracer   *tracing.Tracer

	redis    redis.UniversalClient
	counters storage.CounterStore
	repo     tracking.Repository

	aggregator   *tracking.Aggregator
	accessLog    *stages.AccessLog
	accessLogOut io.Closer
	sweeper      *ratelimit.Sweeper
	caches       []*ratelimit.BlockedCache

	client  *http.Client
	chain   *proxy.Chain
	health  *health.Checker
	handler http.Handler
	server  *server.Server
	watcher *config.Watcher

	shutdownOnce sync.Once
}

// New builds every component from cfg. Nothing is started; on error the
// components created so far are closed.
func New(cfg *config.Config, opts Options) (_ *App, err error) {
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stdout
	}

	a := &App{cfg: cfg, opts: opts}
	defer func() {
		if err != nil {
			_ = a.closeResources(context.Background())
		}
	}()

	if err = a.initTelemetry(); err != nil {
		return nil, err
	}
	if err = a.initStores(); err != nil {
		return nil, err
	}

	chain, err := a.buildChain()
	if err != nil {
		return nil, err
	}
	a.chain = chain

	a.initHealth()

	routes := server.Routes{
		ProxyPath: cfg.Proxy.Path,
		Proxy: proxy.NewHandler(chain, proxy.HandlerOptions{
			MaxBodyBytes: cfg.Proxy.MaxBodyBytes,
			Metrics:      a.metrics,
			Logger:       a.logger,
		}),
		CallTrackingPath: cfg.Proxy.CallTrackingPath,
		CallTracking:     api.NewCallTracking(a.repo, a.logger).Routes(),
		Health:           a.health,
	}
	if cfg.Telemetry.Metrics.Enabled {
		routes.MetricsPath = cfg.Telemetry.Metrics.Path
		routes.Metrics = a.metrics.Handler()
	}

	a.handler = server.NewRouter(routes, a.logger)
	a.server = server.NewServer(cfg.Proxy, cfg.Security.TLS, a.handler, a.logger)
	return a, nil
}

func (a *App) initTelemetry() error {
	logger, level, err := logging.New(a.cfg.Telemetry.Logging, a.opts.LogOutput)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.logger = logger
	a.logLevel = level

	a.metrics = metrics.NewCollector(&a.cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(&a.cfg.Telemetry.Tracing, a.opts.Version)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	a.tracer = tracer
	return nil
}

func (a *App) initStores() error {
	if needsRedis(a.cfg) {
		a.redis = storage.NewRedisClient(a.cfg.Store.Redis)
	}

	counters, err := openCounterStore(a.cfg.Store, a.redis)
	if err != nil {
		return err
	}
	a.counters = counters

	repo, err := trackingstorage.Open(a.cfg.CallTracking, a.redis)
	if err != nil {
		return fmt.Errorf("failed to open call tracking repository: %w", err)
	}
	a.repo = repo
	return nil
}

// buildChain assembles the stages in their fixed order, leaving out the
// disabled ones.
func (a *App) buildChain() (*proxy.Chain, error) {
	cfg := a.cfg
	chain := []proxy.Stage{stages.NewMetadata()}

	if rl := cfg.RateLimiting.GlobalIP; rl.Enabled {
		limiter, err := ratelimit.NewWindowLimiter(a.counters, ratelimit.PrefixIP, rl.LocalCacheSize)
		if err != nil {
			return nil, fmt.Errorf("global rate limiter: %w", err)
		}
		stage, err := stages.NewGlobalRateLimit(limiter, ratelimit.Rule{Requests: rl.Requests, Window: rl.TimeWindow}, a.metrics)
		if err != nil {
			return nil, fmt.Errorf("global rate limiter: %w", err)
		}
		a.caches = append(a.caches, limiter.Cache())
		chain = append(chain, stage)
	}

	chain = append(chain, stages.NewParse())

	if rl := cfg.RateLimiting.PerMethodIP; rl.Enabled {
		limiter, err := ratelimit.NewWindowLimiter(a.counters, ratelimit.PrefixMethodIP, rl.LocalCacheSize)
		if err != nil {
			return nil, fmt.Errorf("method rate limiter: %w", err)
		}
		rules := make(map[string]ratelimit.Rule, len(rl.Methods))
		for method, m := range rl.Methods {
			rules[method] = ratelimit.Rule{Requests: m.Requests, Window: m.TimeWindow}
		}
		stage, err := stages.NewMethodRateLimit(limiter, rules, a.metrics)
		if err != nil {
			return nil, fmt.Errorf("method rate limiter: %w", err)
		}
		a.caches = append(a.caches, limiter.Cache())
		chain = append(chain, stage)
	}

	if len(a.caches) > 0 {
		sweeper, err := ratelimit.NewSweeper(cfg.RateLimiting.CacheSweepSchedule, a.logger, a.caches...)
		if err != nil {
			return nil, err
		}
		a.sweeper = sweeper
	}

	if cfg.AccessLog.Enabled {
		out, err := logging.NewAccessLogWriter(cfg.AccessLog)
		if err != nil {
			return nil, err
		}
		a.accessLogOut = out
		a.accessLog = stages.NewAccessLog(logging.NewAccessLogger(out), stages.AccessLogOptions{
			FlushInterval: cfg.AccessLog.FlushInterval,
			DrainTimeout:  cfg.Proxy.ShutdownTimeout,
			Metrics:       a.metrics,
			Logger:        a.logger,
		})
		chain = append(chain, a.accessLog)
	}

	if cfg.CallTracking.Enabled {
		a.aggregator = tracking.NewAggregator(a.repo, tracking.AggregatorOptions{
			FlushInterval: cfg.CallTracking.FlushInterval,
			Metrics:       a.metrics,
			Logger:        a.logger,
		})
		chain = append(chain, stages.NewCallTracking(a.aggregator, cfg.Proxy.ShutdownTimeout))
	}

	targets, err := routing.ParseTargets(cfg.Backends.URLs)
	if err != nil {
		return nil, err
	}
	rr, err := routing.NewRoundRobin(targets)
	if err != nil {
		return nil, err
	}
	a.client = stages.NewBackendClient(cfg.Backends)
	chain = append(chain, stages.NewForward(rr, stages.ForwardOptions{
		Client:  a.client,
		Tracer:  a.tracer,
		Metrics: a.metrics,
		Logger:  a.logger,
	}))

	return proxy.NewChain(chain...)
}

func (a *App) initHealth() {
	a.health = health.New(health.DefaultCheckTimeout, a.opts.Version)
	a.health.RegisterCheck("counter_store", a.counters.Ping)
	a.health.RegisterCheck("call_tracking", a.repo.Ping)
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Addr returns the bound listen address once Run has started listening.
func (a *App) Addr() string {
	return a.server.Addr()
}

// closeResources releases the stores and the tracer. It is the last step of
// shutdown and the cleanup path of a failed New.
func (a *App) closeResources(ctx context.Context) error {
	var result *multierror.Error

	if a.accessLogOut != nil {
		if err := a.accessLogOut.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("access log output: %w", err))
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("call tracking repository: %w", err))
		}
	}
	if a.counters != nil {
		if err := a.counters.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("counter store: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("redis client: %w", err))
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("tracer: %w", err))
		}
	}

	return result.ErrorOrNil()
}
