package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress    = ":8080"
	DefaultProxyPath        = "/"
	DefaultCallTrackingPath = "/call-tracking"
	DefaultReadTimeout      = 30 * time.Second
	DefaultWriteTimeout     = 60 * time.Second
	DefaultIdleTimeout      = 120 * time.Second
	DefaultMaxHeaderBytes   = 1 << 20
	DefaultMaxBodyBytes     = int64(1 << 20)
	DefaultShutdownTimeout  = 60 * time.Second

	// Backend defaults
	DefaultBackendTimeout      = 30 * time.Second
	DefaultMaxIdleConnsPerHost = 100
	DefaultIdleConnTimeout     = 90 * time.Second

	// Store defaults
	DefaultStoreBackend      = "redis"
	DefaultRedisAddress      = "localhost:6379"
	DefaultRedisPoolSize     = 50
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second

	// Rate limiting defaults
	DefaultGlobalIPRequests   = int64(5000)
	DefaultGlobalIPTimeWindow = time.Minute
	DefaultLocalCacheSize     = 5000
	DefaultCacheSweepSchedule = "@every 1m"

	// Call tracking defaults
	DefaultCallTrackingEnabled       = true
	DefaultCallTrackingBackend       = "redis"
	DefaultCallTrackingFlushInterval = time.Second
	DefaultCallTrackingKeyPrefix     = "trck"
	DefaultSQLitePath                = "data/calls.db"
	DefaultSQLiteBusyTimeout         = 5 * time.Second

	// Access log defaults
	DefaultAccessLogEnabled       = true
	DefaultAccessLogOutput        = "stdout"
	DefaultAccessLogFlushInterval = time.Second
	DefaultAccessLogFilePath      = "logs/access.log"
	DefaultAccessLogMaxSizeMB     = 100
	DefaultAccessLogMaxBackups    = 5
	DefaultAccessLogMaxAgeDays    = 14

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "rpcgate"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
	DefaultTracingServiceName = "rpcgate"
)

// DefaultDurationBuckets are latency histogram buckets in seconds, tuned for
// JSON-RPC calls (5ms to 10s).
var DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Default returns a configuration with every default applied, including the
// boolean switches that default to true. LoadConfig decodes the file on top
// of it.
func Default() *Config {
	cfg := &Config{}
	cfg.CallTracking.Enabled = DefaultCallTrackingEnabled
	cfg.AccessLog.Enabled = DefaultAccessLogEnabled
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.Path == "" {
		cfg.Proxy.Path = DefaultProxyPath
	}
	if cfg.Proxy.CallTrackingPath == "" {
		cfg.Proxy.CallTrackingPath = DefaultCallTrackingPath
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxBodyBytes == 0 {
		cfg.Proxy.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Backend defaults
	if cfg.Backends.Timeout == 0 {
		cfg.Backends.Timeout = DefaultBackendTimeout
	}
	if cfg.Backends.MaxIdleConnsPerHost == 0 {
		cfg.Backends.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if cfg.Backends.IdleConnTimeout == 0 {
		cfg.Backends.IdleConnTimeout = DefaultIdleConnTimeout
	}

	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	applyRedisDefaults(&cfg.Store.Redis)

	// Rate limiting defaults
	rl := &cfg.RateLimiting
	if rl.GlobalIP.Requests == 0 {
		rl.GlobalIP.Requests = DefaultGlobalIPRequests
	}
	if rl.GlobalIP.TimeWindow == 0 {
		rl.GlobalIP.TimeWindow = DefaultGlobalIPTimeWindow
	}
	if rl.GlobalIP.LocalCacheSize == 0 {
		rl.GlobalIP.LocalCacheSize = DefaultLocalCacheSize
	}
	if rl.PerMethodIP.LocalCacheSize == 0 {
		rl.PerMethodIP.LocalCacheSize = DefaultLocalCacheSize
	}
	if rl.CacheSweepSchedule == "" {
		rl.CacheSweepSchedule = DefaultCacheSweepSchedule
	}

	// Call tracking defaults
	ct := &cfg.CallTracking
	if ct.Backend == "" {
		ct.Backend = DefaultCallTrackingBackend
	}
	if ct.FlushInterval == 0 {
		ct.FlushInterval = DefaultCallTrackingFlushInterval
	}
	if ct.KeyPrefix == "" {
		ct.KeyPrefix = DefaultCallTrackingKeyPrefix
	}
	if ct.SQLite.Path == "" {
		ct.SQLite.Path = DefaultSQLitePath
	}
	if ct.SQLite.BusyTimeout == 0 {
		ct.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Access log defaults
	al := &cfg.AccessLog
	if al.Output == "" {
		al.Output = DefaultAccessLogOutput
	}
	if al.FlushInterval == 0 {
		al.FlushInterval = DefaultAccessLogFlushInterval
	}
	if al.File.Path == "" {
		al.File.Path = DefaultAccessLogFilePath
	}
	if al.File.MaxSizeMB == 0 {
		al.File.MaxSizeMB = DefaultAccessLogMaxSizeMB
	}
	if al.File.MaxBackups == 0 {
		al.File.MaxBackups = DefaultAccessLogMaxBackups
	}
	if al.File.MaxAgeDays == 0 {
		al.File.MaxAgeDays = DefaultAccessLogMaxAgeDays
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyRedisDefaults(cfg *RedisConfig) {
	if cfg.Address == "" {
		cfg.Address = DefaultRedisAddress
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = DefaultRedisPoolSize
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultRedisReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultRedisWriteTimeout
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = DefaultDurationBuckets
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.Timeout == 0 {
		cfg.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
}
