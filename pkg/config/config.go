package config

import "time"

// Config is the root configuration structure for rpcgate.
type Config struct {
	// Proxy contains the HTTP listener and endpoint paths.
	Proxy ProxyConfig `yaml:"proxy"`

	// Backends lists the JSON-RPC servers requests are forwarded to.
	Backends BackendsConfig `yaml:"backends"`

	// Store configures the shared counter store used by the rate limiters.
	Store StoreConfig `yaml:"store"`

	// RateLimiting configures the global and per-method IP rate limiters.
	RateLimiting RateLimitingConfig `yaml:"rate_limiting"`

	// CallTracking configures per-IP/per-method call statistics.
	CallTracking CallTrackingConfig `yaml:"call_tracking"`

	// AccessLog configures the batched access log.
	AccessLog AccessLogConfig `yaml:"access_log"`

	// Telemetry contains logging, metrics and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Security contains TLS settings for the listener.
	Security SecurityConfig `yaml:"security"`

	// WatchConfig enables reloading of the configuration file on change.
	WatchConfig bool `yaml:"watch_config"`
}

// ProxyConfig contains configuration for the HTTP listener.
type ProxyConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: ":8080"
	ListenAddress string `yaml:"listen_address"`

	// Path is the route the JSON-RPC endpoint is mounted at.
	// Default: "/"
	Path string `yaml:"path"`

	// CallTrackingPath is the base route of the call statistics API.
	// Default: "/call-tracking"
	CallTrackingPath string `yaml:"call_tracking_path"`

	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`

	// MaxBodyBytes bounds the size of an inbound JSON-RPC body.
	// Default: 1MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout bounds the whole graceful shutdown, including the
	// drain of background work in pipeline stages.
	// Default: 60s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BackendsConfig contains the forwarding targets and HTTP client settings.
type BackendsConfig struct {
	// URLs are the backend base URLs, selected in round-robin order.
	URLs []string `yaml:"urls"`

	// Timeout bounds one backend round trip including the body read.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// StoreConfig selects the shared counter store.
type StoreConfig struct {
	// Backend is "redis" or "memory". The memory store is process-local and
	// only suitable for a single instance.
	// Default: "redis"
	Backend string `yaml:"backend"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Address is host:port of the Redis server.
	// Default: "localhost:6379"
	Address      string        `yaml:"address"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RateLimitingConfig contains both rate limiters.
type RateLimitingConfig struct {
	GlobalIP    GlobalIPRateLimitConfig    `yaml:"global_ip"`
	PerMethodIP PerMethodIPRateLimitConfig `yaml:"per_method_ip"`

	// CacheSweepSchedule is a cron expression for evicting expired entries
	// from the local blocked caches.
	// Default: "@every 1m"
	CacheSweepSchedule string `yaml:"cache_sweep_schedule"`
}

// GlobalIPRateLimitConfig limits all requests from one caller IP.
type GlobalIPRateLimitConfig struct {
	Enabled bool `yaml:"enabled"`

	// Requests is the number of requests allowed per window.
	// Default: 5000
	Requests int64 `yaml:"requests"`

	// TimeWindow is the fixed window length.
	// Default: 1m
	TimeWindow time.Duration `yaml:"time_window"`

	// LocalCacheSize is the capacity of the in-process blocked cache.
	// Default: 5000
	LocalCacheSize int `yaml:"local_cache_size"`
}

// PerMethodIPRateLimitConfig limits calls of individual methods per caller IP.
type PerMethodIPRateLimitConfig struct {
	Enabled        bool                       `yaml:"enabled"`
	LocalCacheSize int                        `yaml:"local_cache_size"`
	Methods        map[string]MethodRateLimit `yaml:"methods"`
}

// MethodRateLimit is the limit for one JSON-RPC method.
type MethodRateLimit struct {
	Requests   int64         `yaml:"requests"`
	TimeWindow time.Duration `yaml:"time_window"`
}

// CallTrackingConfig configures call statistics collection.
type CallTrackingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend is "redis", "sqlite" or "memory".
	// Default: "redis"
	Backend string `yaml:"backend"`

	// FlushInterval is how often aggregated deltas are persisted.
	// Default: 1s
	FlushInterval time.Duration `yaml:"flush_interval"`

	// KeyPrefix prefixes the per-IP hash keys in Redis.
	// Default: "trck"
	KeyPrefix string `yaml:"key_prefix"`

	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite call statistics repository.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/calls.db"
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AccessLogConfig configures the access log.
type AccessLogConfig struct {
	Enabled bool `yaml:"enabled"`

	// Output is "stdout" or "file".
	// Default: "stdout"
	Output string `yaml:"output"`

	FlushInterval time.Duration `yaml:"flush_interval"`

	File AccessLogFileConfig `yaml:"file"`
}

// AccessLogFileConfig configures the rotating access log file.
type AccessLogFileConfig struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are histogram buckets in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	Endpoint string `yaml:"endpoint"`

	Insecure bool          `yaml:"insecure"`
	Timeout  time.Duration `yaml:"timeout"`

	// Sampler is "always", "never" or "ratio".
	Sampler     string  `yaml:"sampler"`
	SampleRatio float64 `yaml:"sample_ratio"`

	ServiceName string `yaml:"service_name"`
}

// SecurityConfig contains security-related configuration.
type SecurityConfig struct {
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig configures TLS termination on the listener.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}
