package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateBackends(&cfg.Backends)...)
	errs = append(errs, validateStore(&cfg.Store)...)
	errs = append(errs, validateRateLimiting(&cfg.RateLimiting)...)
	errs = append(errs, validateCallTracking(&cfg.CallTracking)...)
	errs = append(errs, validateAccessLog(&cfg.AccessLog)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	}

	if !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "proxy.path",
			Message: "path must start with '/'",
		})
	}
	if !strings.HasPrefix(cfg.CallTrackingPath, "/") || cfg.CallTrackingPath == "/" {
		errs = append(errs, FieldError{
			Field:   "proxy.call_tracking_path",
			Message: "path must start with '/' and must not be the root path",
		})
	}
	if cfg.CallTrackingPath == cfg.Path {
		errs = append(errs, FieldError{
			Field:   "proxy.call_tracking_path",
			Message: "must differ from proxy.path",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "proxy.max_header_bytes", Message: "max header bytes must be non-negative"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "proxy.max_body_bytes", Message: "max body bytes must be positive"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{Field: "proxy.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}

	return errs
}

func validateBackends(cfg *BackendsConfig) []FieldError {
	var errs []FieldError

	if len(cfg.URLs) == 0 {
		errs = append(errs, FieldError{
			Field:   "backends.urls",
			Message: "at least one backend URL is required",
		})
	}

	for i, raw := range cfg.URLs {
		field := fmt.Sprintf("backends.urls[%d]", i)
		u, err := url.Parse(raw)
		if err != nil {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)})
			continue
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, FieldError{Field: field, Message: "URL scheme must be http or https"})
		}
		if u.Host == "" {
			errs = append(errs, FieldError{Field: field, Message: "URL must include a host"})
		}
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "backends.timeout", Message: "timeout must be positive"})
	}
	if cfg.MaxIdleConnsPerHost < 0 {
		errs = append(errs, FieldError{Field: "backends.max_idle_conns_per_host", Message: "must be non-negative"})
	}

	return errs
}

func validateStore(cfg *StoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "redis":
		if cfg.Redis.Address == "" {
			errs = append(errs, FieldError{Field: "store.redis.address", Message: "address is required for redis store"})
		}
		if cfg.Redis.DB < 0 {
			errs = append(errs, FieldError{Field: "store.redis.db", Message: "db must be non-negative"})
		}
		if cfg.Redis.PoolSize < 0 {
			errs = append(errs, FieldError{Field: "store.redis.pool_size", Message: "pool size must be non-negative"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "store.backend",
			Message: fmt.Sprintf("unsupported store backend %q (valid: redis, memory)", cfg.Backend),
		})
	}

	return errs
}

func validateRateLimiting(cfg *RateLimitingConfig) []FieldError {
	var errs []FieldError

	if cfg.GlobalIP.Requests <= 0 {
		errs = append(errs, FieldError{Field: "rate_limiting.global_ip.requests", Message: "requests must be positive"})
	}
	if cfg.GlobalIP.TimeWindow <= 0 {
		errs = append(errs, FieldError{Field: "rate_limiting.global_ip.time_window", Message: "time window must be positive"})
	}
	if cfg.GlobalIP.LocalCacheSize <= 0 {
		errs = append(errs, FieldError{Field: "rate_limiting.global_ip.local_cache_size", Message: "local cache size must be positive"})
	}

	if cfg.PerMethodIP.LocalCacheSize <= 0 {
		errs = append(errs, FieldError{Field: "rate_limiting.per_method_ip.local_cache_size", Message: "local cache size must be positive"})
	}
	for method, limit := range cfg.PerMethodIP.Methods {
		prefix := fmt.Sprintf("rate_limiting.per_method_ip.methods.%s", method)
		if method == "" {
			errs = append(errs, FieldError{Field: prefix, Message: "method name must not be empty"})
		}
		if limit.Requests <= 0 {
			errs = append(errs, FieldError{Field: prefix + ".requests", Message: "requests must be provided and positive"})
		}
		if limit.TimeWindow <= 0 {
			errs = append(errs, FieldError{Field: prefix + ".time_window", Message: "time window must be provided and positive"})
		}
	}

	if _, err := cron.ParseStandard(cfg.CacheSweepSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "rate_limiting.cache_sweep_schedule",
			Message: fmt.Sprintf("invalid cron schedule: %v", err),
		})
	}

	return errs
}

func validateCallTracking(cfg *CallTrackingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "redis", "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "call_tracking.sqlite.path", Message: "path is required for sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "call_tracking.backend",
			Message: fmt.Sprintf("unsupported backend %q (valid: redis, sqlite, memory)", cfg.Backend),
		})
	}

	if cfg.FlushInterval <= 0 {
		errs = append(errs, FieldError{Field: "call_tracking.flush_interval", Message: "flush interval must be positive"})
	}
	if strings.Contains(cfg.KeyPrefix, ":") {
		errs = append(errs, FieldError{Field: "call_tracking.key_prefix", Message: "key prefix must not contain ':'"})
	}

	return errs
}

func validateAccessLog(cfg *AccessLogConfig) []FieldError {
	var errs []FieldError

	switch cfg.Output {
	case "stdout":
	case "file":
		if cfg.File.Path == "" {
			errs = append(errs, FieldError{Field: "access_log.file.path", Message: "path is required for file output"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "access_log.output",
			Message: fmt.Sprintf("unsupported output %q (valid: stdout, file)", cfg.Output),
		})
	}

	if cfg.FlushInterval <= 0 {
		errs = append(errs, FieldError{Field: "access_log.flush_interval", Message: "flush interval must be positive"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with '/'"})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (valid: always, never, ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0.0 and 1.0"})
		}
	}

	return errs
}

func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.cert_file", Message: "cert file is required when TLS is enabled"})
		}
		if cfg.TLS.KeyFile == "" {
			errs = append(errs, FieldError{Field: "security.tls.key_file", Message: "key file is required when TLS is enabled"})
		}
	}

	return errs
}
