package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "RPCGATE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of Default(), remaining zero values are
// defaulted and the result is validated.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML data into a defaulted Config without validating it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention RPCGATE_SECTION_FIELD (e.g., RPCGATE_PROXY_LISTEN_ADDRESS) and
// always take precedence over the file.
//
// An empty path skips the file entirely, so a deployment can be configured
// from the environment alone.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// lookupFunc matches os.LookupEnv so tests can supply a fake environment.
type lookupFunc func(key string) (string, bool)

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed values are reported as a ValidationError rather than ignored.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	var errs []FieldError

	str := func(name string, dst *string) {
		if val, ok := lookup(EnvPrefix + name); ok && val != "" {
			*dst = val
		}
	}
	boolean := func(name string, dst *bool) {
		val, ok := lookup(EnvPrefix + name)
		if !ok || val == "" {
			return
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvPrefix + name, Message: fmt.Sprintf("invalid boolean %q", val)})
			return
		}
		*dst = b
	}
	duration := func(name string, dst *time.Duration) {
		val, ok := lookup(EnvPrefix + name)
		if !ok || val == "" {
			return
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvPrefix + name, Message: fmt.Sprintf("invalid duration %q", val)})
			return
		}
		*dst = d
	}

	// Proxy overrides
	str("PROXY_LISTEN_ADDRESS", &cfg.Proxy.ListenAddress)
	str("PROXY_PATH", &cfg.Proxy.Path)
	str("PROXY_CALL_TRACKING_PATH", &cfg.Proxy.CallTrackingPath)
	duration("PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)

	// Backend overrides
	if val, ok := lookup(EnvPrefix + "BACKENDS_URLS"); ok && val != "" {
		urls, err := ParseURLList(val)
		if err != nil {
			errs = append(errs, FieldError{Field: EnvPrefix + "BACKENDS_URLS", Message: err.Error()})
		} else {
			cfg.Backends.URLs = urls
		}
	}

	// Store overrides
	str("STORE_BACKEND", &cfg.Store.Backend)
	str("STORE_REDIS_ADDRESS", &cfg.Store.Redis.Address)
	str("STORE_REDIS_USERNAME", &cfg.Store.Redis.Username)
	str("STORE_REDIS_PASSWORD", &cfg.Store.Redis.Password)

	// Rate limiting overrides
	boolean("RATE_LIMITING_GLOBAL_IP_ENABLED", &cfg.RateLimiting.GlobalIP.Enabled)
	boolean("RATE_LIMITING_PER_METHOD_IP_ENABLED", &cfg.RateLimiting.PerMethodIP.Enabled)

	// Call tracking and access log overrides
	boolean("CALL_TRACKING_ENABLED", &cfg.CallTracking.Enabled)
	str("CALL_TRACKING_BACKEND", &cfg.CallTracking.Backend)
	boolean("ACCESS_LOG_ENABLED", &cfg.AccessLog.Enabled)

	// Telemetry overrides
	str("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	str("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	boolean("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	str("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)

	// Security overrides
	boolean("SECURITY_TLS_ENABLED", &cfg.Security.TLS.Enabled)
	str("SECURITY_TLS_CERT_FILE", &cfg.Security.TLS.CertFile)
	str("SECURITY_TLS_KEY_FILE", &cfg.Security.TLS.KeyFile)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// ParseURLList parses either a JSON array of strings or a comma separated
// list. Blank entries are dropped.
func ParseURLList(val string) ([]string, error) {
	val = strings.TrimSpace(val)

	var raw []string
	if strings.HasPrefix(val, "[") {
		if err := json.Unmarshal([]byte(val), &raw); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
	} else {
		raw = strings.Split(val, ",")
	}

	urls := make([]string, 0, len(raw))
	for _, u := range raw {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	return urls, nil
}
