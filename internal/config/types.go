package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration to support string based YAML decoding.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration values expressed as Go-style strings or numbers interpreted as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		raw := strings.TrimSpace(value.Value)
		if raw == "" {
			d.Duration = 0
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err == nil {
			d.Duration = parsed
			return nil
		}
		secs, convErr := time.ParseDuration(fmt.Sprintf("%ss", raw))
		if convErr == nil {
			d.Duration = secs
			return nil
		}
		return fmt.Errorf("invalid duration value %q: %w", raw, err)
	default:
		return fmt.Errorf("unsupported duration node kind: %v", value.Kind)
	}
}

// MarshalYAML renders the duration as a string to keep config edits human-friendly.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds application level configuration aggregated from file and environment variables.
type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Logging        LoggingConfig        `yaml:"logging"`
	Diameter       DiameterConfig       `yaml:"diameter"`
	Cache          CacheConfig          `yaml:"cache"`
	RealmManager   RealmManagerConfig   `yaml:"realm_manager"`
	Sprout         SproutConfig         `yaml:"sprout"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// ServerConfig holds HTTP server configuration for the SIP-router-facing surface.
type ServerConfig struct {
	Address            string   `yaml:"address"`
	ReadTimeout        Duration `yaml:"read_timeout"`
	WriteTimeout       Duration `yaml:"write_timeout"`
	IdleTimeout        Duration `yaml:"idle_timeout"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	AdminMetricsAPIKey string   `yaml:"admin_metrics_api_key"` // optional key protecting /metrics and /_status/realms
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Format      string `yaml:"format"`      // json, console
	Environment string `yaml:"environment"` // production, staging, development
}

// DiameterConfig holds Cx peer and transaction configuration (spec.md §6 "Configuration").
type DiameterConfig struct {
	HSSConfigured      bool     `yaml:"hss_configured"`
	DestRealm          string   `yaml:"dest_realm"`
	DestHost           string   `yaml:"dest_host"`
	ServerName         string   `yaml:"server_name"`
	ConfFile           string   `yaml:"conf_file"`
	TransactionTimeout Duration `yaml:"transaction_timeout"` // default 200ms per spec.md §5
	DigestRealm        string   `yaml:"digest_realm"`        // used to synthesize a local digest AV when HSS is unconfigured
	DigestHA1          string   `yaml:"digest_ha1"`
	DigestQoP          string   `yaml:"digest_qop"`
}

// CacheConfig holds cache-request-layer TTL and backing-store configuration.
type CacheConfig struct {
	Backend               string       `yaml:"backend"` // "mongodb" or "postgres"
	ImpuCacheTTL          Duration     `yaml:"impu_cache_ttl"`
	HSSReregistrationTime Duration     `yaml:"hss_reregistration_time"`
	MongoDB               MongoConfig  `yaml:"mongodb"`
	Postgres              PostgresConfig `yaml:"postgres"`
}

// MongoConfig configures the MongoDB-backed Store.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// PostgresConfig configures the Postgres-backed Store.
type PostgresConfig struct {
	DSN  string             `yaml:"dsn"`
	Pool PostgresPoolConfig `yaml:"pool"`
}

// PostgresPoolConfig holds PostgreSQL connection pool settings.
type PostgresPoolConfig struct {
	MaxOpenConns    int      `yaml:"max_open_conns"`
	MaxIdleConns    int      `yaml:"max_idle_conns"`
	ConnMaxLifetime Duration `yaml:"conn_max_lifetime"`
}

// RealmManagerConfig configures the background Diameter peer resolver loop (C9).
type RealmManagerConfig struct {
	Realm          string   `yaml:"realm"`
	Hostname       string   `yaml:"hostname"`
	MaxPeers       int      `yaml:"max_peers"`
	ResolverFloor  Duration `yaml:"resolver_floor"` // longest re-resolve interval; a shorter resolver TTL is used as-is
}

// SproutConfig configures the downstream HTTP client used to notify the SIP router of deregistrations.
type SproutConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// RateLimitConfig holds rate limiting configuration for the HTTP surface.
type RateLimitConfig struct {
	GlobalEnabled  bool     `yaml:"global_enabled"`
	GlobalLimit    int      `yaml:"global_limit"`
	GlobalWindow   Duration `yaml:"global_window"`
	PerIPEnabled   bool     `yaml:"per_ip_enabled"`
	PerIPLimit     int      `yaml:"per_ip_limit"`
	PerIPWindow    Duration `yaml:"per_ip_window"`
	PerImpiEnabled bool     `yaml:"per_impi_enabled"`
	PerImpiLimit   int      `yaml:"per_impi_limit"`
	PerImpiWindow  Duration `yaml:"per_impi_window"`
}

// CircuitBreakerConfig holds circuit breaker configuration for external collaborators.
type CircuitBreakerConfig struct {
	Enabled bool                 `yaml:"enabled"`
	HSS     BreakerServiceConfig `yaml:"hss"`
	Store   BreakerServiceConfig `yaml:"store"`
	Sprout  BreakerServiceConfig `yaml:"sprout"`
}

// BreakerServiceConfig configures a circuit breaker for a specific external service.
type BreakerServiceConfig struct {
	MaxRequests         uint32   `yaml:"max_requests"`
	Interval            Duration `yaml:"interval"`
	Timeout             Duration `yaml:"timeout"`
	ConsecutiveFailures uint32   `yaml:"consecutive_failures"`
	FailureRatio        float64  `yaml:"failure_ratio"`
	MinRequests         uint32   `yaml:"min_requests"`
}
