package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := cfg.parseFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.finalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:      ":8888",
			ReadTimeout:  Duration{Duration: 15 * time.Second},
			WriteTimeout: Duration{Duration: 15 * time.Second},
			IdleTimeout:  Duration{Duration: 60 * time.Second},
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			Environment: "production",
		},
		Diameter: DiameterConfig{
			HSSConfigured:      true,
			TransactionTimeout: Duration{Duration: 200 * time.Millisecond},
		},
		Cache: CacheConfig{
			Backend:               "mongodb",
			ImpuCacheTTL:          Duration{Duration: 30 * time.Second},
			HSSReregistrationTime: Duration{Duration: 30 * time.Second},
			MongoDB: MongoConfig{
				URI:      "mongodb://localhost:27017",
				Database: "homestead_cache",
			},
			Postgres: PostgresConfig{
				Pool: PostgresPoolConfig{
					MaxOpenConns:    25,
					MaxIdleConns:    5,
					ConnMaxLifetime: Duration{Duration: 5 * time.Minute},
				},
			},
		},
		RealmManager: RealmManagerConfig{
			MaxPeers:      2,
			ResolverFloor: Duration{Duration: 10 * time.Second},
		},
		Sprout: SproutConfig{
			Timeout: Duration{Duration: 2 * time.Second},
		},
		RateLimit: RateLimitConfig{
			GlobalEnabled:  true,
			GlobalLimit:    5000,
			GlobalWindow:   Duration{Duration: 1 * time.Minute},
			PerIPEnabled:   true,
			PerIPLimit:     600,
			PerIPWindow:    Duration{Duration: 1 * time.Minute},
			PerImpiEnabled: true,
			PerImpiLimit:   60,
			PerImpiWindow:  Duration{Duration: 1 * time.Minute},
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled: true,
			HSS: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 30 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.5,
				MinRequests:         10,
			},
			Store: BreakerServiceConfig{
				MaxRequests:         5,
				Interval:            Duration{Duration: 30 * time.Second},
				Timeout:             Duration{Duration: 15 * time.Second},
				ConsecutiveFailures: 5,
				FailureRatio:        0.6,
				MinRequests:         10,
			},
			Sprout: BreakerServiceConfig{
				MaxRequests:         3,
				Interval:            Duration{Duration: 60 * time.Second},
				Timeout:             Duration{Duration: 30 * time.Second},
				ConsecutiveFailures: 8,
				FailureRatio:        0.6,
				MinRequests:         15,
			},
		},
	}
}

// parseFile reads and unmarshals a YAML configuration file.
func (c *Config) parseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}
