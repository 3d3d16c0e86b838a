package config

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

// finalize applies defaults and validates the configuration.
func (c *Config) finalize() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Environment == "" {
		c.Logging.Environment = "production"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8888"
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "mongodb"
	}
	if c.Cache.ImpuCacheTTL.Duration <= 0 {
		c.Cache.ImpuCacheTTL = Duration{Duration: 30 * time.Second}
	}
	if c.Cache.HSSReregistrationTime.Duration <= 0 {
		c.Cache.HSSReregistrationTime = c.Cache.ImpuCacheTTL
	}

	if c.RealmManager.MaxPeers <= 0 {
		c.RealmManager.MaxPeers = 2
	}
	if c.RealmManager.ResolverFloor.Duration <= 0 {
		c.RealmManager.ResolverFloor = Duration{Duration: 10 * time.Second}
	}
	if c.RealmManager.Realm == "" {
		c.RealmManager.Realm = c.Diameter.DestRealm
	}

	if c.Diameter.TransactionTimeout.Duration <= 0 {
		c.Diameter.TransactionTimeout = Duration{Duration: 200 * time.Millisecond}
	}

	if c.Sprout.Timeout.Duration <= 0 {
		c.Sprout.Timeout = Duration{Duration: 2 * time.Second}
	}

	return c.validate()
}

// validate checks that required configuration fields are set correctly.
func (c *Config) validate() error {
	var errs []string

	if c.Diameter.HSSConfigured {
		if c.Diameter.DestRealm == "" {
			errs = append(errs, "diameter.dest_realm is required when hss_configured is true")
		}
		if c.Diameter.DestHost == "" {
			errs = append(errs, "diameter.dest_host is required when hss_configured is true")
		}
	} else {
		if c.Diameter.ServerName == "" {
			errs = append(errs, "diameter.server_name is required when hss_configured is false")
		}
	}

	switch c.Cache.Backend {
	case "mongodb":
		if c.Cache.MongoDB.URI == "" {
			errs = append(errs, "cache.mongodb.uri is required when cache.backend is 'mongodb'")
		}
	case "postgres":
		if c.Cache.Postgres.DSN == "" {
			errs = append(errs, "cache.postgres.dsn is required when cache.backend is 'postgres'")
		}
	default:
		errs = append(errs, "cache.backend must be 'mongodb' or 'postgres'")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ApplyPostgresPoolSettings applies connection pool settings to a database connection.
// If pool config is not specified, applies sensible defaults.
func ApplyPostgresPoolSettings(db *sql.DB, pool PostgresPoolConfig) {
	maxOpen := pool.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}

	maxIdle := pool.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}

	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}

	maxLifetime := pool.ConnMaxLifetime.Duration
	if maxLifetime <= 0 {
		maxLifetime = 5 * time.Minute
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
}
