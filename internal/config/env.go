package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over YAML configuration.
// All env vars use HOMESTEAD_ prefix for namespace isolation.
func (c *Config) applyEnvOverrides() {
	setIfEnv(&c.Server.Address, "HOMESTEAD_SERVER_ADDRESS")
	setIfEnv(&c.Server.AdminMetricsAPIKey, "HOMESTEAD_ADMIN_METRICS_API_KEY")

	setIfEnv(&c.Logging.Level, "HOMESTEAD_LOG_LEVEL")
	setIfEnv(&c.Logging.Format, "HOMESTEAD_LOG_FORMAT")
	setIfEnv(&c.Logging.Environment, "HOMESTEAD_ENVIRONMENT")

	setBoolIfEnv(&c.Diameter.HSSConfigured, "HOMESTEAD_HSS_CONFIGURED")
	setIfEnv(&c.Diameter.DestRealm, "HOMESTEAD_DEST_REALM")
	setIfEnv(&c.Diameter.DestHost, "HOMESTEAD_DEST_HOST")
	setIfEnv(&c.Diameter.ServerName, "HOMESTEAD_SERVER_NAME")
	setIfEnv(&c.Diameter.ConfFile, "HOMESTEAD_DIAMETER_CONF")
	setDurationIfEnv(&c.Diameter.TransactionTimeout, "HOMESTEAD_TRANSACTION_TIMEOUT")
	setIfEnv(&c.Diameter.DigestRealm, "HOMESTEAD_DIGEST_REALM")
	setIfEnv(&c.Diameter.DigestHA1, "HOMESTEAD_DIGEST_HA1")
	setIfEnv(&c.Diameter.DigestQoP, "HOMESTEAD_DIGEST_QOP")

	setIfEnv(&c.Cache.Backend, "HOMESTEAD_CACHE_BACKEND")
	setDurationIfEnv(&c.Cache.ImpuCacheTTL, "HOMESTEAD_IMPU_CACHE_TTL")
	setDurationIfEnv(&c.Cache.HSSReregistrationTime, "HOMESTEAD_HSS_REREGISTRATION_TIME")
	setIfEnv(&c.Cache.MongoDB.URI, "HOMESTEAD_MONGODB_URI")
	setIfEnv(&c.Cache.MongoDB.Database, "HOMESTEAD_MONGODB_DATABASE")
	setIfEnv(&c.Cache.Postgres.DSN, "HOMESTEAD_POSTGRES_DSN")

	setIfEnv(&c.RealmManager.Realm, "HOMESTEAD_REALM")
	setIfEnv(&c.RealmManager.Hostname, "HOMESTEAD_HOSTNAME")
	setIntIfEnv(&c.RealmManager.MaxPeers, "HOMESTEAD_MAX_PEERS")
	setDurationIfEnv(&c.RealmManager.ResolverFloor, "HOMESTEAD_RESOLVER_FLOOR")

	setIfEnv(&c.Sprout.BaseURL, "HOMESTEAD_SPROUT_BASE_URL")
	setDurationIfEnv(&c.Sprout.Timeout, "HOMESTEAD_SPROUT_TIMEOUT")

	setBoolIfEnv(&c.RateLimit.GlobalEnabled, "HOMESTEAD_RATE_LIMIT_GLOBAL_ENABLED")
	setIntIfEnv(&c.RateLimit.GlobalLimit, "HOMESTEAD_RATE_LIMIT_GLOBAL_LIMIT")
	setBoolIfEnv(&c.RateLimit.PerIPEnabled, "HOMESTEAD_RATE_LIMIT_PER_IP_ENABLED")
	setIntIfEnv(&c.RateLimit.PerIPLimit, "HOMESTEAD_RATE_LIMIT_PER_IP_LIMIT")
	setBoolIfEnv(&c.RateLimit.PerImpiEnabled, "HOMESTEAD_RATE_LIMIT_PER_IMPI_ENABLED")
	setIntIfEnv(&c.RateLimit.PerImpiLimit, "HOMESTEAD_RATE_LIMIT_PER_IMPI_LIMIT")

	setBoolIfEnv(&c.CircuitBreaker.Enabled, "HOMESTEAD_CIRCUIT_BREAKER_ENABLED")
}

// setIfEnv sets a string pointer to the environment variable value if it exists.
func setIfEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

// setBoolIfEnv sets a boolean pointer from an environment variable.
// Accepts "1", "true", "TRUE", "True" as true values.
func setBoolIfEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v == "1" || strings.EqualFold(v, "true")
	}
}

// setIntIfEnv sets an int pointer from an environment variable.
func setIntIfEnv(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}

// setDurationIfEnv sets a Duration pointer from an environment variable.
// Uses time.ParseDuration to parse values like "5m", "120s", "1h30m".
func setDurationIfEnv(target *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			*target = Duration{Duration: dur}
		}
	}
}
