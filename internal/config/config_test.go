package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadConfig_RequiresHSSOrServerName(t *testing.T) {
	clearEnv()
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when hss_configured is true (the default) and dest_realm/dest_host are unset")
	}
	if !strings.Contains(err.Error(), "dest_realm") || !strings.Contains(err.Error(), "dest_host") {
		t.Errorf("expected error mentioning dest_realm and dest_host, got: %v", err)
	}
}

func TestLoadConfig_ValidMinimal(t *testing.T) {
	clearEnv()
	os.Setenv("HOMESTEAD_DEST_REALM", "ims.example.com")
	os.Setenv("HOMESTEAD_DEST_HOST", "hss.ims.example.com")
	defer clearEnv()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected no error with valid config, got: %v", err)
	}

	if cfg.Server.Address != ":8888" {
		t.Errorf("expected default address :8888, got %s", cfg.Server.Address)
	}
	if cfg.Cache.Backend != "mongodb" {
		t.Errorf("expected default cache backend mongodb, got %s", cfg.Cache.Backend)
	}
	if cfg.Cache.MongoDB.URI == "" {
		t.Error("expected default mongodb URI to be set")
	}
	if cfg.RealmManager.Realm != "ims.example.com" {
		t.Errorf("expected realm manager realm to default to dest_realm, got %s", cfg.RealmManager.Realm)
	}
}

func TestLoadConfig_UnconfiguredHSSRequiresServerName(t *testing.T) {
	clearEnv()
	os.Setenv("HOMESTEAD_HSS_CONFIGURED", "false")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when hss_configured is false and server_name is unset")
	}
	if !strings.Contains(err.Error(), "server_name") {
		t.Errorf("expected error about server_name, got: %v", err)
	}
}

func TestLoadConfig_PostgresBackendRequiresDSN(t *testing.T) {
	clearEnv()
	os.Setenv("HOMESTEAD_DEST_REALM", "ims.example.com")
	os.Setenv("HOMESTEAD_DEST_HOST", "hss.ims.example.com")
	os.Setenv("HOMESTEAD_CACHE_BACKEND", "postgres")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error when cache backend is postgres and dsn is unset")
	}
	if !strings.Contains(err.Error(), "postgres.dsn") {
		t.Errorf("expected error about postgres.dsn, got: %v", err)
	}
}

func TestLoadConfig_UnknownBackendRejected(t *testing.T) {
	clearEnv()
	os.Setenv("HOMESTEAD_DEST_REALM", "ims.example.com")
	os.Setenv("HOMESTEAD_DEST_HOST", "hss.ims.example.com")
	os.Setenv("HOMESTEAD_CACHE_BACKEND", "redis")
	defer clearEnv()

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for an unrecognized cache backend")
	}
	if !strings.Contains(err.Error(), "mongodb") {
		t.Errorf("expected error naming the valid backends, got: %v", err)
	}
}

func clearEnv() {
	envVars := []string{
		"HOMESTEAD_SERVER_ADDRESS", "HOMESTEAD_ADMIN_METRICS_API_KEY",
		"HOMESTEAD_LOG_LEVEL", "HOMESTEAD_LOG_FORMAT", "HOMESTEAD_ENVIRONMENT",
		"HOMESTEAD_HSS_CONFIGURED", "HOMESTEAD_DEST_REALM", "HOMESTEAD_DEST_HOST",
		"HOMESTEAD_SERVER_NAME", "HOMESTEAD_DIAMETER_CONF", "HOMESTEAD_TRANSACTION_TIMEOUT",
		"HOMESTEAD_DIGEST_REALM", "HOMESTEAD_DIGEST_HA1", "HOMESTEAD_DIGEST_QOP",
		"HOMESTEAD_CACHE_BACKEND", "HOMESTEAD_IMPU_CACHE_TTL", "HOMESTEAD_HSS_REREGISTRATION_TIME",
		"HOMESTEAD_MONGODB_URI", "HOMESTEAD_MONGODB_DATABASE", "HOMESTEAD_POSTGRES_DSN",
		"HOMESTEAD_REALM", "HOMESTEAD_HOSTNAME", "HOMESTEAD_MAX_PEERS", "HOMESTEAD_RESOLVER_FLOOR",
		"HOMESTEAD_SPROUT_BASE_URL", "HOMESTEAD_SPROUT_TIMEOUT",
		"HOMESTEAD_RATE_LIMIT_GLOBAL_ENABLED", "HOMESTEAD_RATE_LIMIT_GLOBAL_LIMIT",
		"HOMESTEAD_RATE_LIMIT_PER_IP_ENABLED", "HOMESTEAD_RATE_LIMIT_PER_IP_LIMIT",
		"HOMESTEAD_RATE_LIMIT_PER_IMPI_ENABLED", "HOMESTEAD_RATE_LIMIT_PER_IMPI_LIMIT",
		"HOMESTEAD_CIRCUIT_BREAKER_ENABLED",
	}
	for _, key := range envVars {
		os.Unsetenv(key)
	}
}
