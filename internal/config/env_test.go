package config

import (
	"os"
	"testing"
	"time"
)

func TestEnvOverrides_ServerConfig(t *testing.T) {
	defer clearEnv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "HOMESTEAD_SERVER_ADDRESS overrides default",
			envVars: map[string]string{
				"HOMESTEAD_SERVER_ADDRESS": ":3000",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.Address != ":3000" {
					t.Errorf("expected :3000, got %s", cfg.Server.Address)
				}
			},
		},
		{
			name: "HOMESTEAD_ADMIN_METRICS_API_KEY override",
			envVars: map[string]string{
				"HOMESTEAD_ADMIN_METRICS_API_KEY": "s3cr3t",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Server.AdminMetricsAPIKey != "s3cr3t" {
					t.Errorf("expected s3cr3t, got %s", cfg.Server.AdminMetricsAPIKey)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvOverrides_DiameterConfig(t *testing.T) {
	defer clearEnv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "HOMESTEAD_DEST_REALM and HOMESTEAD_DEST_HOST override",
			envVars: map[string]string{
				"HOMESTEAD_DEST_REALM": "ims.example.com",
				"HOMESTEAD_DEST_HOST":  "hss01.ims.example.com",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Diameter.DestRealm != "ims.example.com" {
					t.Errorf("expected ims.example.com, got %s", cfg.Diameter.DestRealm)
				}
				if cfg.Diameter.DestHost != "hss01.ims.example.com" {
					t.Errorf("expected hss01.ims.example.com, got %s", cfg.Diameter.DestHost)
				}
			},
		},
		{
			name: "HOMESTEAD_HSS_CONFIGURED boolean (false)",
			envVars: map[string]string{
				"HOMESTEAD_HSS_CONFIGURED": "false",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Diameter.HSSConfigured {
					t.Error("expected HSSConfigured to be false")
				}
			},
		},
		{
			name: "HOMESTEAD_TRANSACTION_TIMEOUT duration override",
			envVars: map[string]string{
				"HOMESTEAD_TRANSACTION_TIMEOUT": "500ms",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Diameter.TransactionTimeout.Duration != 500*time.Millisecond {
					t.Errorf("expected 500ms, got %v", cfg.Diameter.TransactionTimeout.Duration)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvOverrides_CacheConfig(t *testing.T) {
	defer clearEnv()

	tests := []struct {
		name      string
		envVars   map[string]string
		checkFunc func(*testing.T, *Config)
	}{
		{
			name: "HOMESTEAD_CACHE_BACKEND override",
			envVars: map[string]string{
				"HOMESTEAD_CACHE_BACKEND": "postgres",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Backend != "postgres" {
					t.Errorf("expected postgres, got %s", cfg.Cache.Backend)
				}
			},
		},
		{
			name: "HOMESTEAD_IMPU_CACHE_TTL duration override",
			envVars: map[string]string{
				"HOMESTEAD_IMPU_CACHE_TTL": "90s",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Cache.ImpuCacheTTL.Duration != 90*time.Second {
					t.Errorf("expected 90s, got %v", cfg.Cache.ImpuCacheTTL.Duration)
				}
			},
		},
		{
			name: "HOMESTEAD_POSTGRES_DSN override",
			envVars: map[string]string{
				"HOMESTEAD_POSTGRES_DSN": "postgres://user:pass@db:5432/homestead",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Postgres.DSN != "postgres://user:pass@db:5432/homestead" {
					t.Errorf("unexpected DSN: %s", cfg.Cache.Postgres.DSN)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg := defaultConfig()
			cfg.applyEnvOverrides()
			tt.checkFunc(t, cfg)
		})
	}
}

func TestEnvOverrides_RealmManagerConfig(t *testing.T) {
	defer clearEnv()

	clearEnv()
	os.Setenv("HOMESTEAD_REALM", "ims.example.com")
	os.Setenv("HOMESTEAD_HOSTNAME", "homestead01.ims.example.com")
	os.Setenv("HOMESTEAD_MAX_PEERS", "4")
	os.Setenv("HOMESTEAD_RESOLVER_FLOOR", "30s")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()

	if cfg.RealmManager.Realm != "ims.example.com" {
		t.Errorf("expected ims.example.com, got %s", cfg.RealmManager.Realm)
	}
	if cfg.RealmManager.Hostname != "homestead01.ims.example.com" {
		t.Errorf("expected homestead01.ims.example.com, got %s", cfg.RealmManager.Hostname)
	}
	if cfg.RealmManager.MaxPeers != 4 {
		t.Errorf("expected 4, got %d", cfg.RealmManager.MaxPeers)
	}
	if cfg.RealmManager.ResolverFloor.Duration != 30*time.Second {
		t.Errorf("expected 30s, got %v", cfg.RealmManager.ResolverFloor.Duration)
	}
}

func TestEnvOverrides_RateLimitConfig(t *testing.T) {
	defer clearEnv()

	clearEnv()
	os.Setenv("HOMESTEAD_RATE_LIMIT_GLOBAL_ENABLED", "false")
	os.Setenv("HOMESTEAD_RATE_LIMIT_PER_IMPI_LIMIT", "120")

	cfg := defaultConfig()
	cfg.applyEnvOverrides()

	if cfg.RateLimit.GlobalEnabled {
		t.Error("expected GlobalEnabled to be false")
	}
	if cfg.RateLimit.PerImpiLimit != 120 {
		t.Errorf("expected 120, got %d", cfg.RateLimit.PerImpiLimit)
	}
}
