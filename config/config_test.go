package config

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("default port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.PRPC.MaxRetries != 3 {
		t.Errorf("default max retries: got %d, want 3", cfg.PRPC.MaxRetries)
	}
	if cfg.PRPC.BackoffBase != 1 || cfg.PRPC.BackoffCap != 8 {
		t.Errorf("default backoff: got %d/%d, want 1/8", cfg.PRPC.BackoffBase, cfg.PRPC.BackoffCap)
	}
	if cfg.Polling.CycleInterval != 30 {
		t.Errorf("default cycle interval: got %d, want 30", cfg.Polling.CycleInterval)
	}
	if cfg.Summary.TTL != 3600 {
		t.Errorf("default summary TTL: got %d, want 3600", cfg.Summary.TTL)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should default to disabled")
	}
	if cfg.MongoDB.Database != "pnodewatch" {
		t.Errorf("default database: got %s", cfg.MongoDB.Database)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PRPC_MAINNET_ENDPOINT", "http://example.com/prpc")
	t.Setenv("PRPC_TIMEOUT", "5")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_TTL", "15")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.PRPC.MainnetEndpoint != "http://example.com/prpc" {
		t.Errorf("endpoint: got %s", cfg.PRPC.MainnetEndpoint)
	}
	if cfg.PRPC.Timeout != 5 {
		t.Errorf("timeout: got %d, want 5", cfg.PRPC.Timeout)
	}
	if !cfg.Redis.Enabled {
		t.Error("redis should be enabled")
	}
	if cfg.Cache.TTL != 15 {
		t.Errorf("cache TTL: got %d, want 15", cfg.Cache.TTL)
	}
	if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("origins: got %v", cfg.Server.AllowedOrigins)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{}
	cfg.PRPC.Timeout = 30
	cfg.Cache.TTL = 45
	cfg.Polling.CycleInterval = 10

	if got := cfg.PRPCTimeoutDuration(); got != 30*time.Second {
		t.Errorf("PRPC timeout: got %v", got)
	}
	if got := cfg.CacheTTLDuration(); got != 45*time.Second {
		t.Errorf("cache TTL: got %v", got)
	}
	if got := cfg.CycleIntervalDuration(); got != 10*time.Second {
		t.Errorf("cycle interval: got %v", got)
	}
}

func TestEndpointSelectors(t *testing.T) {
	cfg := &Config{}
	cfg.PRPC.MainnetEndpoint = "http://mainnet.example"
	cfg.PRPC.DevnetEndpoint = "http://devnet.example"
	cfg.Credits.MainnetEndpoint = "http://credits-main.example"
	cfg.Credits.DevnetEndpoint = "http://credits-dev.example"

	if got := cfg.PRPCEndpoint("devnet"); got != "http://devnet.example" {
		t.Errorf("devnet proxy: got %s", got)
	}
	if got := cfg.PRPCEndpoint("mainnet"); got != "http://mainnet.example" {
		t.Errorf("mainnet proxy: got %s", got)
	}
	if got := cfg.CreditsEndpoint("devnet"); got != "http://credits-dev.example" {
		t.Errorf("devnet credits: got %s", got)
	}
}
