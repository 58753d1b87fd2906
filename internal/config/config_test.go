package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "CACHE_BACKEND", "PROVIDER_TIMEOUT", "ROUTE_CACHE_TTL", "REDIS_DB"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Port)
	}
	if cfg.CacheBackend != CacheBackendSqlite {
		t.Errorf("cache backend = %q, want sqlite", cfg.CacheBackend)
	}
	if cfg.ProviderTimeout != 10*time.Second {
		t.Errorf("provider timeout = %v, want 10s", cfg.ProviderTimeout)
	}
	if cfg.RouteCacheTTL != 30*24*time.Hour {
		t.Errorf("route cache ttl = %v, want 720h", cfg.RouteCacheTTL)
	}
}

func TestLoadRejectsPostgresWithoutURL(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for postgres backend without DATABASE_URL")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable PROVIDER_TIMEOUT")
	}
}
