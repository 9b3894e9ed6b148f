package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HISTORY_STORE", StoreMemory)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HistoryKey != "searchHistory" {
		t.Fatalf("expected default history key, got %q", cfg.HistoryKey)
	}
	if cfg.PlacesTimeout != 10*time.Second {
		t.Fatalf("expected 10s places timeout, got %v", cfg.PlacesTimeout)
	}
	if cfg.IsAuthEnabled() {
		t.Fatalf("expected auth to be disabled without a secret")
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("HISTORY_STORE", "floppy")
	if _, err := Load(); err == nil {
		t.Fatalf("expected unknown store to be rejected")
	}
}

func TestLoadRequiresBackendSettings(t *testing.T) {
	t.Setenv("HISTORY_STORE", StoreRedis)
	t.Setenv("REDIS_URL", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected redis store without REDIS_URL to be rejected")
	}

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected valid redis config, got %v", err)
	}
	if cfg.GetRedisURL() != "redis://localhost:6379/0" {
		t.Fatalf("unexpected redis url %q", cfg.GetRedisURL())
	}
}

func TestCORSWildcardAllowsAll(t *testing.T) {
	t.Setenv("HISTORY_STORE", StoreMemory)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.GetCORSAllowAll() {
		t.Fatalf("expected wildcard origin to allow all")
	}

	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	if _, err := Load(); err == nil {
		t.Fatalf("expected credentials with wildcard origin to be rejected")
	}
}
