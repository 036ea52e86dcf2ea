package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsDriver(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"9000\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverMemory || cfg.Server.Port != "9000" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	cfg, err = Load(writeConfig(t, "postgres:\n  url: postgres://localhost/quiz\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver when a url is set, got %q", cfg.Store.Driver)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("QUIZ_STORE_DRIVER", DriverSQLite)
	t.Setenv("QUIZ_AUTH_SECRET", "from-env")
	t.Setenv("QUIZ_REDIS_DB", "3")

	cfg, err := Load(writeConfig(t, "auth:\n  secret: from-file\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Auth.Secret != "from-env" || cfg.Redis.DB != 3 {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	if _, err := Load(writeConfig(t, "store:\n  driver: mongo\n")); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load shipped config: %v", err)
	}
	if cfg.Store.Driver != DriverSQLite {
		t.Fatalf("unexpected driver %q", cfg.Store.Driver)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
