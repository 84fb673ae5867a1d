package httpconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.PoolTotalLimit != 100 || cfg.PoolPerHostLimit != 0 {
		t.Fatalf("unexpected pool defaults: %+v", cfg)
	}
	if cfg.KeepAlive != 75*time.Second || cfg.Lifetime != 15*time.Second {
		t.Fatalf("unexpected keep-alive/lifetime defaults: %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "httpcore.yaml")
	body := "router_prefix: /api\npool_total_limit: 250\nkeep_alive: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg := m.Config()
	if cfg.RouterPrefix != "/api" {
		t.Fatalf("router_prefix = %q, want /api", cfg.RouterPrefix)
	}
	if cfg.PoolTotalLimit != 250 {
		t.Fatalf("pool_total_limit = %d, want 250", cfg.PoolTotalLimit)
	}
	// Unspecified fields keep their default, merge is non-destructive.
	if cfg.PoolPerHostLimit != 0 {
		t.Fatalf("pool_per_host_limit should keep default 0, got %d", cfg.PoolPerHostLimit)
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "httpcore.toml")
	body := "router_prefix = \"/v2\"\npool_per_host_limit = 4\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	m := NewManager()
	if err := m.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg := m.Config(); cfg.RouterPrefix != "/v2" || cfg.PoolPerHostLimit != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFromEnvOverride(t *testing.T) {
	t.Setenv("HTTPCORE_POOL_TOTAL_LIMIT", "7")
	t.Setenv("HTTPCORE_KEEP_ALIVE", "9s")

	m := NewManager()
	m.LoadFromEnv()
	cfg := m.Config()
	if cfg.PoolTotalLimit != 7 {
		t.Fatalf("pool_total_limit = %d, want 7", cfg.PoolTotalLimit)
	}
	if cfg.KeepAlive != 9*time.Second {
		t.Fatalf("keep_alive = %v, want 9s", cfg.KeepAlive)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "httpcore.ini")
	if err := os.WriteFile(path, []byte("x=1"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	m := NewManager()
	if err := m.Load(path); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}
