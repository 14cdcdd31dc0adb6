package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: false
platform:
  name: reddit
  source: nightly
  domains: ["reddit.com"]
  mirror_host: old.reddit.com
interactive:
  headless: false
  nav_timeout: 45s
  max_attempts: 5
  settle_min: 0s
  settle_max: 0s
passive:
  timeout: 10s
  domain_qps: 2.5
stealth:
  user_agents: ["ua-1"]
  seed: 7
store:
  driver: postgres
  postgres:
    dsn: postgres://u:p@localhost/db
    table: posts
server:
  port: 9090
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Development {
		t.Fatalf("expected production logging")
	}
	if cfg.Platform.Source != "nightly" || len(cfg.Platform.Domains) != 1 {
		t.Fatalf("expected platform overrides to apply: %+v", cfg.Platform)
	}
	if cfg.Interactive.Headless || cfg.Interactive.NavTimeout != 45*time.Second || cfg.Interactive.MaxAttempts != 5 {
		t.Fatalf("expected interactive overrides to apply: %+v", cfg.Interactive)
	}
	if cfg.Passive.Timeout != 10*time.Second || cfg.Passive.DomainQPS != 2.5 {
		t.Fatalf("expected passive overrides to apply: %+v", cfg.Passive)
	}
	if cfg.Stealth.Seed != 7 || len(cfg.Stealth.UserAgents) != 1 {
		t.Fatalf("expected stealth overrides to apply: %+v", cfg.Stealth)
	}
	if cfg.Store.Driver != StorePostgres || cfg.Store.Postgres.Table != "posts" {
		t.Fatalf("expected store overrides to apply: %+v", cfg.Store)
	}
	if cfg.Store.Postgres.MaxConns != 4 {
		t.Fatalf("expected default max_conns 4, got %d", cfg.Store.Postgres.MaxConns)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Platform.Name != "reddit" || cfg.Platform.MirrorHost != "old.reddit.com" {
		t.Fatalf("unexpected platform defaults: %+v", cfg.Platform)
	}
	if len(cfg.Platform.MirrorDomains) != 1 || cfg.Platform.MirrorDomains[0] != "reddit.com" {
		t.Fatalf("unexpected mirror domains: %v", cfg.Platform.MirrorDomains)
	}
	if cfg.Interactive.MaxAttempts != 3 || cfg.Interactive.ContentLimit != 80 {
		t.Fatalf("unexpected interactive defaults: %+v", cfg.Interactive)
	}
	if cfg.Interactive.SettleMin != 1200*time.Millisecond || cfg.Interactive.SettleMax != 3*time.Second {
		t.Fatalf("unexpected settle defaults: %+v", cfg.Interactive)
	}
	if cfg.Extract.MaxLinks != 20 || cfg.Extract.AnchorScanLimit != 100 {
		t.Fatalf("unexpected extract defaults: %+v", cfg.Extract)
	}
	if cfg.Store.Driver != StoreNone {
		t.Fatalf("expected no store by default, got %q", cfg.Store.Driver)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read config") {
		t.Fatalf("expected read config error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no domains", func(c *Config) { c.Platform.Domains = nil }, "platform.domains"},
		{"nav timeout", func(c *Config) { c.Interactive.NavTimeout = 0 }, "interactive.nav_timeout"},
		{"settle range", func(c *Config) { c.Interactive.SettleMax = time.Millisecond }, "interactive.settle_max"},
		{"passive attempts", func(c *Config) { c.Passive.MaxAttempts = 0 }, "passive.max_attempts"},
		{"postgres dsn", func(c *Config) { c.Store.Driver = StorePostgres }, "store.postgres.dsn"},
		{"redis addr", func(c *Config) { c.Store.Driver = StoreRedis }, "store.redis.addr"},
		{"driver", func(c *Config) { c.Store.Driver = "mongo" }, "store.driver"},
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"body limit", func(c *Config) { c.Server.MaxBodyBytes = 0 }, "server.max_body_bytes"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EXTRACTOR_SERVER_PORT", "7070")
	t.Setenv("EXTRACTOR_INTERACTIVE_NAV_TIMEOUT", "12s")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Interactive.NavTimeout != 12*time.Second {
		t.Fatalf("expected env nav timeout 12s, got %v", cfg.Interactive.NavTimeout)
	}
}
