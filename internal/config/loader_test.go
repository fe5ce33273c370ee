package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Port != "8000" {
		t.Errorf("expected port 8000, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.TickInterval != time.Second {
		t.Errorf("expected tick interval 1s, got %v", cfg.Scheduler.TickInterval)
	}
	if !slices.Equal(cfg.Dispatch.Notifiers, []string{"log"}) {
		t.Errorf("expected [log] notifiers, got %v", cfg.Dispatch.Notifiers)
	}
	if cfg.NATS.URL != "" || cfg.Postgres.DSN != "" {
		t.Error("NATS and Postgres must be disabled by default")
	}
	if err := validate(&cfg); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoadYAMLOverride(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "test.yaml")

	content := `
server:
  port: "9090"
scheduler:
  tick_interval: 250ms
  max_parallel: 2
dispatch:
  notifiers: [log, webhook]
notifier:
  webhook_url: http://workers.local/notify
logging:
  level: "debug"
`
	if err := os.WriteFile(yamlPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Defaults()
	if err := loadYAML(&cfg, yamlPath); err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Scheduler.TickInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", cfg.Scheduler.TickInterval)
	}
	if cfg.Scheduler.MaxParallel != 2 {
		t.Errorf("expected max_parallel 2, got %d", cfg.Scheduler.MaxParallel)
	}
	if !slices.Equal(cfg.Dispatch.Notifiers, []string{"log", "webhook"}) {
		t.Errorf("unexpected notifiers %v", cfg.Dispatch.Notifiers)
	}
	// Unchanged fields keep defaults
	if cfg.Dispatch.Breaker.MaxFailures != 5 {
		t.Errorf("expected default breaker failures, got %d", cfg.Dispatch.Breaker.MaxFailures)
	}
}

func TestLoadYAMLMissing(t *testing.T) {
	cfg := Defaults()
	if err := loadYAML(&cfg, "/nonexistent/path.yaml"); err != nil {
		t.Errorf("missing YAML should not error, got %v", err)
	}
}

func TestLoadYAMLInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := Defaults()
	if err := loadYAML(&cfg, path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Defaults()

	t.Setenv("BLACKBOARD_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://test:test@db:5432/test")
	t.Setenv("NATS_URL", "nats://nats:4222")
	t.Setenv("BLACKBOARD_NOTIFIERS", "log, nats ,")
	t.Setenv("BLACKBOARD_TICK_INTERVAL", "2s")
	t.Setenv("BLACKBOARD_LOG_ASYNC", "true")
	t.Setenv("BLACKBOARD_MAX_PARALLEL", "not-a-number")

	loadEnv(&cfg)

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port 7070, got %s", cfg.Server.Port)
	}
	if cfg.Postgres.DSN != "postgres://test:test@db:5432/test" {
		t.Errorf("unexpected DSN %s", cfg.Postgres.DSN)
	}
	if cfg.NATS.URL != "nats://nats:4222" {
		t.Errorf("unexpected NATS URL %s", cfg.NATS.URL)
	}
	if !slices.Equal(cfg.Dispatch.Notifiers, []string{"log", "nats"}) {
		t.Errorf("unexpected notifiers %v", cfg.Dispatch.Notifiers)
	}
	if cfg.Scheduler.TickInterval != 2*time.Second {
		t.Errorf("expected 2s, got %v", cfg.Scheduler.TickInterval)
	}
	if !cfg.Logging.Async {
		t.Error("expected async logging")
	}
	if cfg.Scheduler.MaxParallel != 16 {
		t.Errorf("invalid int must be ignored, got %d", cfg.Scheduler.MaxParallel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }, "server.port"},
		{"zero tick", func(c *Config) { c.Scheduler.TickInterval = 0 }, "tick_interval"},
		{"zero parallel", func(c *Config) { c.Scheduler.MaxParallel = 0 }, "max_parallel"},
		{"no notifiers", func(c *Config) { c.Dispatch.Notifiers = nil }, "at least one"},
		{"unknown notifier", func(c *Config) { c.Dispatch.Notifiers = []string{"pigeon"} }, "unknown notifier"},
		{"nats without url", func(c *Config) { c.Dispatch.Notifiers = []string{"nats"} }, "nats.url"},
		{"webhook without url", func(c *Config) { c.Dispatch.Notifiers = []string{"webhook"} }, "webhook_url"},
		{"slack without url", func(c *Config) { c.Dispatch.Notifiers = []string{"slack"} }, "slack_webhook_url"},
		{"discord without url", func(c *Config) { c.Dispatch.Notifiers = []string{"discord"} }, "discord_webhook_url"},
		{"yaml planner without file", func(c *Config) { c.Planner.Kind = "yaml" }, "planner.file"},
		{"unknown planner", func(c *Config) { c.Planner.Kind = "oracle" }, "unknown planner"},
		{"mcp without addr", func(c *Config) { c.MCP.Addr = "" }, "mcp.addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := validate(&cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromFullHierarchy(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(yamlPath, []byte(`
server:
  port: "9090"
logging:
  level: "debug"
`), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BLACKBOARD_PORT", "7070")

	cfg, err := LoadFrom(yamlPath)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Server.Port != "7070" {
		t.Errorf("env must win over YAML, got %s", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("YAML must win over defaults, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromInvalidConfig(t *testing.T) {
	t.Setenv("BLACKBOARD_NOTIFIERS", "pigeon")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected validation error")
	}
}
