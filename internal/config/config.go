// Package config provides hierarchical configuration loading for the blackboard.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the blackboard service.
type Config struct {
	Server      Server      `yaml:"server"`
	Logging     Logging     `yaml:"logging"`
	Scheduler   Scheduler   `yaml:"scheduler"`
	Dispatch    Dispatch    `yaml:"dispatch"`
	Notifier    Notifier    `yaml:"notifier"`
	NATS        NATS        `yaml:"nats"`
	Postgres    Postgres    `yaml:"postgres"`
	MCP         MCP         `yaml:"mcp"`
	Planner     Planner     `yaml:"planner"`
	Cache       Cache       `yaml:"cache"`
	Idempotency Idempotency `yaml:"idempotency"`
	OTEL        OTEL        `yaml:"otel"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
	BaseURL    string `yaml:"base_url"` // advertised in the A2A agent card
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Scheduler holds the dependency scheduler configuration.
type Scheduler struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	MaxParallel  int           `yaml:"max_parallel"` // concurrent dispatches
}

// Dispatch holds the dispatch coordinator configuration.
type Dispatch struct {
	Notifiers []string `yaml:"notifiers"` // "log", "nats", "webhook", "slack", "discord"
	Breaker   Breaker  `yaml:"breaker"`
}

// Breaker holds circuit breaker configuration.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Notifier holds settings for the HTTP-based worker notifiers.
type Notifier struct {
	WebhookURL        string        `yaml:"webhook_url"`
	SlackWebhookURL   string        `yaml:"slack_webhook_url"`
	DiscordWebhookURL string        `yaml:"discord_webhook_url"`
	Timeout           time.Duration `yaml:"timeout"`
}

// NATS holds NATS JetStream configuration. An empty URL disables NATS.
type NATS struct {
	URL string `yaml:"url"`
}

// Postgres holds the event journal connection. An empty DSN disables it.
type Postgres struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
	HealthCheck     time.Duration `yaml:"health_check"`
}

// MCP holds the tool server configuration.
type MCP struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// Planner selects how POST /plan turns a prompt into tasks.
type Planner struct {
	Kind  string `yaml:"kind"`  // "template" | "yaml"
	File  string `yaml:"file"`  // plan file for the yaml planner
	Watch bool   `yaml:"watch"` // reload File when it changes
}

// Cache holds tiered cache configuration.
type Cache struct {
	L1MaxSizeMB int64         `yaml:"l1_max_size_mb"`
	L2Bucket    string        `yaml:"l2_bucket"`
	L2TTL       time.Duration `yaml:"l2_ttl"`
}

// Idempotency holds Idempotency-Key middleware configuration.
type Idempotency struct {
	TTL time.Duration `yaml:"ttl"`
}

// OTEL holds OpenTelemetry export configuration.
type OTEL struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8000",
			CORSOrigin: "*",
			BaseURL:    "http://localhost:8000",
		},
		Logging: Logging{
			Level:   "info",
			Service: "blackboard",
		},
		Scheduler: Scheduler{
			TickInterval: time.Second,
			MaxParallel:  16,
		},
		Dispatch: Dispatch{
			Notifiers: []string{"log"},
			Breaker: Breaker{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		Notifier: Notifier{
			Timeout: 10 * time.Second,
		},
		Postgres: Postgres{
			MaxConns:        5,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 10 * time.Minute,
			HealthCheck:     time.Minute,
		},
		MCP: MCP{
			Enabled: true,
			Addr:    ":8001",
			Name:    "blackboard",
			Version: "2.0.0",
		},
		Planner: Planner{
			Kind: "template",
		},
		Cache: Cache{
			L1MaxSizeMB: 16,
			L2Bucket:    "BLACKBOARD_CACHE",
			L2TTL:       10 * time.Minute,
		},
		Idempotency: Idempotency{
			TTL: 24 * time.Hour,
		},
		OTEL: OTEL{
			Endpoint:    "localhost:4317",
			ServiceName: "blackboard",
			Insecure:    true,
		},
	}
}
