package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "blackboard.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if p := os.Getenv("BLACKBOARD_CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "BLACKBOARD_PORT")
	setString(&cfg.Server.CORSOrigin, "BLACKBOARD_CORS_ORIGIN")
	setString(&cfg.Server.BaseURL, "BLACKBOARD_BASE_URL")

	setString(&cfg.Logging.Level, "BLACKBOARD_LOG_LEVEL")
	setString(&cfg.Logging.Service, "BLACKBOARD_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "BLACKBOARD_LOG_ASYNC")

	setDuration(&cfg.Scheduler.TickInterval, "BLACKBOARD_TICK_INTERVAL")
	setInt(&cfg.Scheduler.MaxParallel, "BLACKBOARD_MAX_PARALLEL")

	setList(&cfg.Dispatch.Notifiers, "BLACKBOARD_NOTIFIERS")
	setInt(&cfg.Dispatch.Breaker.MaxFailures, "BLACKBOARD_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Dispatch.Breaker.Timeout, "BLACKBOARD_BREAKER_TIMEOUT")

	setString(&cfg.Notifier.WebhookURL, "BLACKBOARD_WEBHOOK_URL")
	setString(&cfg.Notifier.SlackWebhookURL, "BLACKBOARD_SLACK_WEBHOOK_URL")
	setString(&cfg.Notifier.DiscordWebhookURL, "BLACKBOARD_DISCORD_WEBHOOK_URL")
	setDuration(&cfg.Notifier.Timeout, "BLACKBOARD_NOTIFIER_TIMEOUT")

	setString(&cfg.NATS.URL, "NATS_URL")

	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "BLACKBOARD_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "BLACKBOARD_PG_MIN_CONNS")

	setBool(&cfg.MCP.Enabled, "BLACKBOARD_MCP_ENABLED")
	setString(&cfg.MCP.Addr, "BLACKBOARD_MCP_ADDR")

	setString(&cfg.Planner.Kind, "BLACKBOARD_PLANNER")
	setString(&cfg.Planner.File, "BLACKBOARD_PLAN_FILE")
	setBool(&cfg.Planner.Watch, "BLACKBOARD_PLAN_WATCH")

	setInt64(&cfg.Cache.L1MaxSizeMB, "BLACKBOARD_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "BLACKBOARD_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "BLACKBOARD_CACHE_L2_TTL")
	setDuration(&cfg.Idempotency.TTL, "BLACKBOARD_IDEMPOTENCY_TTL")

	setBool(&cfg.OTEL.Enabled, "BLACKBOARD_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "BLACKBOARD_OTEL_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "BLACKBOARD_OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "BLACKBOARD_OTEL_INSECURE")
}

var knownNotifiers = []string{"log", "nats", "webhook", "slack", "discord"}

// validate checks that required fields are set and consistent.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Scheduler.TickInterval <= 0 {
		return errors.New("scheduler.tick_interval must be > 0")
	}
	if cfg.Scheduler.MaxParallel < 1 {
		return errors.New("scheduler.max_parallel must be >= 1")
	}
	if cfg.Dispatch.Breaker.MaxFailures < 1 {
		return errors.New("dispatch.breaker.max_failures must be >= 1")
	}
	if len(cfg.Dispatch.Notifiers) == 0 {
		return errors.New("dispatch.notifiers must name at least one notifier")
	}
	for _, n := range cfg.Dispatch.Notifiers {
		if !slices.Contains(knownNotifiers, n) {
			return fmt.Errorf("dispatch.notifiers: unknown notifier %q", n)
		}
		if n == "nats" && cfg.NATS.URL == "" {
			return errors.New("dispatch.notifiers: nats requires nats.url")
		}
		if n == "webhook" && cfg.Notifier.WebhookURL == "" {
			return errors.New("dispatch.notifiers: webhook requires notifier.webhook_url")
		}
		if n == "slack" && cfg.Notifier.SlackWebhookURL == "" {
			return errors.New("dispatch.notifiers: slack requires notifier.slack_webhook_url")
		}
		if n == "discord" && cfg.Notifier.DiscordWebhookURL == "" {
			return errors.New("dispatch.notifiers: discord requires notifier.discord_webhook_url")
		}
	}
	switch cfg.Planner.Kind {
	case "template":
	case "yaml":
		if cfg.Planner.File == "" {
			return errors.New("planner.file is required for the yaml planner")
		}
	default:
		return fmt.Errorf("planner.kind: unknown planner %q", cfg.Planner.Kind)
	}
	if cfg.Postgres.DSN != "" && cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.MCP.Enabled && cfg.MCP.Addr == "" {
		return errors.New("mcp.addr is required when mcp is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
