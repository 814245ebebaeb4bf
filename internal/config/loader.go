package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variable overrides.
const EnvPrefix = "FORM_SIGNALS"

// DefaultPath is used when no configuration path is given.
const DefaultPath = "config/config.yaml"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "form-signals")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "form_signals")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("rules.top_team_rank", 8)
	v.SetDefault("rules.min_consecutive_losses", 3)
	v.SetDefault("rules.min_consecutive_draws", 3)
	v.SetDefault("rules.min_top5_consecutive_losses", 2)
	v.SetDefault("rules.live_draw_minute_threshold", 70)

	v.SetDefault("analysis.history_window", 5)
	v.SetDefault("analysis.days_ahead", 7)
	v.SetDefault("analysis.live_window_minutes", 10)
	v.SetDefault("analysis.form_cache_ttl_seconds", 300)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.scheduled_analysis", "0 * * * *")
	v.SetDefault("scheduler.live_analysis", "@every 1m")
	v.SetDefault("scheduler.backfill", "*/15 * * * *")

	v.SetDefault("publisher.kind", "log")
	v.SetDefault("publisher.stream_prefix", "opportunities.detected")
	v.SetDefault("publisher.stream_max_len", 10000)
	v.SetDefault("publisher.webhook_url", "")
	v.SetDefault("publisher.webhook_token", "")
	v.SetDefault("publisher.timeout_seconds", 10)
	v.SetDefault("publisher.max_retries", 3)
	v.SetDefault("publisher.rate_limit", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("health.port", 8080)

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}

// LoadValidated loads configuration with defaults, overlays AWS secrets
// when enabled and validates the result.
func LoadValidated(ctx context.Context, configPath string) (*Config, error) {
	cfg, err := LoadWithDefaults(configPath)
	if err != nil {
		return nil, err
	}
	if err := LoadSecretsFromAWS(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
