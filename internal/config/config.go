// Package config provides configuration management for the form signal worker.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/form-signals/internal/rules"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Rules     RulesConfig     `mapstructure:"rules" validate:"required"`
	Analysis  AnalysisConfig  `mapstructure:"analysis" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Publisher PublisherConfig `mapstructure:"publisher" validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health" validate:"required"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// DSN returns a PostgreSQL connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Name,
		d.SSLMode,
	)
}

// RedisConfig represents Redis connection configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// RulesConfig holds the thresholds handed to the rule catalog
type RulesConfig struct {
	TopTeamRank              int `mapstructure:"top_team_rank" validate:"required,gt=0"`
	MinConsecutiveLosses     int `mapstructure:"min_consecutive_losses" validate:"required,gt=0"`
	MinConsecutiveDraws      int `mapstructure:"min_consecutive_draws" validate:"required,gt=0"`
	MinTop5ConsecutiveLosses int `mapstructure:"min_top5_consecutive_losses" validate:"required,gt=0"`
	LiveDrawMinuteThreshold  int `mapstructure:"live_draw_minute_threshold" validate:"required,gt=0,lte=120"`
}

// Thresholds converts the section into rule thresholds
func (r RulesConfig) Thresholds() rules.Thresholds {
	return rules.Thresholds{
		TopTeamRank:              r.TopTeamRank,
		MinConsecutiveLosses:     r.MinConsecutiveLosses,
		MinConsecutiveDraws:      r.MinConsecutiveDraws,
		MinTop5ConsecutiveLosses: r.MinTop5ConsecutiveLosses,
		LiveDrawMinuteThreshold:  r.LiveDrawMinuteThreshold,
	}
}

// AnalysisConfig controls which matches are analysed and how much history is read
type AnalysisConfig struct {
	HistoryWindow       int `mapstructure:"history_window" validate:"required,gt=0,lte=50"`
	DaysAhead           int `mapstructure:"days_ahead" validate:"required,gt=0"`
	LiveWindowMinutes   int `mapstructure:"live_window_minutes" validate:"required,gt=0"`
	FormCacheTTLSeconds int `mapstructure:"form_cache_ttl_seconds" validate:"gte=0"`
}

// FormCacheTTL returns the history cache lifetime
func (a AnalysisConfig) FormCacheTTL() time.Duration {
	return time.Duration(a.FormCacheTTLSeconds) * time.Second
}

// SchedulerConfig holds cron specs for the periodic jobs
type SchedulerConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	ScheduledAnalysis string `mapstructure:"scheduled_analysis" validate:"required,cron"`
	LiveAnalysis      string `mapstructure:"live_analysis" validate:"required,cron"`
	Backfill          string `mapstructure:"backfill" validate:"required,cron"`
}

// PublisherConfig selects where new opportunities are delivered
type PublisherConfig struct {
	Kind           string   `mapstructure:"kind" validate:"required,publisher"`
	StreamPrefix   string   `mapstructure:"stream_prefix"`
	StreamMaxLen   int64    `mapstructure:"stream_max_len" validate:"gte=0"`
	WebhookURL     string   `mapstructure:"webhook_url" validate:"omitempty,url"`
	WebhookToken   string   `mapstructure:"webhook_token"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries     int      `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit      float64  `mapstructure:"rate_limit" validate:"gte=0"`
	// AllowedOrigins restricts websocket subscribers; empty allows all.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// MetricsConfig represents metrics configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// HealthConfig represents the ops HTTP server configuration
type HealthConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region" validate:"required_if=Enabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=Enabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
