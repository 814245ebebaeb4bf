package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("publisher", validatePublisher)
	_ = v.RegisterValidation("cron", validateCron)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validatePublisher(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "none", "log", "redis", "webhook", "websocket":
		return true
	default:
		return false
	}
}

// validateCron accepts the five-field specs and descriptors the scheduler parses
func validateCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	switch cfg.Publisher.Kind {
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("publisher kind 'redis' requires redis.addr")
		}
	case "webhook":
		if cfg.Publisher.WebhookURL == "" {
			return fmt.Errorf("publisher kind 'webhook' requires publisher.webhook_url")
		}
	}

	// a window shorter than a streak threshold makes that rule unreachable
	longest := max(cfg.Rules.MinConsecutiveLosses, cfg.Rules.MinConsecutiveDraws, cfg.Rules.MinTop5ConsecutiveLosses)
	if cfg.Analysis.HistoryWindow < longest {
		return fmt.Errorf("analysis.history_window (%d) must be at least the longest streak threshold (%d)",
			cfg.Analysis.HistoryWindow, longest)
	}

	if cfg.Rules.MinTop5ConsecutiveLosses > cfg.Rules.MinConsecutiveLosses {
		return fmt.Errorf("min_top5_consecutive_losses cannot exceed min_consecutive_losses")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.Namespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "publisher":
			fmt.Fprintf(&b, "- Field '%s' must be one of: none, log, redis, webhook, websocket\n", field)
		case "cron":
			fmt.Fprintf(&b, "- Field '%s' is not a valid cron spec: '%v'\n", field, value)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
