package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yourusername/smart-lay/internal/models"
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
	_ = v.RegisterValidation("racetype", validateRaceType)
	_ = v.RegisterValidation("going", validateGoing)
	_ = v.RegisterValidation("track", validateTrack)
	_ = v.RegisterValidation("month", validateMonth)
	_ = v.RegisterValidation("datasource", validateDataSource)

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

func validateRaceType(fl validator.FieldLevel) bool {
	_, err := models.ParseRaceType(fl.Field().String())
	return err == nil
}

func validateGoing(fl validator.FieldLevel) bool {
	_, err := models.ParseGoing(fl.Field().String())
	return err == nil
}

func validateTrack(fl validator.FieldLevel) bool {
	_, err := models.ParseTrackDirection(fl.Field().String())
	return err == nil
}

func validateMonth(fl validator.FieldLevel) bool {
	m, err := strconv.Atoi(fl.Field().String())
	return err == nil && m >= 1 && m <= 12
}

func validateDataSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case SourceCSV, SourceHTTP, SourcePostgres:
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	startDate, err := time.Parse(models.DateLayout, cfg.Backtest.StartDate)
	if err != nil {
		return fmt.Errorf("invalid backtest start_date format: %w", err)
	}
	endDate, err := time.Parse(models.DateLayout, cfg.Backtest.EndDate)
	if err != nil {
		return fmt.Errorf("invalid backtest end_date format: %w", err)
	}
	if startDate.After(endDate) {
		return fmt.Errorf("backtest start_date must not be after end_date")
	}

	if cfg.Rules.MinOdds > cfg.Rules.MaxOdds {
		return fmt.Errorf("rules min_odds cannot exceed max_odds")
	}
	if cfg.Rules.MinRunners > cfg.Rules.MaxRunners {
		return fmt.Errorf("rules min_runners cannot exceed max_runners")
	}
	if cfg.Stake.UseKelly && cfg.Stake.KellyFraction <= 0 {
		return fmt.Errorf("stake kelly_fraction must be in (0,1] when use_kelly is set")
	}

	switch cfg.Data.Source {
	case SourceCSV:
		if cfg.Data.Path == "" {
			return fmt.Errorf("data path is required for the csv source")
		}
	case SourceHTTP:
		if cfg.Data.URL == "" {
			return fmt.Errorf("data url is required for the http source")
		}
	}

	if cfg.NeedsDatabase() {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when postgres is used")
		}
		if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
			return fmt.Errorf("max_idle_connections cannot exceed max_connections")
		}
	}

	if cfg.Secrets.Enabled && (cfg.Secrets.Region == "" || cfg.Secrets.SecretName == "") {
		return fmt.Errorf("secrets region and secret_name are required when secrets are enabled")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == 0 {
		return fmt.Errorf("metrics port is required when metrics are enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
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
		case "racetype":
			fmt.Fprintf(&b, "- Field '%s' has unknown race type '%v'\n", field, value)
		case "going":
			fmt.Fprintf(&b, "- Field '%s' has unknown going '%v'\n", field, value)
		case "track":
			fmt.Fprintf(&b, "- Field '%s' has unknown track direction '%v'\n", field, value)
		case "month":
			fmt.Fprintf(&b, "- Field '%s' has invalid month '%v'\n", field, value)
		case "datasource":
			fmt.Fprintf(&b, "- Field '%s' must be one of: csv, http, postgres\n", field)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
