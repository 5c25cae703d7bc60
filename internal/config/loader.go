package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "SMART_LAY"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
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
// Missing rule and stake settings fall back to the stock lay-the-favorite strategy.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	// If the file doesn't exist, continue with defaults and environment variables
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

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "smart-lay")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("backtest.initial_bankroll", 10000.0)
	v.SetDefault("backtest.sharpe_annualisation", 2100.0)
	v.SetDefault("backtest.sweep_concurrency", 4)

	v.SetDefault("rules.min_odds", 2.0)
	v.SetDefault("rules.max_odds", 4.5)
	v.SetDefault("rules.min_runners", 6)
	v.SetDefault("rules.max_runners", 20)
	v.SetDefault("rules.allowed_race_types", []string{"flat", "hurdle", "chase", "national_hunt_flat"})
	v.SetDefault("rules.exclude_handicaps", false)
	v.SetDefault("rules.handicap_multiplier", 0.7)
	v.SetDefault("rules.going_multipliers", map[string]interface{}{
		"firm":         0.8,
		"good_to_firm": 0.9,
		"good":         1.0,
		"good_to_soft": 1.0,
		"soft":         1.2,
		"heavy":        1.2,
		"standard":     1.0,
		"slow":         1.0,
	})
	v.SetDefault("rules.track_multipliers", map[string]interface{}{"figure8": 1.15})
	v.SetDefault("rules.month_multipliers", map[string]interface{}{"1": 0.9, "2": 0.9, "3": 0.9, "12": 0.85})
	v.SetDefault("rules.exclude_amateur", true)
	v.SetDefault("rules.exclude_apprentice", true)

	v.SetDefault("stake.base_stake_percent", 0.5)
	v.SetDefault("stake.max_liability_percent", 2.0)
	v.SetDefault("stake.daily_loss_limit_percent", 5.0)
	v.SetDefault("stake.weekly_loss_limit_percent", 10.0)
	v.SetDefault("stake.use_kelly", false)
	v.SetDefault("stake.kelly_fraction", 0.25)

	v.SetDefault("data.source", SourceCSV)
	v.SetDefault("data.requests_per_second", 2.0)
	v.SetDefault("data.retry_attempts", 3)
	v.SetDefault("data.timeout_seconds", 30)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
}
