// Package config provides configuration management for the smart-lay backtester.
package config

import (
	"fmt"
)

// Data source names accepted by data.source
const (
	SourceCSV      = "csv"
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Secrets  SecretsConfig  `mapstructure:"secrets"`
	Backtest BacktestConfig `mapstructure:"backtest" validate:"required"`
	Rules    RulesConfig    `mapstructure:"rules" validate:"required"`
	Stake    StakeConfig    `mapstructure:"stake" validate:"required"`
	Data     DataConfig     `mapstructure:"data" validate:"required"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration.
// Only required when races are loaded from, or results persisted to, PostgreSQL.
type DatabaseConfig struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// SecretsConfig controls the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// BacktestConfig represents backtesting configuration
type BacktestConfig struct {
	StartDate            string  `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate              string  `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
	InitialBankroll      float64 `mapstructure:"initial_bankroll" validate:"required,gt=0"`
	SharpeAnnualisation  float64 `mapstructure:"sharpe_annualisation" validate:"gte=0"`
	MonteCarloIterations int     `mapstructure:"monte_carlo_iterations" validate:"gte=0"`
	MonteCarloSeed       int64   `mapstructure:"monte_carlo_seed"`
	SweepConcurrency     int     `mapstructure:"sweep_concurrency" validate:"gte=0"`
	OutputPath           string  `mapstructure:"output_path"`
	PersistResults       bool    `mapstructure:"persist_results"`
}

// RulesConfig represents the qualification rules and stake adjustments
type RulesConfig struct {
	MinOdds            float64            `mapstructure:"min_odds" validate:"required,gt=1"`
	MaxOdds            float64            `mapstructure:"max_odds" validate:"required,gt=1"`
	MinRunners         int                `mapstructure:"min_runners" validate:"required,gt=0"`
	MaxRunners         int                `mapstructure:"max_runners" validate:"required,gt=0"`
	AllowedRaceTypes   []string           `mapstructure:"allowed_race_types" validate:"required,min=1,dive,racetype"`
	ExcludeHandicaps   bool               `mapstructure:"exclude_handicaps"`
	HandicapMultiplier float64            `mapstructure:"handicap_multiplier" validate:"required,gt=0"`
	GoingMultipliers   map[string]float64 `mapstructure:"going_multipliers" validate:"dive,keys,going,endkeys,gt=0"`
	TrackMultipliers   map[string]float64 `mapstructure:"track_multipliers" validate:"dive,keys,track,endkeys,gt=0"`
	MonthMultipliers   map[string]float64 `mapstructure:"month_multipliers" validate:"dive,keys,month,endkeys,gt=0"`
	ExcludeAmateur     bool               `mapstructure:"exclude_amateur"`
	ExcludeApprentice  bool               `mapstructure:"exclude_apprentice"`
}

// StakeConfig represents stake management configuration, in percent of bankroll
type StakeConfig struct {
	BaseStakePercent       float64 `mapstructure:"base_stake_percent" validate:"required,gt=0,lte=100"`
	MaxLiabilityPercent    float64 `mapstructure:"max_liability_percent" validate:"required,gt=0,lte=100"`
	DailyLossLimitPercent  float64 `mapstructure:"daily_loss_limit_percent" validate:"required,gt=0,lte=100"`
	WeeklyLossLimitPercent float64 `mapstructure:"weekly_loss_limit_percent" validate:"required,gt=0,lte=100"`
	UseKelly               bool    `mapstructure:"use_kelly"`
	KellyFraction          float64 `mapstructure:"kelly_fraction" validate:"gte=0,lte=1"`
}

// DataConfig represents where race entries are loaded from
type DataConfig struct {
	Source            string  `mapstructure:"source" validate:"required,datasource"`
	Path              string  `mapstructure:"path"`
	URL               string  `mapstructure:"url" validate:"omitempty,url"`
	APIKey            string  `mapstructure:"api_key"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// NeedsDatabase reports whether any component talks to PostgreSQL
func (c *Config) NeedsDatabase() bool {
	return c.Data.Source == SourcePostgres || c.Backtest.PersistResults
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
