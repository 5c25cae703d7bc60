// Package main provides the smart-lay-backtest CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/database"
	"github.com/yourusername/smart-lay/internal/datasource"
	"github.com/yourusername/smart-lay/internal/health"
	"github.com/yourusername/smart-lay/internal/logger"
	"github.com/yourusername/smart-lay/internal/repository"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// annotationDatabase marks commands that always need PostgreSQL
const annotationDatabase = "database"

// overrides are the persistent flags layered over the config file
type overrides struct {
	source    string
	dataPath  string
	startDate string
	endDate   string
	output    string
	persist   bool
}

var (
	configFile string
	flags      overrides

	log       *logrus.Logger
	cfg       *config.Config
	db        *database.DB
	repos     *repository.Repositories
	telemetry *health.Server
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	pf.StringVar(&flags.source, "source", "", "Override data source (csv, http, postgres)")
	pf.StringVar(&flags.dataPath, "data", "", "Override CSV export path, or export URL for the http source")
	pf.StringVar(&flags.startDate, "start", "", "Override start date (YYYY-MM-DD)")
	pf.StringVar(&flags.endDate, "end", "", "Override end date (YYYY-MM-DD)")
	pf.StringVarP(&flags.output, "output", "o", "", "Override output directory for reports")
	pf.BoolVar(&flags.persist, "persist", false, "Persist results to PostgreSQL")

	rootCmd.AddCommand(runCmd, sweepCmd, importCmd, resultsCmd)
}

var rootCmd = &cobra.Command{
	Use:           "smart-lay-backtest",
	Short:         "Backtest the lay-the-favorite horse racing strategy",
	Long:          `Replays historical UK and Irish races through the lay-the-favorite rules, staking plan and loss limits, and reports performance.`,
	Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		needsDB := cfg.NeedsDatabase() || cmd.Annotations[annotationDatabase] == "required"
		if err := setupDependencies(cmd.Context(), needsDB); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if telemetry != nil {
			telemetry.SetPhase(health.PhaseFailed)
		}
		if db != nil {
			db.Close()
		}
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	applyOverrides(cfg, flags)

	if err := config.LoadSecretsFromAWS(ctx, cfg); err != nil {
		return err
	}
	return config.Validate(cfg)
}

// applyOverrides layers non-empty flags over the loaded configuration
func applyOverrides(cfg *config.Config, o overrides) {
	if o.source != "" {
		cfg.Data.Source = o.source
	}
	if o.dataPath != "" {
		if cfg.Data.Source == config.SourceHTTP {
			cfg.Data.URL = o.dataPath
		} else {
			cfg.Data.Path = o.dataPath
		}
	}
	if o.startDate != "" {
		cfg.Backtest.StartDate = o.startDate
	}
	if o.endDate != "" {
		cfg.Backtest.EndDate = o.endDate
	}
	if o.output != "" {
		cfg.Backtest.OutputPath = o.output
	}
	if o.persist {
		cfg.Backtest.PersistResults = true
	}
}

func setupDependencies(ctx context.Context, needsDB bool) error {
	log = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	if needsDB {
		var err error
		db, err = database.Initialize(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		repos, err = repository.NewRepositories(db)
		if err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		telemetryCfg := health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        cfg.Metrics.Port,
			MetricsPath: cfg.Metrics.Path,
			Logger:      log,
		}
		if db != nil {
			telemetryCfg.DB = db
		}
		telemetry = health.NewServer(telemetryCfg)
		telemetry.Start(ctx)
	}
	return nil
}

// setPhase updates the probes when the telemetry server is running
func setPhase(phase string) {
	if telemetry != nil {
		telemetry.SetPhase(phase)
	}
}

// newSource builds the configured race source
func newSource() (datasource.Source, error) {
	var loader datasource.RaceEntryLoader
	if repos != nil {
		loader = repos.RaceEntries
	}
	return datasource.NewFactory(cfg, log).NewSource(loader)
}
