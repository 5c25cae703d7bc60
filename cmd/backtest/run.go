package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/smart-lay/internal/backtest"
	"github.com/yourusername/smart-lay/internal/health"
	"github.com/yourusername/smart-lay/internal/models"
)

var (
	monteCarloIterations int
	windowDays           int
	stepDays             int
	minWindowWagers      int
)

func init() {
	f := runCmd.Flags()
	f.IntVar(&monteCarloIterations, "monte-carlo", -1, "Monte Carlo iterations (default from config, 0 disables)")
	f.IntVar(&windowDays, "window-days", 30, "Walk-forward window length in days (0 disables)")
	f.IntVar(&stepDays, "step-days", 30, "Walk-forward step in days")
	f.IntVar(&minWindowWagers, "min-window-wagers", 5, "Minimum wagers for a walk-forward window to count")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest over the configured window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBacktest(cmd.Context())
	},
}

// reportPaths are the files written for a run
type reportPaths struct {
	Wagers      string
	EquityCurve string
	Result      string
	Assessment  string
}

func outputPaths(dir string) reportPaths {
	return reportPaths{
		Wagers:      filepath.Join(dir, "wagers.csv"),
		EquityCurve: filepath.Join(dir, "equity_curve.csv"),
		Result:      filepath.Join(dir, "result.json"),
		Assessment:  filepath.Join(dir, "assessment.json"),
	}
}

func runBacktest(ctx context.Context) error {
	req, err := backtest.FromConfig(cfg)
	if err != nil {
		return err
	}

	entries, err := loadEntries(ctx, req)
	if err != nil {
		return err
	}

	setPhase(health.PhaseRunning)
	engine := backtest.NewEngine(log)
	result, err := engine.Run(ctx, req, entries)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	assessment, err := assess(ctx, engine, req, entries, result)
	if err != nil {
		return err
	}

	fmt.Println(backtest.GenerateConsoleReport(result))
	fmt.Printf("Composite Score: %.4f\nRecommendation: %s\n", assessment.CompositeScore, assessment.Recommendation)

	if err := writeReports(result, &assessment); err != nil {
		return err
	}
	if err := persist(ctx, result, &assessment); err != nil {
		return err
	}

	setPhase(health.PhaseDone)
	return nil
}

// loadEntries reads the request window from the configured source
func loadEntries(ctx context.Context, req backtest.Request) ([]models.RaceEntry, error) {
	setPhase(health.PhaseLoading)
	source, err := newSource()
	if err != nil {
		return nil, err
	}
	entries, err := source.Load(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load race entries: %w", err)
	}
	log.WithFields(logrus.Fields{
		"source":  source.Name(),
		"entries": len(entries),
	}).Info("Loaded race entries")
	return entries, nil
}

// assess runs the sequence-risk and rolling-window evaluations
func assess(ctx context.Context, engine *backtest.Engine, req backtest.Request, entries []models.RaceEntry, result *backtest.Result) (backtest.Assessment, error) {
	iterations := cfg.Backtest.MonteCarloIterations
	if monteCarloIterations >= 0 {
		iterations = monteCarloIterations
	}

	var monteCarlo backtest.MonteCarloResult
	if iterations > 0 && len(result.Wagers) > 0 {
		var err error
		monteCarlo, err = backtest.RunMonteCarlo(ctx, result.Wagers, backtest.MonteCarloConfig{
			Iterations:      iterations,
			Seed:            cfg.Backtest.MonteCarloSeed,
			InitialBankroll: req.InitialBankroll,
		})
		if err != nil {
			return backtest.Assessment{}, fmt.Errorf("monte carlo failed: %w", err)
		}
		log.WithFields(logrus.Fields{
			"iterations":          iterations,
			"probability_profit":  monteCarlo.ProbabilityOfProfit,
			"median_max_drawdown": monteCarlo.MedianMaxDrawdown,
		}).Info("Monte Carlo completed")
	}

	var walkForward backtest.WalkForwardResult
	if windowDays > 0 {
		var err error
		walkForward, err = backtest.RunWalkForward(ctx, engine, req, entries, backtest.WalkForwardConfig{
			WindowDays:         windowDays,
			StepDays:           stepDays,
			MinWagersPerWindow: minWindowWagers,
		})
		if err != nil {
			return backtest.Assessment{}, fmt.Errorf("walk-forward failed: %w", err)
		}
		log.WithFields(logrus.Fields{
			"windows":     len(walkForward.Windows),
			"consistency": walkForward.ConsistencyScore,
		}).Info("Walk-forward completed")
	}

	return backtest.Assess(result, monteCarlo, walkForward, backtest.DefaultAggregationWeights()), nil
}

func writeReports(result *backtest.Result, assessment *backtest.Assessment) error {
	if cfg.Backtest.OutputPath == "" {
		return nil
	}
	paths := outputPaths(cfg.Backtest.OutputPath)

	if err := backtest.GenerateCSVExport(result, paths.Wagers); err != nil {
		return fmt.Errorf("failed to write wagers: %w", err)
	}
	if err := backtest.GenerateEquityCurveExport(result, paths.EquityCurve); err != nil {
		return fmt.Errorf("failed to write equity curve: %w", err)
	}
	if err := backtest.GenerateJSONExport(result, paths.Result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if assessment != nil {
		if err := os.WriteFile(paths.Assessment, []byte(assessment.ToJSON()), 0o644); err != nil {
			return fmt.Errorf("failed to write assessment: %w", err)
		}
	}

	log.WithField("output", cfg.Backtest.OutputPath).Info("Reports written")
	return nil
}

func persist(ctx context.Context, result *backtest.Result, assessment *backtest.Assessment) error {
	if !cfg.Backtest.PersistResults || repos == nil {
		return nil
	}
	record, err := backtest.NewRecord(result, assessment, time.Now())
	if err != nil {
		return err
	}
	if err := repos.BacktestResults.Save(ctx, record); err != nil {
		return err
	}
	log.WithField("run_id", record.ID).Info("Backtest result persisted")
	return nil
}
