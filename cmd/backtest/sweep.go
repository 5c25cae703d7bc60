package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yourusername/smart-lay/internal/backtest"
	"github.com/yourusername/smart-lay/internal/health"
)

var (
	sweepMinOdds     []float64
	sweepMaxOdds     []float64
	sweepStakes      []float64
	sweepConcurrency int
)

func init() {
	f := sweepCmd.Flags()
	f.Float64SliceVar(&sweepMinOdds, "min-odds", nil, "Minimum odds values to try (default from config)")
	f.Float64SliceVar(&sweepMaxOdds, "max-odds", nil, "Maximum odds values to try (default from config)")
	f.Float64SliceVar(&sweepStakes, "base-stake", nil, "Base stake percentages to try (default from config)")
	f.IntVar(&sweepConcurrency, "concurrency", 0, "Parallel runs (default from config)")
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a grid of rule variants over the same race data",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSweep(cmd.Context())
	},
}

// sweepGrid holds the axes of a parameter sweep
type sweepGrid struct {
	MinOdds    []float64
	MaxOdds    []float64
	BaseStakes []float64
}

// sweepRequests expands the grid around base. Empty axes keep the base
// value and inverted odds bands are dropped.
func sweepRequests(base backtest.Request, grid sweepGrid) []backtest.Request {
	minOdds := grid.MinOdds
	if len(minOdds) == 0 {
		minOdds = []float64{base.Rules.MinOdds.InexactFloat64()}
	}
	maxOdds := grid.MaxOdds
	if len(maxOdds) == 0 {
		maxOdds = []float64{base.Rules.MaxOdds.InexactFloat64()}
	}
	stakes := grid.BaseStakes
	if len(stakes) == 0 {
		stakes = []float64{base.Stake.BaseStakePercent}
	}

	var reqs []backtest.Request
	for _, lo := range minOdds {
		for _, hi := range maxOdds {
			if lo >= hi {
				continue
			}
			for _, stake := range stakes {
				req := base
				req.Rules.MinOdds = decimal.NewFromFloat(lo)
				req.Rules.MaxOdds = decimal.NewFromFloat(hi)
				req.Stake.BaseStakePercent = stake
				req.Name = fmt.Sprintf("%s odds=%.2f-%.2f stake=%.2f%%", base.Name, lo, hi, stake)
				reqs = append(reqs, req)
			}
		}
	}
	return reqs
}

func runSweep(ctx context.Context) error {
	base, err := backtest.FromConfig(cfg)
	if err != nil {
		return err
	}
	reqs := sweepRequests(base, sweepGrid{MinOdds: sweepMinOdds, MaxOdds: sweepMaxOdds, BaseStakes: sweepStakes})
	if len(reqs) == 0 {
		return fmt.Errorf("sweep grid is empty: every min odds value is at or above every max odds value")
	}

	entries, err := loadEntries(ctx, base)
	if err != nil {
		return err
	}

	concurrency := sweepConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Backtest.SweepConcurrency
	}

	setPhase(health.PhaseRunning)
	results, err := backtest.NewEngine(log).RunSweep(ctx, reqs, entries, concurrency)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Println(sweepTable(results))

	if cfg.Backtest.OutputPath != "" {
		for _, result := range results {
			path := filepath.Join(cfg.Backtest.OutputPath, "sweep", result.ParameterHash[:12]+".json")
			if err := backtest.GenerateJSONExport(result, path); err != nil {
				return fmt.Errorf("failed to write sweep result: %w", err)
			}
		}
	}
	for _, result := range results {
		if err := persist(ctx, result, nil); err != nil {
			return err
		}
	}

	setPhase(health.PhaseDone)
	return nil
}

// sweepTable renders results best ROI first
func sweepTable(results []*backtest.Result) string {
	ranked := make([]*backtest.Result, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metrics.ROI > ranked[j].Metrics.ROI
	})

	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tWAGERS\tROI %\tWIN %\tMAX DD %\tSHARPE\tFINAL BANK")
	for _, r := range ranked {
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%s\n",
			r.Name, r.Metrics.TotalWagers, r.Metrics.ROI, r.Metrics.WinRate,
			r.Metrics.MaxDrawdown, r.Metrics.SharpeRatio, r.FinalBankroll.StringFixed(2))
	}
	_ = w.Flush()
	return sb.String()
}
