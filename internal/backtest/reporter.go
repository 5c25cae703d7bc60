package backtest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yourusername/smart-lay/internal/models"
)

// GenerateConsoleReport formats a run summary for terminal output
func GenerateConsoleReport(result *Result) string {
	m := result.Metrics
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Run: %s (%s)\n", result.Name, result.ID))
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n", result.StartDate, result.EndDate))
	builder.WriteString(fmt.Sprintf("Races Analysed: %d\n", result.RacesAnalysed))
	builder.WriteString(fmt.Sprintf("Qualifying Races: %d (%.2f%%)\n", result.QualifyingRaces, result.QualificationRate))
	builder.WriteString(fmt.Sprintf("Mean Qualification Score: %.2f\n", result.MeanScore))
	builder.WriteString(fmt.Sprintf("Halted Races: %d (halts: %d)\n", result.HaltedRaces, result.HaltCount))
	builder.WriteString(fmt.Sprintf("Skipped Races: %d\n", len(result.Skips)))
	builder.WriteString(fmt.Sprintf("Wagers: %d (won %d, lost %d, void %d)\n", m.TotalWagers, m.WinningWagers, m.LosingWagers, m.VoidWagers))
	if boosts := boostCounts(result.Wagers); len(boosts) > 0 {
		builder.WriteString("Stake Boosts:")
		for _, b := range boosts {
			builder.WriteString(fmt.Sprintf(" %s %d;", b.label, b.count))
		}
		builder.WriteString("\n")
	}
	builder.WriteString(fmt.Sprintf("Initial Bankroll: %s\n", result.InitialBankroll.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Final Bankroll: %s\n", result.FinalBankroll.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Total P&L: %s\n", m.TotalProfitLoss.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("Turnover: %s\n", m.Turnover.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("ROI: %.2f%%\n", m.ROI))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", m.WinRate))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", m.MaxDrawdown))
	builder.WriteString(fmt.Sprintf("Longest Win Streak: %d\n", m.LongestWinStreak))
	builder.WriteString(fmt.Sprintf("Longest Loss Streak: %d\n", m.LongestLossStreak))
	if result.CurrentStreak.Count > 0 {
		builder.WriteString(fmt.Sprintf("Current Streak: %d %s\n", result.CurrentStreak.Count, result.CurrentStreak.Result))
	}
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", m.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", m.ProfitFactor))
	return builder.String()
}

// GenerateCSVExport writes one row per wager for spreadsheets
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create csv export: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"race_id", "course", "race_date", "race_time", "odds", "stake", "liability",
		"multiplier", "score", "result", "profit_loss", "roi", "reasons", "notes",
	}); err != nil {
		return err
	}
	for i := range result.Wagers {
		wager := &result.Wagers[i]
		if err := w.Write([]string{
			wager.RaceID,
			wager.Course,
			wager.RaceDate,
			wager.RaceTime,
			wager.Odds.StringFixed(2),
			wager.Stake.StringFixed(2),
			wager.Liability.StringFixed(2),
			strconv.FormatFloat(wager.Multiplier, 'f', 4, 64),
			strconv.FormatFloat(wager.Score, 'f', 0, 64),
			string(wager.Result),
			wager.ProfitLoss.StringFixed(2),
			strconv.FormatFloat(wager.GetROI(), 'f', 2, 64),
			models.JoinReasons(wager.Reasons, "; "),
			models.JoinReasons(wager.Notes, "; "),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// GenerateEquityCurveExport writes the bankroll trajectory as CSV
func GenerateEquityCurveExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(result.EquityCurve.ToCSV()), 0o644)
}

// GenerateJSONExport writes the full result as indented JSON
func GenerateJSONExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

type boostCount struct {
	label string
	count int
}

// boostCounts tallies stake boost notes across wagers in first-seen order
func boostCounts(wagers []models.Wager) []boostCount {
	var counts []boostCount
	index := map[string]int{}
	for i := range wagers {
		for _, n := range wagers[i].Notes {
			label := n.String()
			if j, ok := index[label]; ok {
				counts[j].count++
				continue
			}
			index[label] = len(counts)
			counts = append(counts, boostCount{label: label, count: 1})
		}
	}
	return counts
}
