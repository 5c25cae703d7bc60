package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BacktestLogger provides dedicated logging for backtest runs.
type BacktestLogger struct {
	*logrus.Entry
}

// NewBacktestLogger creates a new backtest logger.
func NewBacktestLogger(baseLogger *logrus.Logger) *BacktestLogger {
	return &BacktestLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// WithRun scopes the logger to a single run.
func (bl *BacktestLogger) WithRun(runID string) *BacktestLogger {
	return &BacktestLogger{Entry: bl.WithField("run_id", runID)}
}

// LogRunStarted logs the start of a backtest run.
func (bl *BacktestLogger) LogRunStarted(startDate, endDate string, initialBankroll float64, races int) {
	bl.WithFields(logrus.Fields{
		"start_date":       startDate,
		"end_date":         endDate,
		"initial_bankroll": initialBankroll,
		"races":            races,
	}).Info("Backtest run started")
}

// LogRunCompleted logs the summary of a finished run.
func (bl *BacktestLogger) LogRunCompleted(analysed, qualifying, wagers, skipped int, finalBankroll, roi float64, duration time.Duration) {
	bl.WithFields(logrus.Fields{
		"races_analysed": analysed,
		"qualifying":     qualifying,
		"wagers":         wagers,
		"skipped":        skipped,
		"final_bankroll": finalBankroll,
		"roi":            roi,
		"duration_ms":    duration.Milliseconds(),
	}).Info("Backtest run completed")
}

// LogRaceSkipped logs a race dropped from the run.
func (bl *BacktestLogger) LogRaceSkipped(raceID, raceDate, reason string) {
	bl.WithFields(logrus.Fields{
		"race_id":   raceID,
		"race_date": raceDate,
		"reason":    reason,
	}).Warn("Race skipped")
}

// LogQualification logs the filter verdict for a race.
func (bl *BacktestLogger) LogQualification(raceID string, qualified bool, reasons []string) {
	bl.WithFields(logrus.Fields{
		"race_id":   raceID,
		"qualified": qualified,
		"reasons":   reasons,
	}).Debug("Race qualification evaluated")
}

// LogWagerSettled logs a settled lay wager.
func (bl *BacktestLogger) LogWagerSettled(raceID, result string, odds, stake, liability, profitLoss, bankroll float64) {
	bl.WithFields(logrus.Fields{
		"race_id":     raceID,
		"result":      result,
		"odds":        odds,
		"stake":       stake,
		"liability":   liability,
		"profit_loss": profitLoss,
		"bankroll":    bankroll,
	}).Debug("Wager settled")
}

// LogRiskHalt logs a loss-limit halt.
func (bl *BacktestLogger) LogRiskHalt(state, period string, loss, limit float64) {
	bl.WithFields(logrus.Fields{
		"state":  state,
		"period": period,
		"loss":   loss,
		"limit":  limit,
	}).Warn("Loss limit reached, wagering halted")
}

// LogRiskResume logs wagering resuming after a period rollover.
func (bl *BacktestLogger) LogRiskResume(previous, raceDate string) {
	bl.WithFields(logrus.Fields{
		"previous_state": previous,
		"race_date":      raceDate,
	}).Info("Wagering resumed")
}
