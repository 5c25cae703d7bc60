package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/smart-lay/internal/logger"
	"github.com/yourusername/smart-lay/internal/metrics"
	"github.com/yourusername/smart-lay/internal/models"
	"github.com/yourusername/smart-lay/internal/risk"
	"github.com/yourusername/smart-lay/internal/strategy"
)

// EntrySource loads race entries for a date range
type EntrySource interface {
	Load(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error)
}

// Skip records a race that could not be processed
type Skip struct {
	RaceID   string `json:"race_id"`
	RaceDate string `json:"race_date"`
	Reason   string `json:"reason"`
}

// Result is the immutable outcome of one backtest run
type Result struct {
	ID                uuid.UUID                `json:"id"`
	Name              string                   `json:"name"`
	ParameterHash     string                   `json:"parameter_hash"`
	Rules             strategy.Rules           `json:"rules"`
	Stake             strategy.StakeManagement `json:"stake_management"`
	StartDate         string                   `json:"start_date"`
	EndDate           string                   `json:"end_date"`
	InitialBankroll   decimal.Decimal          `json:"initial_bankroll"`
	FinalBankroll     decimal.Decimal          `json:"final_bankroll"`
	RacesAnalysed     int                      `json:"races_analysed"`
	QualifyingRaces   int                      `json:"qualifying_races"`
	HaltedRaces       int                      `json:"halted_races"`
	QualificationRate float64                  `json:"qualification_rate"`
	MeanScore         float64                  `json:"mean_qualification_score"`
	HaltCount         int                      `json:"halt_count"`
	CurrentStreak     Streak                   `json:"current_streak"`
	Wagers            []models.Wager           `json:"wagers"`
	Skips             []Skip                   `json:"skips"`
	Metrics           Metrics                  `json:"metrics"`
	EquityCurve       EquityCurve              `json:"equity_curve"`
	DailyPerformance  []DailyPerformance       `json:"daily_performance"`
}

// Engine orchestrates backtesting runs
type Engine struct {
	logger *logrus.Logger
}

// NewEngine creates a new backtesting engine
func NewEngine(log *logrus.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{logger: log}
}

// Logger returns the engine logger
func (e *Engine) Logger() *logrus.Logger {
	return e.logger
}

// Replay loads entries for the request's window from a source and runs them
func (e *Engine) Replay(ctx context.Context, req Request, source EntrySource) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	entries, err := source.Load(ctx, req.StartDate, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load race entries: %w", err)
	}
	return e.Run(ctx, req, entries)
}

// Run replays entries in (date, time) order. A configuration error aborts
// before any race is processed; per-race data errors are recorded as skips.
// Cancellation is checked between races. The caller's slice is not modified.
func (e *Engine) Run(ctx context.Context, req Request, entries []models.RaceEntry) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	runID := runIDFor(&req)
	log := logger.NewBacktestLogger(e.logger).WithRun(runID.String())

	ordered := orderEntries(entries)
	log.LogRunStarted(formatDate(req.StartDate), formatDate(req.EndDate), req.InitialBankroll.InexactFloat64(), len(ordered))

	ledger := NewLedger(runID, &req)
	result := &Result{
		ID:              runID,
		Name:            req.Name,
		ParameterHash:   HashParameters(&req),
		Rules:           req.Rules,
		Stake:           req.Stake,
		StartDate:       formatDate(req.StartDate),
		EndDate:         formatDate(req.EndDate),
		InitialBankroll: req.InitialBankroll,
		Skips:           []Skip{},
	}

	qualifyingNonVoid, analysedNonVoid := 0, 0
	scoreSum := 0.0
	for i := range ordered {
		if err := ctx.Err(); err != nil {
			metrics.RecordBacktestRun("cancelled", time.Since(started).Seconds())
			return nil, fmt.Errorf("backtest cancelled after %d races: %w", i, err)
		}

		entry := &ordered[i]
		if day, err := time.Parse(models.DateLayout, entry.Race.RaceDate); err == nil && !req.inRange(day) {
			continue
		}
		if err := entry.Validate(); err != nil {
			result.Skips = append(result.Skips, e.skip(log, entry, err))
			continue
		}

		qual := strategy.Qualify(&entry.Race, &entry.Favorite, &req.Rules)
		decision := Decision{Qualification: qual}
		if qual.Qualified {
			decision.Multiplier = strategy.Adjustment(&entry.Race, &req.Rules)
		}

		out, err := ledger.Settle(entry, decision)
		if err != nil {
			var dataErr *models.DataError
			if !errors.As(err, &dataErr) {
				metrics.RecordBacktestRun("failed", time.Since(started).Seconds())
				return nil, err
			}
			result.Skips = append(result.Skips, e.skip(log, entry, err))
			continue
		}

		result.RacesAnalysed++
		scoreSum += qual.Score
		if out.Disposition == DispositionHalted {
			result.HaltedRaces++
		}
		voided := entry.Result.IsVoid()
		if !voided {
			analysedNonVoid++
		}
		if qual.Qualified {
			result.QualifyingRaces++
			if !voided {
				qualifyingNonVoid++
			}
		}
		e.observe(log, entry, qual, out, ledger)
	}

	state := ledger.State()
	result.FinalBankroll = state.Bankroll
	result.Wagers = state.Wagers
	result.EquityCurve = state.EquityCurve
	result.CurrentStreak = state.Streak
	result.HaltCount = ledger.Governor().HaltCount()
	if result.RacesAnalysed > 0 {
		result.MeanScore = round2(scoreSum / float64(result.RacesAnalysed))
	}
	if analysedNonVoid > 0 {
		result.QualificationRate = round2(float64(qualifyingNonVoid) / float64(analysedNonVoid) * 100)
	}
	result.Metrics = CalculateMetrics(state.Wagers, state.EquityCurve, req.InitialBankroll, state.Bankroll, req.annualisation())
	result.DailyPerformance = CalculateDailyPerformance(state.Wagers, req.InitialBankroll)

	duration := time.Since(started)
	metrics.RecordBacktestRun("completed", duration.Seconds())
	metrics.RecordBacktestResult(req.Name, result.Metrics.ROI, result.Metrics.MaxDrawdown)
	log.LogRunCompleted(result.RacesAnalysed, result.QualifyingRaces, len(result.Wagers), len(result.Skips),
		result.FinalBankroll.InexactFloat64(), result.Metrics.ROI, duration)

	return result, nil
}

func (e *Engine) skip(log *logger.BacktestLogger, entry *models.RaceEntry, err error) Skip {
	s := Skip{RaceID: entry.Race.ID, RaceDate: entry.Race.RaceDate, Reason: err.Error()}
	log.LogRaceSkipped(s.RaceID, s.RaceDate, s.Reason)
	metrics.RecordRaceProcessed(string(DispositionSkipped))
	return s
}

func (e *Engine) observe(log *logger.BacktestLogger, entry *models.RaceEntry, qual strategy.Qualification, out Outcome, ledger *Ledger) {
	if out.Rollover.Changed() {
		log.LogRiskResume(out.Rollover.From.String(), out.Rollover.Date)
	}

	log.LogQualification(entry.Race.ID, qual.Qualified, qual.Strings())
	for _, r := range qual.Reasons {
		metrics.RecordQualificationReason(r.Kind.String())
	}
	metrics.RecordRaceProcessed(string(out.Disposition))

	if w := out.Wager; w != nil {
		metrics.RecordWagerSettled(string(w.Result))
		log.LogWagerSettled(w.RaceID, string(w.Result), w.Odds.InexactFloat64(), w.Stake.InexactFloat64(),
			w.Liability.InexactFloat64(), w.ProfitLoss.InexactFloat64(), ledger.State().Bankroll.InexactFloat64())
	}

	if out.Halt.Changed() {
		period := "day"
		if out.Halt.To == risk.WeeklyHalted {
			period = "week"
		}
		metrics.RecordRiskHalt(out.Halt.To.String())
		log.LogRiskHalt(out.Halt.To.String(), period, out.Halt.Loss.InexactFloat64(), out.Halt.Limit.InexactFloat64())
	}
}

// orderEntries returns a copy of entries stably sorted by scheduled start.
// Entries without a valid start sort by date alone and are skipped later.
func orderEntries(entries []models.RaceEntry) []models.RaceEntry {
	starts := make([]time.Time, len(entries))
	idx := make([]int, len(entries))
	for i := range entries {
		idx[i] = i
		starts[i] = sortKey(&entries[i].Race)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return starts[idx[a]].Before(starts[idx[b]])
	})

	ordered := make([]models.RaceEntry, len(entries))
	for i, j := range idx {
		ordered[i] = entries[j]
	}
	return ordered
}

func sortKey(r *models.Race) time.Time {
	if start, err := r.ScheduledStart(); err == nil {
		return start
	}
	day, _ := time.Parse(models.DateLayout, r.RaceDate)
	return day
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}
