package backtest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

// Streak is a run of consecutive wagers with the same result
type Streak struct {
	Result models.BetResult `json:"result,omitempty"`
	Count  int              `json:"count"`
}

// SimulationState is the mutable state of one run, owned by its Ledger
type SimulationState struct {
	InitialBankroll decimal.Decimal
	Bankroll        decimal.Decimal
	PeakBankroll    decimal.Decimal
	Streak          Streak
	Wagers          []models.Wager
	EquityCurve     EquityCurve
}

// NewSimulationState initializes state for a fresh run
func NewSimulationState(initialBankroll decimal.Decimal, start time.Time) *SimulationState {
	state := &SimulationState{
		InitialBankroll: initialBankroll,
		Bankroll:        initialBankroll,
		PeakBankroll:    initialBankroll,
		Wagers:          []models.Wager{},
		EquityCurve:     EquityCurve{},
	}
	state.RecordEquityPoint(start, "")
	return state
}

// apply books a settled wager
func (s *SimulationState) apply(w models.Wager) {
	s.Bankroll = s.Bankroll.Add(w.ProfitLoss)
	if s.Bankroll.GreaterThan(s.PeakBankroll) {
		s.PeakBankroll = s.Bankroll
	}

	// voids neither extend nor reset a streak
	if !w.IsVoid() {
		if s.Streak.Result == w.Result {
			s.Streak.Count++
		} else {
			s.Streak = Streak{Result: w.Result, Count: 1}
		}
	}

	s.Wagers = append(s.Wagers, w)
	s.RecordEquityPoint(w.SettledAt, w.RaceID)
}

// RecordEquityPoint appends the current bankroll to the curve
func (s *SimulationState) RecordEquityPoint(t time.Time, raceID string) {
	s.EquityCurve = append(s.EquityCurve, EquityPoint{
		Time:     t,
		RaceID:   raceID,
		Value:    s.Bankroll,
		Drawdown: drawdownPercent(s.PeakBankroll, s.Bankroll),
	})
}

func drawdownPercent(peak, value decimal.Decimal) float64 {
	if !peak.IsPositive() || !value.LessThan(peak) {
		return 0
	}
	return peak.Sub(value).Div(peak).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
