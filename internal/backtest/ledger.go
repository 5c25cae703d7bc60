package backtest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yourusername/smart-lay/internal/models"
	"github.com/yourusername/smart-lay/internal/risk"
	"github.com/yourusername/smart-lay/internal/strategy"
)

// Disposition records what happened to a race
type Disposition string

const (
	DispositionWagered      Disposition = "wagered"
	DispositionNotQualified Disposition = "not_qualified"
	DispositionHalted       Disposition = "halted"
	DispositionSkipped      Disposition = "skipped"
)

// Decision is the qualification verdict and adjustment for one race
type Decision struct {
	Qualification strategy.Qualification
	Multiplier    float64
}

// Outcome is the result of settling one race
type Outcome struct {
	Disposition Disposition
	Wager       *models.Wager
	// Rollover is the governor change caused by entering the race's day
	Rollover risk.Transition
	// Halt is the governor change caused by this race's P&L
	Halt risk.Transition
}

// Ledger owns the simulation state of one run
type Ledger struct {
	runID    uuid.UUID
	state    *SimulationState
	governor *risk.Governor
	stake    strategy.StakeManagement
}

// NewLedger creates a ledger with a fresh state for one run
func NewLedger(runID uuid.UUID, req *Request) *Ledger {
	return &Ledger{
		runID:    runID,
		state:    NewSimulationState(req.InitialBankroll, req.StartDate),
		governor: risk.NewGovernor(req.Stake.DailyLossLimitPercent, req.Stake.WeeklyLossLimitPercent),
		stake:    req.Stake,
	}
}

// State returns the simulation state; callers must not mutate it
func (l *Ledger) State() *SimulationState {
	return l.state
}

// Governor returns the run's risk governor
func (l *Ledger) Governor() *risk.Governor {
	return l.governor
}

// Settle processes one race in chronological order. It is the only mutator of
// the simulation state and is atomic: when it returns an error nothing changed.
// The risk gate is evaluated before sizing, so a halted race is reported as
// halted even when it could not have been sized.
func (l *Ledger) Settle(entry *models.RaceEntry, d Decision) (Outcome, error) {
	start, err := entry.Race.ScheduledStart()
	if err != nil {
		return Outcome{}, models.NewDataError(entry.Race.ID, err.Error())
	}

	var sizing strategy.Sizing
	if d.Qualification.Qualified && l.governor.StateAt(start) == risk.Active {
		sizing, err = l.size(entry, d.Multiplier)
		if err != nil {
			return Outcome{}, err
		}
	}

	out := Outcome{Disposition: DispositionNotQualified}
	out.Rollover = l.governor.Advance(start, l.state.Bankroll)

	if !d.Qualification.Qualified {
		return out, nil
	}
	if !l.governor.Allowed() {
		out.Disposition = DispositionHalted
		return out, nil
	}

	result := outcomeOf(entry.Result)
	wager := models.Wager{
		ID:          uuid.NewSHA1(l.runID, []byte(raceKey(&entry.Race))),
		RaceID:      entry.Race.ID,
		Course:      entry.Race.Course,
		RaceDate:    entry.Race.RaceDate,
		RaceTime:    entry.Race.RaceTime,
		SelectionID: entry.Favorite.SelectionID,
		Side:        models.BetSideLay,
		Odds:        *entry.Favorite.BSPOdds,
		Stake:       sizing.Stake,
		Liability:   sizing.Liability,
		Multiplier:  d.Multiplier,
		Score:       d.Qualification.Score,
		Reasons:     d.Qualification.Reasons,
		Notes:       d.Qualification.Notes,
		Result:      result,
		ProfitLoss:  models.LayProfitLoss(sizing.Stake, sizing.Liability, result),
		PlacedAt:    start,
		SettledAt:   start,
	}

	l.state.apply(wager)
	if !wager.IsVoid() {
		out.Halt = l.governor.Record(wager.ProfitLoss)
	}

	out.Disposition = DispositionWagered
	out.Wager = &wager
	return out, nil
}

func (l *Ledger) size(entry *models.RaceEntry, multiplier float64) (strategy.Sizing, error) {
	if !entry.Favorite.HasPrice() {
		return strategy.Sizing{}, models.NewDataError(entry.Race.ID, "qualified race has no price")
	}
	if !l.state.Bankroll.IsPositive() {
		return strategy.Sizing{}, models.NewDataError(entry.Race.ID,
			fmt.Sprintf("bankroll must be positive, got %s", l.state.Bankroll.StringFixed(2)))
	}

	sizing, err := strategy.SizeStake(l.state.Bankroll, *entry.Favorite.BSPOdds, multiplier, &l.stake)
	if err != nil {
		return strategy.Sizing{}, models.NewDataError(entry.Race.ID, err.Error())
	}
	if !sizing.Stake.IsPositive() {
		return strategy.Sizing{}, models.NewDataError(entry.Race.ID, "stake rounds to zero")
	}
	return sizing, nil
}

func outcomeOf(rr models.RaceResult) models.BetResult {
	switch {
	case rr.IsVoid():
		return models.BetResultVoid
	case rr.FavoriteWon():
		return models.BetResultLost
	default:
		return models.BetResultWon
	}
}

func raceKey(r *models.Race) string {
	if r.ID != "" {
		return r.ID
	}
	return r.Course + "|" + r.RaceDate + "|" + r.RaceTime
}

// runIDFor derives a stable run id from the request so repeated runs match
func runIDFor(req *Request) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%s|%s|%+v|%+v",
		req.Name,
		req.StartDate.Format(models.DateLayout),
		req.EndDate.Format(models.DateLayout),
		req.InitialBankroll.String(),
		req.Rules,
		req.Stake,
	)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}
