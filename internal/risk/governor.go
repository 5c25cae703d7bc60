// Package risk gates wagering on realised daily and weekly losses.
package risk

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

var hundred = decimal.NewFromInt(100)

// State represents whether new wagers may be placed
type State int

const (
	// Active means wagering is permitted
	Active State = iota
	// DailyHalted means no wagers until the calendar day rolls over
	DailyHalted
	// WeeklyHalted means no wagers until the ISO week rolls over
	WeeklyHalted
)

// String returns string representation of the state
func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case DailyHalted:
		return "daily_halted"
	case WeeklyHalted:
		return "weekly_halted"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Transition describes a state change caused by a settlement or a period rollover
type Transition struct {
	From  State           `json:"from"`
	To    State           `json:"to"`
	Date  string          `json:"date"`
	Loss  decimal.Decimal `json:"loss"`
	Limit decimal.Decimal `json:"limit"`
}

// Changed reports whether the transition moved between states
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Governor tracks realised P&L for the current day and ISO week against
// loss limits measured on the bankroll at the start of each period.
// A Governor belongs to a single run and is not safe for concurrent use.
type Governor struct {
	dailyPercent  decimal.Decimal
	weeklyPercent decimal.Decimal

	state   State
	started bool

	day      string
	weekYear int
	week     int

	dayStartBankroll  decimal.Decimal
	weekStartBankroll decimal.Decimal
	dayPnL            decimal.Decimal
	weekPnL           decimal.Decimal

	haltCount int
}

// NewGovernor creates a governor for the given loss limits, in percent of bankroll
func NewGovernor(dailyLossPercent, weeklyLossPercent float64) *Governor {
	return &Governor{
		dailyPercent:  decimal.NewFromFloat(dailyLossPercent),
		weeklyPercent: decimal.NewFromFloat(weeklyLossPercent),
	}
}

// Advance moves the governor to the day of the next race. Entering a new
// calendar day resets the daily window; entering a new ISO week resets the
// weekly window. Halts lapse with the window that caused them.
func (g *Governor) Advance(date time.Time, bankroll decimal.Decimal) Transition {
	day := date.Format(models.DateLayout)
	year, week := date.ISOWeek()
	from := g.state

	if !g.started {
		g.started = true
		g.openDay(day, bankroll)
		g.openWeek(year, week, bankroll)
		return Transition{From: from, To: g.state, Date: day}
	}

	if year != g.weekYear || week != g.week {
		g.openWeek(year, week, bankroll)
		if g.state == WeeklyHalted {
			g.state = Active
		}
	}
	if day != g.day {
		g.openDay(day, bankroll)
		if g.state == DailyHalted {
			g.state = Active
		}
	}

	return Transition{From: from, To: g.state, Date: day}
}

func (g *Governor) openDay(day string, bankroll decimal.Decimal) {
	g.day = day
	g.dayStartBankroll = bankroll
	g.dayPnL = decimal.Zero
}

func (g *Governor) openWeek(year, week int, bankroll decimal.Decimal) {
	g.weekYear = year
	g.week = week
	g.weekStartBankroll = bankroll
	g.weekPnL = decimal.Zero
}

// StateAt reports the state a race on date would see, without rolling any
// window. A halt lapses once date leaves the window that caused it.
func (g *Governor) StateAt(date time.Time) State {
	if !g.started {
		return g.state
	}
	state := g.state
	if year, week := date.ISOWeek(); state == WeeklyHalted && (year != g.weekYear || week != g.week) {
		state = Active
	}
	if state == DailyHalted && date.Format(models.DateLayout) != g.day {
		state = Active
	}
	return state
}

// Allowed reports whether a new wager may be placed
func (g *Governor) Allowed() bool {
	return g.state == Active
}

// State returns the current state
func (g *Governor) State() State {
	return g.state
}

// Record feeds the realised P&L of a settled, non-void wager. When the
// cumulative loss of the week or day reaches its limit the governor halts;
// the weekly halt takes priority.
func (g *Governor) Record(pnl decimal.Decimal) Transition {
	from := g.state
	g.dayPnL = g.dayPnL.Add(pnl)
	g.weekPnL = g.weekPnL.Add(pnl)

	weekLoss, weekLimit := g.weekPnL.Neg(), g.WeeklyLimit()
	dayLoss, dayLimit := g.dayPnL.Neg(), g.DailyLimit()

	t := Transition{From: from, Date: g.day}
	switch {
	case weekLoss.IsPositive() && weekLoss.GreaterThanOrEqual(weekLimit):
		g.state = WeeklyHalted
		t.Loss, t.Limit = weekLoss, weekLimit
	case g.state == Active && dayLoss.IsPositive() && dayLoss.GreaterThanOrEqual(dayLimit):
		g.state = DailyHalted
		t.Loss, t.Limit = dayLoss, dayLimit
	}
	t.To = g.state
	if t.Changed() {
		g.haltCount++
	}
	return t
}

// DailyLimit returns the loss that halts wagering for the current day
func (g *Governor) DailyLimit() decimal.Decimal {
	return g.dayStartBankroll.Mul(g.dailyPercent).Div(hundred)
}

// WeeklyLimit returns the loss that halts wagering for the current ISO week
func (g *Governor) WeeklyLimit() decimal.Decimal {
	return g.weekStartBankroll.Mul(g.weeklyPercent).Div(hundred)
}

// DailyPnL returns the realised P&L of the current day
func (g *Governor) DailyPnL() decimal.Decimal {
	return g.dayPnL
}

// WeeklyPnL returns the realised P&L of the current ISO week
func (g *Governor) WeeklyPnL() decimal.Decimal {
	return g.weekPnL
}

// HaltCount returns how many times wagering has been halted
func (g *Governor) HaltCount() int {
	return g.haltCount
}
