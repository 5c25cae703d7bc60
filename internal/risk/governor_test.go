package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "daily_halted", DailyHalted.String())
	assert.Equal(t, "weekly_halted", WeeklyHalted.String())
	assert.Equal(t, "unknown", State(9).String())
}

func TestGovernorStartsActive(t *testing.T) {
	g := NewGovernor(5, 10)
	tr := g.Advance(day("2024-03-04"), money("10000"))

	assert.False(t, tr.Changed())
	assert.True(t, g.Allowed())
	assert.True(t, g.DailyLimit().Equal(money("500")))
	assert.True(t, g.WeeklyLimit().Equal(money("1000")))
}

func TestGovernorDailyHaltUntilNextDay(t *testing.T) {
	g := NewGovernor(5, 10)
	g.Advance(day("2024-03-04"), money("10000"))

	tr := g.Record(money("-300"))
	assert.False(t, tr.Changed())
	assert.True(t, g.Allowed())

	tr = g.Record(money("-200"))
	require.True(t, tr.Changed())
	assert.Equal(t, DailyHalted, tr.To)
	assert.True(t, tr.Loss.Equal(money("500")))
	assert.True(t, tr.Limit.Equal(money("500")))
	assert.False(t, g.Allowed())

	// later races the same day stay blocked
	g.Advance(day("2024-03-04"), money("9500"))
	assert.False(t, g.Allowed())

	tr = g.Advance(day("2024-03-05"), money("9500"))
	assert.Equal(t, DailyHalted, tr.From)
	assert.Equal(t, Active, tr.To)
	assert.True(t, g.Allowed())
	assert.True(t, g.DailyPnL().IsZero())
	assert.True(t, g.DailyLimit().Equal(money("475")))
	assert.Equal(t, 1, g.HaltCount())
}

func TestGovernorWinsOffsetLosses(t *testing.T) {
	g := NewGovernor(5, 10)
	g.Advance(day("2024-03-04"), money("10000"))

	g.Record(money("-400"))
	g.Record(money("150"))
	g.Record(money("-200"))

	assert.True(t, g.Allowed())
	assert.True(t, g.DailyPnL().Equal(money("-450")))
}

func TestGovernorWeeklyHaltSurvivesDayRollover(t *testing.T) {
	g := NewGovernor(5, 10)
	// 2024-03-04 is a Monday
	g.Advance(day("2024-03-04"), money("10000"))
	g.Record(money("-450"))
	g.Advance(day("2024-03-05"), money("9550"))
	g.Record(money("-450"))
	g.Advance(day("2024-03-06"), money("9100"))
	assert.True(t, g.Allowed())

	tr := g.Record(money("-100"))
	assert.Equal(t, WeeklyHalted, tr.To)
	assert.True(t, tr.Limit.Equal(money("1000")))

	g.Advance(day("2024-03-07"), money("9000"))
	assert.Equal(t, WeeklyHalted, g.State())
	g.Advance(day("2024-03-10"), money("9000"))
	assert.False(t, g.Allowed())

	tr = g.Advance(day("2024-03-11"), money("9000"))
	assert.Equal(t, WeeklyHalted, tr.From)
	assert.Equal(t, Active, tr.To)
	assert.True(t, g.WeeklyPnL().IsZero())
	assert.True(t, g.WeeklyLimit().Equal(money("900")))
}

func TestGovernorWeeklyTakesPriority(t *testing.T) {
	g := NewGovernor(5, 4)
	g.Advance(day("2024-03-04"), money("10000"))

	tr := g.Record(money("-600"))
	assert.Equal(t, WeeklyHalted, tr.To)
	assert.True(t, tr.Limit.Equal(money("400")))

	// next day does not lift a weekly halt
	g.Advance(day("2024-03-05"), money("9400"))
	assert.Equal(t, WeeklyHalted, g.State())
}

func TestGovernorISOWeekAcrossYearEnd(t *testing.T) {
	g := NewGovernor(50, 10)
	// 2024-12-30 belongs to ISO week 1 of 2025
	g.Advance(day("2024-12-30"), money("1000"))
	g.Record(money("-100"))
	require.Equal(t, WeeklyHalted, g.State())

	g.Advance(day("2025-01-05"), money("900"))
	assert.Equal(t, WeeklyHalted, g.State())

	g.Advance(day("2025-01-06"), money("900"))
	assert.Equal(t, Active, g.State())
}

func TestGovernorStateAtDoesNotRoll(t *testing.T) {
	g := NewGovernor(5, 10)
	assert.Equal(t, Active, g.StateAt(day("2024-03-04")))

	g.Advance(day("2024-03-04"), money("10000"))
	g.Record(money("-500"))
	require.Equal(t, DailyHalted, g.State())

	assert.Equal(t, DailyHalted, g.StateAt(day("2024-03-04")))
	assert.Equal(t, Active, g.StateAt(day("2024-03-05")))
	assert.Equal(t, DailyHalted, g.State())
	assert.True(t, g.DailyPnL().Equal(money("-500")))

	g.Record(money("-500"))
	require.Equal(t, WeeklyHalted, g.State())
	// 2024-03-10 is the Sunday of the same ISO week
	assert.Equal(t, WeeklyHalted, g.StateAt(day("2024-03-10")))
	assert.Equal(t, Active, g.StateAt(day("2024-03-11")))
}
