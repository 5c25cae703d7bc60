package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the ISO-8601 calendar date format used at every boundary
	DateLayout = "2006-01-02"
	// TimeLayout is the 24-hour race time format
	TimeLayout = "15:04"
)

// Race represents the immutable facts of a single race
type Race struct {
	ID              string         `db:"id" json:"id"`
	EventID         string         `db:"event_id" json:"event_id"`
	MarketID        string         `db:"market_id" json:"market_id"`
	Course          string         `db:"course_name" json:"course_name"`
	RaceDate        string         `db:"race_date" json:"race_date"`
	RaceTime        string         `db:"race_time" json:"race_time"`
	RaceType        RaceType       `db:"race_type" json:"race_type"`
	RaceClass       int            `db:"race_class" json:"race_class"`
	Distance        string         `db:"distance" json:"distance"`
	Going           GoingCondition `db:"going" json:"going"`
	NumberOfRunners int            `db:"number_of_runners" json:"number_of_runners"`
	Country         Country        `db:"country" json:"country"`
	TrackDirection  TrackDirection `db:"track_direction" json:"track_direction"`
	IsHandicap      bool           `db:"is_handicap" json:"is_handicap"`
	IsAmateur       bool           `db:"is_amateur" json:"is_amateur"`
	IsApprentice    bool           `db:"is_apprentice" json:"is_apprentice"`
}

// ParseRaceTime parses a zero-padded 24-hour HH:MM time. time.Parse alone
// accepts "9:05", which would sort after "10:00".
func ParseRaceTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	if t.Format(TimeLayout) != s {
		return time.Time{}, fmt.Errorf("race time %q is not zero-padded HH:MM", s)
	}
	return t, nil
}

// ScheduledStart combines race date and time into a UTC timestamp
func (r *Race) ScheduledStart() (time.Time, error) {
	date, err := time.Parse(DateLayout, r.RaceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid race date %q: %w", r.RaceDate, err)
	}
	clock, err := ParseRaceTime(r.RaceTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid race time %q: %w", r.RaceTime, err)
	}
	return date.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}

// Favorite represents the market favorite of a race
type Favorite struct {
	SelectionID int64            `db:"selection_id" json:"selection_id"`
	HorseName   string           `db:"horse_name" json:"horse_name"`
	BSPOdds     *decimal.Decimal `db:"bsp_odds" json:"bsp_odds"`
}

// HasPrice reports whether a starting price is available
func (f *Favorite) HasPrice() bool {
	return f.BSPOdds != nil
}

// RaceResult represents how the race concluded for the favorite
type RaceResult struct {
	Status           ResultStatus `db:"status" json:"status"`
	FavoritePosition int          `db:"favorite_position" json:"favorite_position"` // 0 when unplaced
}

// FavoriteWon reports whether the favorite won a completed race
func (rr RaceResult) FavoriteWon() bool {
	return rr.Status == ResultCompleted && rr.FavoritePosition == 1
}

// IsVoid reports whether the race is excluded from settlement
func (rr RaceResult) IsVoid() bool {
	return rr.Status == ResultAbandoned || rr.Status == ResultVoid
}

// RaceEntry is one adjudicated race handed to the backtest core
type RaceEntry struct {
	Race     Race       `json:"race"`
	Favorite Favorite   `json:"favorite"`
	Result   RaceResult `json:"result"`
}

// Validate checks the mandatory fields of an entry
func (e *RaceEntry) Validate() error {
	if e.Race.Course == "" {
		return NewDataError(e.Race.ID, "course is required")
	}
	if e.Race.RaceDate == "" {
		return NewDataError(e.Race.ID, "race date is required")
	}
	if e.Race.NumberOfRunners <= 0 {
		return NewDataError(e.Race.ID, fmt.Sprintf("runner count must be positive, got %d", e.Race.NumberOfRunners))
	}
	if _, err := e.Race.ScheduledStart(); err != nil {
		return NewDataError(e.Race.ID, err.Error())
	}
	if e.Favorite.BSPOdds != nil && !e.Favorite.BSPOdds.GreaterThan(decimal.NewFromInt(1)) {
		return NewDataError(e.Race.ID, fmt.Sprintf("odds must exceed 1.0, got %s", e.Favorite.BSPOdds.StringFixed(2)))
	}
	return nil
}
