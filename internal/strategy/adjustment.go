package strategy

import (
	"time"

	"github.com/yourusername/smart-lay/internal/models"
)

// Adjustment returns the stake multiplier for a race: the product of the going,
// track and month factors, and the handicap factor when handicaps are staked.
// Unmapped keys and unparseable dates contribute a neutral 1.0.
func Adjustment(race *models.Race, rules *Rules) float64 {
	multiplier := rules.Going.For(race.Going) * rules.Track.For(race.TrackDirection)

	if date, err := time.Parse(models.DateLayout, race.RaceDate); err == nil {
		multiplier *= rules.Month.For(date.Month())
	}

	if race.IsHandicap && !rules.ExcludeHandicaps {
		multiplier *= rules.HandicapMultiplier
	}

	return multiplier
}
