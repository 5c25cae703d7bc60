package strategy

import (
	"github.com/yourusername/smart-lay/internal/models"
)

const maxQualificationScore = 100.0

// penalty is the score deducted for a failed criterion
func penalty(kind models.ReasonKind) float64 {
	switch kind {
	case models.ReasonOddsBelowMinimum, models.ReasonOddsAboveMaximum:
		return 30
	case models.ReasonRunnersBelowMinimum:
		return 25
	case models.ReasonRunnersAboveMaximum:
		return 15
	case models.ReasonRaceTypeNotAllowed:
		return 40
	case models.ReasonHandicapExcluded, models.ReasonAmateurExcluded, models.ReasonApprenticeExcluded:
		return 35
	default:
		return 0
	}
}

// Qualify checks a race and its favorite against the rules.
// Every failing criterion is reported; a race qualifies only when none fail.
// A race without a price scores zero.
func Qualify(race *models.Race, fav *models.Favorite, rules *Rules) Qualification {
	var reasons []models.Reason

	if !fav.HasPrice() {
		reasons = append(reasons, models.Reason{Kind: models.ReasonNoPrice})
	} else {
		odds := *fav.BSPOdds
		if odds.LessThan(rules.MinOdds) {
			reasons = append(reasons, models.Reason{
				Kind:      models.ReasonOddsBelowMinimum,
				Threshold: rules.MinOdds.InexactFloat64(),
				Actual:    odds.InexactFloat64(),
			})
		}
		if odds.GreaterThan(rules.MaxOdds) {
			reasons = append(reasons, models.Reason{
				Kind:      models.ReasonOddsAboveMaximum,
				Threshold: rules.MaxOdds.InexactFloat64(),
				Actual:    odds.InexactFloat64(),
			})
		}
	}

	if race.NumberOfRunners < rules.MinRunners {
		reasons = append(reasons, models.Reason{
			Kind:      models.ReasonRunnersBelowMinimum,
			Threshold: float64(rules.MinRunners),
			Actual:    float64(race.NumberOfRunners),
		})
	}
	if race.NumberOfRunners > rules.MaxRunners {
		reasons = append(reasons, models.Reason{
			Kind:      models.ReasonRunnersAboveMaximum,
			Threshold: float64(rules.MaxRunners),
			Actual:    float64(race.NumberOfRunners),
		})
	}

	if !rules.AllowedRaceTypes[race.RaceType] {
		reasons = append(reasons, models.Reason{Kind: models.ReasonRaceTypeNotAllowed, Detail: string(race.RaceType)})
	}

	if race.IsHandicap && rules.ExcludeHandicaps {
		reasons = append(reasons, models.Reason{Kind: models.ReasonHandicapExcluded})
	}
	if race.IsAmateur && rules.ExcludeAmateur {
		reasons = append(reasons, models.Reason{Kind: models.ReasonAmateurExcluded})
	}
	if race.IsApprentice && rules.ExcludeApprentice {
		reasons = append(reasons, models.Reason{Kind: models.ReasonApprenticeExcluded})
	}

	if len(reasons) == 0 {
		return Qualification{
			Qualified: true,
			Score:     maxQualificationScore,
			Reasons:   []models.Reason{{Kind: models.ReasonAllCriteriaMet}},
			Notes:     boostNotes(race, rules),
		}
	}
	return Qualification{Qualified: false, Score: score(reasons), Reasons: reasons}
}

func score(reasons []models.Reason) float64 {
	s := maxQualificationScore
	for _, r := range reasons {
		if r.Kind == models.ReasonNoPrice {
			return 0
		}
		s -= penalty(r.Kind)
	}
	if s < 0 {
		return 0
	}
	return s
}

// boostNotes lists the going and track factors that raise the stake
func boostNotes(race *models.Race, rules *Rules) []models.Reason {
	var notes []models.Reason
	if f := rules.Going.For(race.Going); f > 1 {
		notes = append(notes, models.Reason{Kind: models.ReasonGoingBoost, Actual: f, Detail: string(race.Going)})
	}
	if race.TrackDirection != "" {
		if f := rules.Track.For(race.TrackDirection); f > 1 {
			notes = append(notes, models.Reason{Kind: models.ReasonTrackBoost, Actual: f, Detail: string(race.TrackDirection)})
		}
	}
	return notes
}
