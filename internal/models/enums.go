package models

import "fmt"

// RaceType represents the code of a race
type RaceType string

const (
	RaceTypeFlat             RaceType = "flat"
	RaceTypeHurdle           RaceType = "hurdle"
	RaceTypeChase            RaceType = "chase"
	RaceTypeNationalHuntFlat RaceType = "national_hunt_flat"
	RaceTypeHuntersChase     RaceType = "hunters_chase"
)

// RaceTypes lists every race type in declaration order
var RaceTypes = []RaceType{
	RaceTypeFlat,
	RaceTypeHurdle,
	RaceTypeChase,
	RaceTypeNationalHuntFlat,
	RaceTypeHuntersChase,
}

// ParseRaceType validates a race type string
func ParseRaceType(s string) (RaceType, error) {
	for _, rt := range RaceTypes {
		if string(rt) == s {
			return rt, nil
		}
	}
	return "", fmt.Errorf("unknown race type %q", s)
}

// GoingCondition represents the official ground condition
type GoingCondition string

const (
	GoingFirm       GoingCondition = "firm"
	GoingGoodToFirm GoingCondition = "good_to_firm"
	GoingGood       GoingCondition = "good"
	GoingGoodToSoft GoingCondition = "good_to_soft"
	GoingSoft       GoingCondition = "soft"
	GoingHeavy      GoingCondition = "heavy"
	GoingStandard   GoingCondition = "standard"
	GoingSlow       GoingCondition = "slow"
)

// GoingConditions lists every going condition from firmest to slowest
var GoingConditions = []GoingCondition{
	GoingFirm,
	GoingGoodToFirm,
	GoingGood,
	GoingGoodToSoft,
	GoingSoft,
	GoingHeavy,
	GoingStandard,
	GoingSlow,
}

// ParseGoing validates a going string
func ParseGoing(s string) (GoingCondition, error) {
	for _, g := range GoingConditions {
		if string(g) == s {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown going %q", s)
}

// TrackDirection represents the geometry of a course
type TrackDirection string

const (
	TrackLeft     TrackDirection = "left"
	TrackRight    TrackDirection = "right"
	TrackStraight TrackDirection = "straight"
	TrackFigure8  TrackDirection = "figure8"
)

// TrackDirections lists every track direction
var TrackDirections = []TrackDirection{TrackLeft, TrackRight, TrackStraight, TrackFigure8}

// ParseTrackDirection validates a track direction string
func ParseTrackDirection(s string) (TrackDirection, error) {
	for _, td := range TrackDirections {
		if string(td) == s {
			return td, nil
		}
	}
	return "", fmt.Errorf("unknown track direction %q", s)
}

// Country represents the racing jurisdiction
type Country string

const (
	CountryUK  Country = "UK"
	CountryIRE Country = "IRE"
)

// ParseCountry validates a country code
func ParseCountry(s string) (Country, error) {
	switch Country(s) {
	case CountryUK, CountryIRE:
		return Country(s), nil
	default:
		return "", fmt.Errorf("unknown country %q", s)
	}
}

// BetResult represents the outcome of a lay wager from the layer's side
type BetResult string

const (
	// BetResultWon means the favorite lost and the lay collected the stake
	BetResultWon BetResult = "won"
	// BetResultLost means the favorite won and the lay paid the liability
	BetResultLost BetResult = "lost"
	// BetResultVoid means the race result is excluded from settlement
	BetResultVoid BetResult = "void"
)

// ParseBetResult validates a bet result string
func ParseBetResult(s string) (BetResult, error) {
	switch BetResult(s) {
	case BetResultWon, BetResultLost, BetResultVoid:
		return BetResult(s), nil
	default:
		return "", fmt.Errorf("unknown bet result %q", s)
	}
}

// ResultStatus represents how a race concluded
type ResultStatus string

const (
	ResultCompleted ResultStatus = "completed"
	ResultAbandoned ResultStatus = "abandoned"
	ResultVoid      ResultStatus = "void"
)

// ParseResultStatus validates a result status string
func ParseResultStatus(s string) (ResultStatus, error) {
	switch ResultStatus(s) {
	case ResultCompleted, ResultAbandoned, ResultVoid:
		return ResultStatus(s), nil
	default:
		return "", fmt.Errorf("unknown result status %q", s)
	}
}
