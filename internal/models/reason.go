package models

import (
	"fmt"
	"strings"
)

// ReasonKind identifies why a race did or did not qualify
type ReasonKind int

const (
	ReasonAllCriteriaMet ReasonKind = iota
	ReasonNoPrice
	ReasonOddsBelowMinimum
	ReasonOddsAboveMaximum
	ReasonRunnersBelowMinimum
	ReasonRunnersAboveMaximum
	ReasonRaceTypeNotAllowed
	ReasonHandicapExcluded
	ReasonAmateurExcluded
	ReasonApprenticeExcluded
	ReasonGoingBoost
	ReasonTrackBoost
)

// String returns the kind as a snake_case code
func (k ReasonKind) String() string {
	switch k {
	case ReasonAllCriteriaMet:
		return "all_criteria_met"
	case ReasonNoPrice:
		return "no_price"
	case ReasonOddsBelowMinimum:
		return "odds_below_minimum"
	case ReasonOddsAboveMaximum:
		return "odds_above_maximum"
	case ReasonRunnersBelowMinimum:
		return "runners_below_minimum"
	case ReasonRunnersAboveMaximum:
		return "runners_above_maximum"
	case ReasonRaceTypeNotAllowed:
		return "race_type_not_allowed"
	case ReasonHandicapExcluded:
		return "handicap_excluded"
	case ReasonAmateurExcluded:
		return "amateur_excluded"
	case ReasonApprenticeExcluded:
		return "apprentice_excluded"
	case ReasonGoingBoost:
		return "going_boost"
	case ReasonTrackBoost:
		return "track_boost"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by its code
func (k ReasonKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Reason is one qualification finding with its numeric context.
// Threshold is only meaningful for the odds and runner kinds; for the boost
// notes Actual holds the stake factor and Detail the going or track.
type Reason struct {
	Kind      ReasonKind `json:"kind"`
	Threshold float64    `json:"threshold,omitempty"`
	Actual    float64    `json:"actual,omitempty"`
	Detail    string     `json:"detail,omitempty"`
}

// String renders the reason for display
func (r Reason) String() string {
	switch r.Kind {
	case ReasonAllCriteriaMet:
		return "all criteria met"
	case ReasonNoPrice:
		return "no price available"
	case ReasonOddsBelowMinimum:
		return fmt.Sprintf("odds %.2f below minimum %.2f", r.Actual, r.Threshold)
	case ReasonOddsAboveMaximum:
		return fmt.Sprintf("odds %.2f above maximum %.2f", r.Actual, r.Threshold)
	case ReasonRunnersBelowMinimum:
		return fmt.Sprintf("%d runners below minimum %d", int(r.Actual), int(r.Threshold))
	case ReasonRunnersAboveMaximum:
		return fmt.Sprintf("%d runners above maximum %d", int(r.Actual), int(r.Threshold))
	case ReasonRaceTypeNotAllowed:
		return fmt.Sprintf("race type %s not allowed", r.Detail)
	case ReasonHandicapExcluded:
		return "handicap excluded"
	case ReasonAmateurExcluded:
		return "amateur race excluded"
	case ReasonApprenticeExcluded:
		return "apprentice race excluded"
	case ReasonGoingBoost:
		return fmt.Sprintf("%s going (+%.0f%% stake)", strings.ReplaceAll(r.Detail, "_", " "), (r.Actual-1)*100)
	case ReasonTrackBoost:
		return fmt.Sprintf("%s track (+%.0f%% stake)", r.Detail, (r.Actual-1)*100)
	default:
		return r.Kind.String()
	}
}

// JoinReasons renders reasons for display, separated by sep
func JoinReasons(reasons []Reason, sep string) string {
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r.String()
	}
	return strings.Join(parts, sep)
}
