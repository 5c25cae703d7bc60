// Package strategy implements the lay-the-favorite decision rules: qualification,
// stake adjustment and stake sizing. Everything here is a pure function of its inputs.
package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/models"
)

// GoingMultipliers maps every going condition to a stake factor
type GoingMultipliers map[models.GoingCondition]float64

// For returns the factor for a going condition, 1.0 when absent
func (m GoingMultipliers) For(g models.GoingCondition) float64 {
	if v, ok := m[g]; ok {
		return v
	}
	return 1.0
}

// TrackMultipliers maps track directions to a stake factor; unlisted tracks are neutral
type TrackMultipliers map[models.TrackDirection]float64

// For returns the factor for a track direction, 1.0 when absent
func (m TrackMultipliers) For(td models.TrackDirection) float64 {
	if v, ok := m[td]; ok {
		return v
	}
	return 1.0
}

// MonthMultipliers maps calendar months to a stake factor; unlisted months are neutral
type MonthMultipliers map[time.Month]float64

// For returns the factor for a month, 1.0 when absent
func (m MonthMultipliers) For(month time.Month) float64 {
	if v, ok := m[month]; ok {
		return v
	}
	return 1.0
}

// Rules is the qualification and adjustment configuration of the strategy
type Rules struct {
	MinOdds            decimal.Decimal          `json:"min_odds"`
	MaxOdds            decimal.Decimal          `json:"max_odds"`
	MinRunners         int                      `json:"min_runners"`
	MaxRunners         int                      `json:"max_runners"`
	AllowedRaceTypes   map[models.RaceType]bool `json:"allowed_race_types"`
	ExcludeHandicaps   bool                     `json:"exclude_handicaps"`
	HandicapMultiplier float64                  `json:"handicap_multiplier"`
	Going              GoingMultipliers         `json:"going_multipliers"`
	Track              TrackMultipliers         `json:"track_multipliers"`
	Month              MonthMultipliers         `json:"month_multipliers"`
	ExcludeAmateur     bool                     `json:"exclude_amateur"`
	ExcludeApprentice  bool                     `json:"exclude_apprentice"`
}

// StakeManagement is the sizing and loss-limit configuration, in percent of bankroll
type StakeManagement struct {
	BaseStakePercent       float64 `json:"base_stake_percent"`
	MaxLiabilityPercent    float64 `json:"max_liability_percent"`
	DailyLossLimitPercent  float64 `json:"daily_loss_limit_percent"`
	WeeklyLossLimitPercent float64 `json:"weekly_loss_limit_percent"`
	UseKelly               bool    `json:"use_kelly"`
	KellyFraction          float64 `json:"kelly_fraction"`
}

// DefaultRules returns the stock rule set
func DefaultRules() Rules {
	return Rules{
		MinOdds:    decimal.RequireFromString("2.0"),
		MaxOdds:    decimal.RequireFromString("4.5"),
		MinRunners: 6,
		MaxRunners: 20,
		AllowedRaceTypes: map[models.RaceType]bool{
			models.RaceTypeFlat:             true,
			models.RaceTypeHurdle:           true,
			models.RaceTypeChase:            true,
			models.RaceTypeNationalHuntFlat: true,
		},
		HandicapMultiplier: 0.7,
		Going: GoingMultipliers{
			models.GoingFirm:       0.8,
			models.GoingGoodToFirm: 0.9,
			models.GoingGood:       1.0,
			models.GoingGoodToSoft: 1.0,
			models.GoingSoft:       1.2,
			models.GoingHeavy:      1.2,
			models.GoingStandard:   1.0,
			models.GoingSlow:       1.0,
		},
		Track: TrackMultipliers{models.TrackFigure8: 1.15},
		Month: MonthMultipliers{
			time.January:  0.9,
			time.February: 0.9,
			time.March:    0.9,
			time.December: 0.85,
		},
		ExcludeAmateur:    true,
		ExcludeApprentice: true,
	}
}

// DefaultStakeManagement returns the stock staking plan
func DefaultStakeManagement() StakeManagement {
	return StakeManagement{
		BaseStakePercent:       0.5,
		MaxLiabilityPercent:    2.0,
		DailyLossLimitPercent:  5.0,
		WeeklyLossLimitPercent: 10.0,
		KellyFraction:          0.25,
	}
}

// Validate checks the rule invariants
func (r *Rules) Validate() error {
	if !r.MinOdds.GreaterThan(decimal.NewFromInt(1)) {
		return models.NewConfigurationError("min_odds", fmt.Sprintf("must exceed 1.0, got %s", r.MinOdds.String()))
	}
	if r.MinOdds.GreaterThan(r.MaxOdds) {
		return models.NewConfigurationError("min_odds", fmt.Sprintf("%s exceeds max_odds %s", r.MinOdds.String(), r.MaxOdds.String()))
	}
	if r.MinRunners <= 0 {
		return models.NewConfigurationError("min_runners", fmt.Sprintf("must be positive, got %d", r.MinRunners))
	}
	if r.MinRunners > r.MaxRunners {
		return models.NewConfigurationError("min_runners", fmt.Sprintf("%d exceeds max_runners %d", r.MinRunners, r.MaxRunners))
	}
	if len(r.AllowedRaceTypes) == 0 {
		return models.NewConfigurationError("allowed_race_types", "at least one race type is required")
	}
	if r.HandicapMultiplier <= 0 {
		return models.NewConfigurationError("handicap_multiplier", fmt.Sprintf("must be positive, got %g", r.HandicapMultiplier))
	}
	for _, g := range models.GoingConditions {
		v, ok := r.Going[g]
		if !ok {
			return models.NewConfigurationError("going_multipliers", fmt.Sprintf("missing entry for %s", g))
		}
		if v <= 0 {
			return models.NewConfigurationError("going_multipliers", fmt.Sprintf("%s must be positive, got %g", g, v))
		}
	}
	for td, v := range r.Track {
		if v <= 0 {
			return models.NewConfigurationError("track_multipliers", fmt.Sprintf("%s must be positive, got %g", td, v))
		}
	}
	for m, v := range r.Month {
		if m < time.January || m > time.December {
			return models.NewConfigurationError("month_multipliers", fmt.Sprintf("invalid month %d", m))
		}
		if v <= 0 {
			return models.NewConfigurationError("month_multipliers", fmt.Sprintf("month %d must be positive, got %g", m, v))
		}
	}
	return nil
}

// AllowedRaceTypeList returns the allowed race types in declaration order
func (r *Rules) AllowedRaceTypeList() []models.RaceType {
	out := make([]models.RaceType, 0, len(r.AllowedRaceTypes))
	for _, rt := range models.RaceTypes {
		if r.AllowedRaceTypes[rt] {
			out = append(out, rt)
		}
	}
	return out
}

// Validate checks the staking invariants
func (s *StakeManagement) Validate() error {
	percents := []struct {
		field string
		value float64
	}{
		{"base_stake_percent", s.BaseStakePercent},
		{"max_liability_percent", s.MaxLiabilityPercent},
		{"daily_loss_limit_percent", s.DailyLossLimitPercent},
		{"weekly_loss_limit_percent", s.WeeklyLossLimitPercent},
	}
	for _, p := range percents {
		if p.value <= 0 || p.value > 100 {
			return models.NewConfigurationError(p.field, fmt.Sprintf("must be in (0,100], got %g", p.value))
		}
	}
	if s.UseKelly && (s.KellyFraction <= 0 || s.KellyFraction > 1) {
		return models.NewConfigurationError("kelly_fraction", fmt.Sprintf("must be in (0,1], got %g", s.KellyFraction))
	}
	return nil
}

// RulesFromConfig converts the string-keyed rule configuration into typed rules.
// Going conditions missing from the configuration default to 1.0.
func RulesFromConfig(cfg *config.RulesConfig) (Rules, error) {
	if cfg == nil {
		return Rules{}, models.NewConfigurationError("rules", "rules config is required")
	}

	r := Rules{
		MinOdds:            decimal.NewFromFloat(cfg.MinOdds),
		MaxOdds:            decimal.NewFromFloat(cfg.MaxOdds),
		MinRunners:         cfg.MinRunners,
		MaxRunners:         cfg.MaxRunners,
		AllowedRaceTypes:   make(map[models.RaceType]bool, len(cfg.AllowedRaceTypes)),
		ExcludeHandicaps:   cfg.ExcludeHandicaps,
		HandicapMultiplier: cfg.HandicapMultiplier,
		Going:              make(GoingMultipliers, len(models.GoingConditions)),
		Track:              make(TrackMultipliers, len(cfg.TrackMultipliers)),
		Month:              make(MonthMultipliers, len(cfg.MonthMultipliers)),
		ExcludeAmateur:     cfg.ExcludeAmateur,
		ExcludeApprentice:  cfg.ExcludeApprentice,
	}

	for _, s := range cfg.AllowedRaceTypes {
		rt, err := models.ParseRaceType(s)
		if err != nil {
			return Rules{}, models.NewConfigurationError("allowed_race_types", err.Error())
		}
		r.AllowedRaceTypes[rt] = true
	}

	for _, g := range models.GoingConditions {
		r.Going[g] = 1.0
	}
	for _, key := range sortedKeys(cfg.GoingMultipliers) {
		g, err := models.ParseGoing(key)
		if err != nil {
			return Rules{}, models.NewConfigurationError("going_multipliers", err.Error())
		}
		r.Going[g] = cfg.GoingMultipliers[key]
	}

	for _, key := range sortedKeys(cfg.TrackMultipliers) {
		td, err := models.ParseTrackDirection(key)
		if err != nil {
			return Rules{}, models.NewConfigurationError("track_multipliers", err.Error())
		}
		r.Track[td] = cfg.TrackMultipliers[key]
	}

	for _, key := range sortedKeys(cfg.MonthMultipliers) {
		m, err := strconv.Atoi(key)
		if err != nil || m < 1 || m > 12 {
			return Rules{}, models.NewConfigurationError("month_multipliers", fmt.Sprintf("invalid month %q", key))
		}
		r.Month[time.Month(m)] = cfg.MonthMultipliers[key]
	}

	return r, r.Validate()
}

// StakeManagementFromConfig converts the stake configuration
func StakeManagementFromConfig(cfg *config.StakeConfig) (StakeManagement, error) {
	if cfg == nil {
		return StakeManagement{}, models.NewConfigurationError("stake", "stake config is required")
	}
	s := StakeManagement{
		BaseStakePercent:       cfg.BaseStakePercent,
		MaxLiabilityPercent:    cfg.MaxLiabilityPercent,
		DailyLossLimitPercent:  cfg.DailyLossLimitPercent,
		WeeklyLossLimitPercent: cfg.WeeklyLossLimitPercent,
		UseKelly:               cfg.UseKelly,
		KellyFraction:          cfg.KellyFraction,
	}
	return s, s.Validate()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
