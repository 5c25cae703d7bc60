package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/smart-lay/internal/config"
	"github.com/yourusername/smart-lay/internal/models"
)

func odds(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func qualifyingRace() models.Race {
	return models.Race{
		ID:              "race-1",
		Course:          "Kempton",
		RaceDate:        "2024-06-12",
		RaceTime:        "14:30",
		RaceType:        models.RaceTypeFlat,
		RaceClass:       4,
		Going:           models.GoingGood,
		NumberOfRunners: 10,
		Country:         models.CountryUK,
		TrackDirection:  models.TrackRight,
	}
}

func TestQualifyAllCriteriaMet(t *testing.T) {
	rules := DefaultRules()
	race := qualifyingRace()
	fav := models.Favorite{SelectionID: 1, BSPOdds: odds("3.00")}

	q := Qualify(&race, &fav, &rules)

	assert.True(t, q.Qualified)
	require.Len(t, q.Reasons, 1)
	assert.Equal(t, models.ReasonAllCriteriaMet, q.Reasons[0].Kind)
	assert.Equal(t, []string{"all criteria met"}, q.Strings())
}

func TestQualifyInclusiveOddsBounds(t *testing.T) {
	rules := DefaultRules()
	race := qualifyingRace()

	for _, price := range []string{"2.00", "4.50"} {
		fav := models.Favorite{BSPOdds: odds(price)}
		q := Qualify(&race, &fav, &rules)
		assert.True(t, q.Qualified, "odds %s must qualify", price)
	}
}

func TestQualifyOddsJustOutsideBand(t *testing.T) {
	rules := DefaultRules()
	race := qualifyingRace()

	below := models.Favorite{BSPOdds: odds("1.99")}
	q := Qualify(&race, &below, &rules)
	assert.False(t, q.Qualified)
	assert.True(t, q.Has(models.ReasonOddsBelowMinimum))
	assert.Contains(t, q.Strings()[0], "below minimum")
	assert.Equal(t, "odds 1.99 below minimum 2.00", q.Strings()[0])

	above := models.Favorite{BSPOdds: odds("4.51")}
	q = Qualify(&race, &above, &rules)
	assert.False(t, q.Qualified)
	assert.Equal(t, "odds 4.51 above maximum 4.50", q.Strings()[0])
}

func TestQualifyNoPrice(t *testing.T) {
	rules := DefaultRules()
	race := qualifyingRace()
	race.NumberOfRunners = 3
	fav := models.Favorite{SelectionID: 7}

	q := Qualify(&race, &fav, &rules)

	assert.False(t, q.Qualified)
	assert.Equal(t, []string{"no price available", "3 runners below minimum 6"}, q.Strings())
	assert.False(t, q.Has(models.ReasonOddsBelowMinimum))
}

func TestQualifyCollectsEveryViolation(t *testing.T) {
	rules := DefaultRules()
	rules.ExcludeHandicaps = true
	race := qualifyingRace()
	race.NumberOfRunners = 24
	race.RaceType = models.RaceTypeHuntersChase
	race.IsHandicap = true
	race.IsAmateur = true
	race.IsApprentice = true
	fav := models.Favorite{BSPOdds: odds("6.0")}

	q := Qualify(&race, &fav, &rules)

	require.False(t, q.Qualified)
	kinds := make([]models.ReasonKind, len(q.Reasons))
	for i, r := range q.Reasons {
		kinds[i] = r.Kind
	}
	assert.Equal(t, []models.ReasonKind{
		models.ReasonOddsAboveMaximum,
		models.ReasonRunnersAboveMaximum,
		models.ReasonRaceTypeNotAllowed,
		models.ReasonHandicapExcluded,
		models.ReasonAmateurExcluded,
		models.ReasonApprenticeExcluded,
	}, kinds)
	assert.Equal(t, "race type hunters_chase not allowed", q.Reasons[2].String())
	assert.Equal(t, 20.0, q.Reasons[1].Threshold)
	assert.Equal(t, 24.0, q.Reasons[1].Actual)
}

func TestQualifyHandicapAllowed(t *testing.T) {
	rules := DefaultRules()
	race := qualifyingRace()
	race.IsHandicap = true
	fav := models.Favorite{BSPOdds: odds("3.0")}

	assert.True(t, Qualify(&race, &fav, &rules).Qualified)
}

func TestQualifyAmateurFlagsRespectRules(t *testing.T) {
	rules := DefaultRules()
	rules.ExcludeAmateur = false
	race := qualifyingRace()
	race.IsAmateur = true
	fav := models.Favorite{BSPOdds: odds("3.0")}

	assert.True(t, Qualify(&race, &fav, &rules).Qualified)
}

func TestQualifyScore(t *testing.T) {
	rules := DefaultRules()
	rules.ExcludeHandicaps = true

	tests := []struct {
		name   string
		modify func(r *models.Race, f *models.Favorite)
		want   float64
	}{
		{"all criteria met", func(r *models.Race, f *models.Favorite) {}, 100},
		{"odds below minimum", func(r *models.Race, f *models.Favorite) { f.BSPOdds = odds("1.5") }, 70},
		{"odds above maximum", func(r *models.Race, f *models.Favorite) { f.BSPOdds = odds("8.0") }, 70},
		{"too few runners", func(r *models.Race, f *models.Favorite) { r.NumberOfRunners = 4 }, 75},
		{"too many runners", func(r *models.Race, f *models.Favorite) { r.NumberOfRunners = 22 }, 85},
		{"race type", func(r *models.Race, f *models.Favorite) { r.RaceType = models.RaceTypeHuntersChase }, 60},
		{"handicap", func(r *models.Race, f *models.Favorite) { r.IsHandicap = true }, 65},
		{"odds and handicap", func(r *models.Race, f *models.Favorite) {
			f.BSPOdds = odds("1.5")
			r.IsHandicap = true
		}, 35},
		{"no price", func(r *models.Race, f *models.Favorite) { f.BSPOdds = nil }, 0},
		{"floored at zero", func(r *models.Race, f *models.Favorite) {
			f.BSPOdds = odds("8.0")
			r.NumberOfRunners = 4
			r.RaceType = models.RaceTypeHuntersChase
			r.IsHandicap = true
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race := qualifyingRace()
			fav := models.Favorite{BSPOdds: odds("3.0")}
			tt.modify(&race, &fav)

			assert.Equal(t, tt.want, Qualify(&race, &fav, &rules).Score)
		})
	}
}

func TestQualifyBoostNotes(t *testing.T) {
	rules := DefaultRules()
	race := qualifyingRace()
	race.Going = models.GoingSoft
	race.TrackDirection = models.TrackFigure8
	fav := models.Favorite{BSPOdds: odds("3.0")}

	q := Qualify(&race, &fav, &rules)

	require.True(t, q.Qualified)
	assert.Equal(t, []string{"all criteria met"}, q.Strings())
	require.Len(t, q.Notes, 2)
	assert.Equal(t, models.ReasonGoingBoost, q.Notes[0].Kind)
	assert.Equal(t, "soft going (+20% stake)", q.Notes[0].String())
	assert.Equal(t, models.ReasonTrackBoost, q.Notes[1].Kind)
	assert.Equal(t, "figure8 track (+15% stake)", q.Notes[1].String())
	assert.Equal(t, "soft going (+20% stake); figure8 track (+15% stake)", models.JoinReasons(q.Notes, "; "))

	fav.BSPOdds = odds("6.0")
	assert.Empty(t, Qualify(&race, &fav, &rules).Notes)

	race.Going = models.GoingFirm
	race.TrackDirection = models.TrackLeft
	fav.BSPOdds = odds("3.0")
	assert.Empty(t, Qualify(&race, &fav, &rules).Notes)
}

func TestAdjustment(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name   string
		mutate func(*models.Race)
		want   float64
	}{
		{"neutral", func(r *models.Race) {}, 1.0},
		{"soft going", func(r *models.Race) { r.Going = models.GoingSoft }, 1.2},
		{"figure eight", func(r *models.Race) { r.TrackDirection = models.TrackFigure8 }, 1.15},
		{"december", func(r *models.Race) { r.RaceDate = "2024-12-05" }, 0.85},
		{"handicap", func(r *models.Race) { r.IsHandicap = true }, 0.7},
		{
			"factors multiply",
			func(r *models.Race) {
				r.Going = models.GoingFirm
				r.TrackDirection = models.TrackFigure8
				r.RaceDate = "2024-01-10"
				r.IsHandicap = true
			},
			0.8 * 1.15 * 0.9 * 0.7,
		},
		{"bad date is neutral", func(r *models.Race) { r.RaceDate = "not-a-date" }, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			race := qualifyingRace()
			tt.mutate(&race)
			assert.InDelta(t, tt.want, Adjustment(&race, &rules), 1e-9)
		})
	}
}

func TestAdjustmentMissingKeysAreNeutral(t *testing.T) {
	rules := Rules{HandicapMultiplier: 0.5, ExcludeHandicaps: true}
	race := qualifyingRace()
	race.IsHandicap = true
	race.Going = models.GoingHeavy

	assert.Equal(t, 1.0, Adjustment(&race, &rules))
}

func TestSizeStakeScenarios(t *testing.T) {
	sm := DefaultStakeManagement()
	bankroll := decimal.NewFromInt(100000)

	tests := []struct {
		name          string
		odds          string
		multiplier    float64
		wantStake     string
		wantLiability string
		wantCapped    bool
	}{
		{"uncapped with multiplier", "2.4", 1.2, "600.00", "840.00", false},
		{"uncapped neutral", "4.5", 1.0, "500.00", "1750.00", false},
		{"capped", "4.5", 3.0, "571.42", "2000.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SizeStake(bankroll, decimal.RequireFromString(tt.odds), tt.multiplier, &sm)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStake, s.Stake.StringFixed(2))
			assert.Equal(t, tt.wantLiability, s.Liability.StringFixed(2))
			assert.Equal(t, tt.wantCapped, s.Capped)
		})
	}
}

func TestSizeStakeNeverExceedsCap(t *testing.T) {
	sm := DefaultStakeManagement()
	bankrolls := []string{"100000", "12345.67", "999.99", "50"}
	prices := []string{"1.01", "1.5", "2.0", "2.37", "3.33", "4.5", "10", "25.5", "1000"}
	multipliers := []float64{0.1, 0.7, 1.0, 1.2, 1.15 * 0.9, 3.0, 5.0}

	for _, b := range bankrolls {
		bankroll := decimal.RequireFromString(b)
		limit := bankroll.Mul(decimal.NewFromFloat(sm.MaxLiabilityPercent)).Div(decimal.NewFromInt(100))
		for _, p := range prices {
			for _, m := range multipliers {
				s, err := SizeStake(bankroll, decimal.RequireFromString(p), m, &sm)
				require.NoError(t, err)
				assert.True(t, s.Liability.LessThanOrEqual(limit), "bankroll %s odds %s mult %g liability %s > %s", b, p, m, s.Liability, limit)
				assert.True(t, s.Stake.Equal(s.Stake.Truncate(2)))
				assert.True(t, s.Liability.Equal(s.Liability.Truncate(2)))
			}
		}
	}
}

func TestSizeStakeKelly(t *testing.T) {
	sm := DefaultStakeManagement()
	sm.UseKelly = true
	sm.KellyFraction = 0.5

	s, err := SizeStake(decimal.NewFromInt(100000), decimal.RequireFromString("3.0"), 1.0, &sm)
	require.NoError(t, err)
	assert.Equal(t, "250.00", s.Stake.StringFixed(2))
	assert.Equal(t, "500.00", s.Liability.StringFixed(2))
}

func TestSizeStakeZeroBankroll(t *testing.T) {
	sm := DefaultStakeManagement()
	s, err := SizeStake(decimal.Zero, decimal.RequireFromString("3.0"), 1.0, &sm)
	require.NoError(t, err)
	assert.True(t, s.Stake.IsZero())
	assert.True(t, s.Liability.IsZero())
}

func TestSizeStakeInvalidInput(t *testing.T) {
	sm := DefaultStakeManagement()
	zeroBase := sm
	zeroBase.BaseStakePercent = 0

	tests := []struct {
		name       string
		bankroll   decimal.Decimal
		odds       string
		multiplier float64
		sm         StakeManagement
	}{
		{"negative bankroll", decimal.NewFromInt(-1), "3.0", 1.0, sm},
		{"odds at one", decimal.NewFromInt(1000), "1.0", 1.0, sm},
		{"zero odds", decimal.NewFromInt(1000), "0", 1.0, sm},
		{"zero percent", decimal.NewFromInt(1000), "3.0", 1.0, zeroBase},
		{"zero multiplier", decimal.NewFromInt(1000), "3.0", 0, sm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SizeStake(tt.bankroll, decimal.RequireFromString(tt.odds), tt.multiplier, &tt.sm)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidInput))
		})
	}
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Rules)
		field  string
	}{
		{"min above max", func(r *Rules) { r.MinOdds = decimal.RequireFromString("5.0") }, "min_odds"},
		{"min odds at one", func(r *Rules) { r.MinOdds = decimal.NewFromInt(1) }, "min_odds"},
		{"runner band inverted", func(r *Rules) { r.MinRunners = 30 }, "min_runners"},
		{"no race types", func(r *Rules) { r.AllowedRaceTypes = nil }, "allowed_race_types"},
		{"missing going entry", func(r *Rules) { delete(r.Going, models.GoingSlow) }, "going_multipliers"},
		{"zero track factor", func(r *Rules) { r.Track[models.TrackLeft] = 0 }, "track_multipliers"},
		{"bad month", func(r *Rules) { r.Month[time.Month(13)] = 1.0 }, "month_multipliers"},
		{"zero handicap factor", func(r *Rules) { r.HandicapMultiplier = 0 }, "handicap_multiplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)

			err := rules.Validate()
			var cfgErr *models.ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.ErrorIs(t, err, models.ErrConfiguration)
		})
	}

	rules := DefaultRules()
	assert.NoError(t, rules.Validate())
}

func TestStakeManagementValidate(t *testing.T) {
	sm := DefaultStakeManagement()
	require.NoError(t, sm.Validate())

	sm.DailyLossLimitPercent = 0
	assert.ErrorIs(t, sm.Validate(), models.ErrConfiguration)

	sm = DefaultStakeManagement()
	sm.UseKelly = true
	sm.KellyFraction = 1.5
	assert.ErrorIs(t, sm.Validate(), models.ErrConfiguration)
}

func TestRulesFromConfig(t *testing.T) {
	cfg := &config.RulesConfig{
		MinOdds:            2.0,
		MaxOdds:            4.5,
		MinRunners:         6,
		MaxRunners:         20,
		AllowedRaceTypes:   []string{"flat", "chase"},
		HandicapMultiplier: 0.7,
		GoingMultipliers:   map[string]float64{"heavy": 1.3},
		TrackMultipliers:   map[string]float64{"figure8": 1.15},
		MonthMultipliers:   map[string]float64{"12": 0.85},
	}

	rules, err := RulesFromConfig(cfg)
	require.NoError(t, err)

	assert.True(t, rules.MinOdds.Equal(decimal.RequireFromString("2")))
	assert.Equal(t, []models.RaceType{models.RaceTypeFlat, models.RaceTypeChase}, rules.AllowedRaceTypeList())
	assert.Equal(t, 1.3, rules.Going.For(models.GoingHeavy))
	assert.Equal(t, 1.0, rules.Going.For(models.GoingFirm))
	assert.Len(t, rules.Going, len(models.GoingConditions))
	assert.Equal(t, 1.15, rules.Track.For(models.TrackFigure8))
	assert.Equal(t, 1.0, rules.Track.For(models.TrackLeft))
	assert.Equal(t, 0.85, rules.Month.For(time.December))
	assert.Equal(t, 1.0, rules.Month.For(time.June))

	cfg.AllowedRaceTypes = []string{"bumper"}
	_, err = RulesFromConfig(cfg)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	cfg.AllowedRaceTypes = []string{"flat"}
	cfg.MonthMultipliers = map[string]float64{"0": 1.0}
	_, err = RulesFromConfig(cfg)
	assert.ErrorIs(t, err, models.ErrConfiguration)

	_, err = RulesFromConfig(nil)
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestStakeManagementFromConfig(t *testing.T) {
	sm, err := StakeManagementFromConfig(&config.StakeConfig{
		BaseStakePercent:       0.5,
		MaxLiabilityPercent:    2,
		DailyLossLimitPercent:  5,
		WeeklyLossLimitPercent: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2.0, sm.MaxLiabilityPercent)

	_, err = StakeManagementFromConfig(&config.StakeConfig{BaseStakePercent: 0.5})
	assert.ErrorIs(t, err, models.ErrConfiguration)
}

func TestReasonKindMarshalText(t *testing.T) {
	b, err := models.ReasonOddsBelowMinimum.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "odds_below_minimum", string(b))
}
