package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// multiplierPlaces bounds the float noise carried in from multiplying factors
const multiplierPlaces = 8

// Sizing is the stake and liability of a lay, truncated to pennies
type Sizing struct {
	Stake     decimal.Decimal `json:"stake"`
	Liability decimal.Decimal `json:"liability"`
	Capped    bool            `json:"capped"`
}

// SizeStake computes the lay stake for a bankroll and price.
// The nominal stake is a percentage of bankroll scaled by the adjustment multiplier
// (and the Kelly fraction when enabled). When the resulting liability would exceed
// the per-race cap the stake is cut so the liability equals the cap exactly.
// Both values are truncated to two places so the cap can never be exceeded.
func SizeStake(bankroll, odds decimal.Decimal, multiplier float64, sm *StakeManagement) (Sizing, error) {
	if bankroll.IsNegative() {
		return Sizing{}, fmt.Errorf("%w: bankroll must not be negative, got %s", models.ErrInvalidInput, bankroll.StringFixed(2))
	}
	if !odds.GreaterThan(one) {
		return Sizing{}, fmt.Errorf("%w: odds must exceed 1.0, got %s", models.ErrInvalidInput, odds.String())
	}
	if sm.BaseStakePercent <= 0 || sm.MaxLiabilityPercent <= 0 {
		return Sizing{}, fmt.Errorf("%w: stake percentages must be positive", models.ErrInvalidInput)
	}
	if multiplier <= 0 {
		return Sizing{}, fmt.Errorf("%w: adjustment multiplier must be positive, got %g", models.ErrInvalidInput, multiplier)
	}

	factor := decimal.NewFromFloat(multiplier).Round(multiplierPlaces)
	if sm.UseKelly {
		factor = factor.Mul(decimal.NewFromFloat(sm.KellyFraction))
	}

	stake := bankroll.Mul(decimal.NewFromFloat(sm.BaseStakePercent)).Div(hundred).Mul(factor)
	priceLessOne := odds.Sub(one)
	liability := stake.Mul(priceLessOne)
	limit := bankroll.Mul(decimal.NewFromFloat(sm.MaxLiabilityPercent)).Div(hundred)

	capped := false
	if liability.GreaterThan(limit) {
		stake = limit.Div(priceLessOne)
		liability = limit
		capped = true
	}

	return Sizing{
		Stake:     stake.Truncate(2),
		Liability: liability.Truncate(2),
		Capped:    capped,
	}, nil
}
