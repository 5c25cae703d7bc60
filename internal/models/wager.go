package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BetSide represents the side of a bet (BACK or LAY)
type BetSide string

const (
	BetSideBack BetSide = "BACK"
	BetSideLay  BetSide = "LAY"
)

// Wager represents a settled lay of the favorite
type Wager struct {
	ID          uuid.UUID       `json:"id"`
	RaceID      string          `json:"race_id"`
	Course      string          `json:"course_name"`
	RaceDate    string          `json:"race_date"`
	RaceTime    string          `json:"race_time"`
	SelectionID int64           `json:"selection_id"`
	Side        BetSide         `json:"side"`
	Odds        decimal.Decimal `json:"odds"`
	Stake       decimal.Decimal `json:"stake"`
	Liability   decimal.Decimal `json:"liability"`
	Multiplier  float64         `json:"multiplier"`
	Score       float64         `json:"qualification_score"`
	Reasons     []Reason        `json:"reasons"`
	Notes       []Reason        `json:"notes,omitempty"`
	Result      BetResult       `json:"result"`
	ProfitLoss  decimal.Decimal `json:"profit_loss"`
	PlacedAt    time.Time       `json:"placed_at"`
	SettledAt   time.Time       `json:"settled_at"`
}

// IsVoid checks if the wager was voided
func (w *Wager) IsVoid() bool {
	return w.Result == BetResultVoid
}

// GetROI returns the return on stake as a percentage
func (w *Wager) GetROI() float64 {
	if w.Stake.IsZero() {
		return 0
	}
	return w.ProfitLoss.Div(w.Stake).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// LayProfitLoss returns the layer's profit or loss for an outcome
func LayProfitLoss(stake, liability decimal.Decimal, result BetResult) decimal.Decimal {
	switch result {
	case BetResultWon:
		return stake
	case BetResultLost:
		return liability.Neg()
	default:
		return decimal.Zero
	}
}
