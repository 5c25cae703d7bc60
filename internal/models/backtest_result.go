package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BacktestRecord represents a persisted backtest run: headline figures in
// columns plus the complete result document
type BacktestRecord struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	ParameterHash   string          `db:"parameter_hash" json:"parameter_hash"`
	RunDate         time.Time       `db:"run_date" json:"run_date"`
	StartDate       string          `db:"start_date" json:"start_date"`
	EndDate         string          `db:"end_date" json:"end_date"`
	InitialBankroll float64         `db:"initial_bankroll" json:"initial_bankroll"`
	FinalBankroll   float64         `db:"final_bankroll" json:"final_bankroll"`
	ROI             float64         `db:"roi" json:"roi"`
	SharpeRatio     float64         `db:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown     float64         `db:"max_drawdown" json:"max_drawdown"`
	TotalWagers     int             `db:"total_wagers" json:"total_wagers"`
	WinRate         float64         `db:"win_rate" json:"win_rate"`
	ProfitFactor    float64         `db:"profit_factor" json:"profit_factor"`
	CompositeScore  float64         `db:"composite_score" json:"composite_score"`
	Recommendation  string          `db:"recommendation" json:"recommendation"`
	FullResults     json.RawMessage `db:"full_results" json:"full_results"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}
