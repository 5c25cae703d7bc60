package backtest

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

// DailyPerformance aggregates the wagers settled on one race date
type DailyPerformance struct {
	Date         string          `json:"date"`
	Wagers       int             `json:"wagers"`
	Won          int             `json:"won"`
	Lost         int             `json:"lost"`
	Void         int             `json:"void"`
	Turnover     decimal.Decimal `json:"turnover"`
	Liability    decimal.Decimal `json:"liability"`
	ProfitLoss   decimal.Decimal `json:"profit_loss"`
	ROI          float64         `json:"roi"`
	StartingBank decimal.Decimal `json:"starting_bank"`
	EndingBank   decimal.Decimal `json:"ending_bank"`
}

// CalculateDailyPerformance buckets wagers by race date in settlement order
func CalculateDailyPerformance(wagers []models.Wager, initial decimal.Decimal) []DailyPerformance {
	days := make([]DailyPerformance, 0)
	bank := initial

	for i := range wagers {
		w := &wagers[i]
		if len(days) == 0 || days[len(days)-1].Date != w.RaceDate {
			days = append(days, DailyPerformance{
				Date:         w.RaceDate,
				Turnover:     decimal.Zero,
				Liability:    decimal.Zero,
				ProfitLoss:   decimal.Zero,
				StartingBank: bank,
				EndingBank:   bank,
			})
		}
		day := &days[len(days)-1]

		day.Wagers++
		switch w.Result {
		case models.BetResultWon:
			day.Won++
		case models.BetResultLost:
			day.Lost++
		case models.BetResultVoid:
			day.Void++
		}
		day.Turnover = day.Turnover.Add(w.Stake)
		day.Liability = day.Liability.Add(w.Liability)
		day.ProfitLoss = day.ProfitLoss.Add(w.ProfitLoss)

		bank = bank.Add(w.ProfitLoss)
		day.EndingBank = bank
	}

	for i := range days {
		if days[i].Turnover.IsPositive() {
			days[i].ROI = days[i].ProfitLoss.Div(days[i].Turnover).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
		}
	}
	return days
}
