package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

// profitFactorCap is reported when there are profits but no losses
const profitFactorCap = 999

// Metrics represents backtest performance metrics
type Metrics struct {
	TotalWagers       int             `json:"total_wagers"`
	WinningWagers     int             `json:"winning_wagers"`
	LosingWagers      int             `json:"losing_wagers"`
	VoidWagers        int             `json:"void_wagers"`
	WinRate           float64         `json:"win_rate"`
	Turnover          decimal.Decimal `json:"turnover"`
	TotalLiability    decimal.Decimal `json:"total_liability"`
	TotalProfitLoss   decimal.Decimal `json:"total_profit_loss"`
	ROI               float64         `json:"roi"`
	MaxDrawdown       float64         `json:"max_drawdown"`
	LongestWinStreak  int             `json:"longest_win_streak"`
	LongestLossStreak int             `json:"longest_loss_streak"`
	SharpeRatio       float64         `json:"sharpe_ratio"`
	SortinoRatio      float64         `json:"sortino_ratio"`
	ValueAtRisk95     float64         `json:"var_95"`
	ProfitFactor      float64         `json:"profit_factor"`
	AverageWin        decimal.Decimal `json:"average_win"`
	AverageLoss       decimal.Decimal `json:"average_loss"`
	LargestWin        decimal.Decimal `json:"largest_win"`
	LargestLoss       decimal.Decimal `json:"largest_loss"`
	Expectancy        decimal.Decimal `json:"expectancy"`
}

// CalculateMetrics aggregates a finished run. It is a pure function of the
// wager history and the bankroll trajectory.
func CalculateMetrics(wagers []models.Wager, curve EquityCurve, initial, final decimal.Decimal, annualisation float64) Metrics {
	m := Metrics{
		TotalWagers:     len(wagers),
		Turnover:        decimal.Zero,
		TotalLiability:  decimal.Zero,
		TotalProfitLoss: final.Sub(initial),
		AverageWin:      decimal.Zero,
		AverageLoss:     decimal.Zero,
		LargestWin:      decimal.Zero,
		LargestLoss:     decimal.Zero,
		Expectancy:      decimal.Zero,
	}

	grossProfit, grossLoss := decimal.Zero, decimal.Zero
	for i := range wagers {
		w := &wagers[i]
		m.Turnover = m.Turnover.Add(w.Stake)
		m.TotalLiability = m.TotalLiability.Add(w.Liability)

		switch w.Result {
		case models.BetResultWon:
			m.WinningWagers++
			grossProfit = grossProfit.Add(w.ProfitLoss)
			if w.ProfitLoss.GreaterThan(m.LargestWin) {
				m.LargestWin = w.ProfitLoss
			}
		case models.BetResultLost:
			m.LosingWagers++
			grossLoss = grossLoss.Add(w.ProfitLoss.Abs())
			if w.ProfitLoss.LessThan(m.LargestLoss) {
				m.LargestLoss = w.ProfitLoss
			}
		case models.BetResultVoid:
			m.VoidWagers++
		}
	}

	settled := m.WinningWagers + m.LosingWagers
	m.WinRate = calculateWinRate(m.WinningWagers, settled)
	if m.Turnover.IsPositive() {
		m.ROI = m.TotalProfitLoss.Div(m.Turnover).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}
	m.MaxDrawdown = curve.MaxDrawdown()
	m.LongestWinStreak, m.LongestLossStreak = longestStreaks(wagers)

	returns := wagerReturns(wagers)
	m.SharpeRatio = calculateSharpeRatio(returns, annualisation)
	m.SortinoRatio = calculateSortinoRatio(returns, annualisation)
	m.ValueAtRisk95 = calculateVaR(returns, 0.95)

	m.ProfitFactor = calculateProfitFactor(grossProfit, grossLoss)
	if m.WinningWagers > 0 {
		m.AverageWin = grossProfit.Div(decimal.NewFromInt(int64(m.WinningWagers))).Round(2)
	}
	if m.LosingWagers > 0 {
		m.AverageLoss = grossLoss.Neg().Div(decimal.NewFromInt(int64(m.LosingWagers))).Round(2)
	}
	if settled > 0 {
		m.Expectancy = grossProfit.Sub(grossLoss).Div(decimal.NewFromInt(int64(settled))).Round(2)
	}

	return m
}

// ToJSON exports metrics as JSON
func (m Metrics) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// longestStreaks scans wagers in settlement order; voids are skipped and do
// not break a run
func longestStreaks(wagers []models.Wager) (int, int) {
	longestWin, longestLoss := 0, 0
	var current models.BetResult
	run := 0
	for i := range wagers {
		r := wagers[i].Result
		if r == models.BetResultVoid {
			continue
		}
		if r == current {
			run++
		} else {
			current, run = r, 1
		}
		switch r {
		case models.BetResultWon:
			if run > longestWin {
				longestWin = run
			}
		case models.BetResultLost:
			if run > longestLoss {
				longestLoss = run
			}
		}
	}
	return longestWin, longestLoss
}

// wagerReturns returns profit over stake for every non-void wager
func wagerReturns(wagers []models.Wager) []float64 {
	returns := make([]float64, 0, len(wagers))
	for i := range wagers {
		w := &wagers[i]
		if w.IsVoid() || w.Stake.IsZero() {
			continue
		}
		returns = append(returns, w.ProfitLoss.Div(w.Stake).InexactFloat64())
	}
	return returns
}

func calculateSharpeRatio(returns []float64, annualisation float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return round2(average(returns) / std * math.Sqrt(annualisation))
}

func calculateSortinoRatio(returns []float64, annualisation float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	std := downsideStddev(returns)
	if std == 0 {
		return 0
	}
	return round2(average(returns) / std * math.Sqrt(annualisation))
}

// calculateVaR returns the loss per unit staked not exceeded at the given
// confidence level, as a positive number
func calculateVaR(returns []float64, level float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := append([]float64{}, returns...)
	sort.Float64s(sorted)
	index := int(math.Floor((1.0 - level) * float64(len(sorted))))
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	if sorted[index] >= 0 {
		return 0
	}
	return decimal.NewFromFloat(-sorted[index]).Round(4).InexactFloat64()
}

func calculateProfitFactor(grossProfit, grossLoss decimal.Decimal) float64 {
	if grossLoss.IsZero() {
		if grossProfit.IsPositive() {
			return profitFactorCap
		}
		return 0
	}
	return grossProfit.Div(grossLoss).Round(2).InexactFloat64()
}

func calculateWinRate(wins, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(wins) / float64(total) * 100)
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}

func downsideStddev(values []float64) float64 {
	negatives := make([]float64, 0)
	for _, v := range values {
		if v < 0 {
			negatives = append(negatives, v)
		}
	}
	return stddev(negatives)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// HashParameters creates a stable hash of a request's strategy parameters
func HashParameters(req *Request) string {
	data, _ := json.Marshal(struct {
		Rules interface{} `json:"rules"`
		Stake interface{} `json:"stake"`
	}{req.Rules, req.Stake})
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
