package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

const defaultMonteCarloIterations = 1000

// MonteCarloConfig configures monte carlo simulation
type MonteCarloConfig struct {
	Iterations      int
	Seed            int64
	InitialBankroll decimal.Decimal
}

// MonteCarloResult represents the spread of outcomes over resampled wager sequences
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	MeanFinalBankroll   float64            `json:"mean_final_bankroll"`
	StdFinalBankroll    float64            `json:"std_final_bankroll"`
	MeanReturn          float64            `json:"mean_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	ProbabilityOfRuin   float64            `json:"probability_of_ruin"`
	MedianMaxDrawdown   float64            `json:"median_max_drawdown"`
	WorstMaxDrawdown    float64            `json:"worst_max_drawdown"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"distribution"`
}

// RunMonteCarlo bootstraps the realised P&L of the settled wagers: each path
// draws as many results as were settled, with replacement, and replays them
// from the initial bankroll. The same seed always yields the same result; a
// zero seed is treated as 1.
func RunMonteCarlo(ctx context.Context, wagers []models.Wager, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultMonteCarloIterations
	}
	if !cfg.InitialBankroll.IsPositive() {
		return MonteCarloResult{}, fmt.Errorf("%w: initial bankroll must be positive", models.ErrInvalidInput)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}

	pnl := make([]float64, 0, len(wagers))
	for i := range wagers {
		if wagers[i].IsVoid() {
			continue
		}
		pnl = append(pnl, wagers[i].ProfitLoss.InexactFloat64())
	}

	initial := cfg.InitialBankroll.InexactFloat64()
	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)
	drawdowns := make([]float64, cfg.Iterations)
	sequence := make([]float64, len(pnl))

	for i := 0; i < cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, err
			}
		}
		for k := range sequence {
			sequence[k] = pnl[rng.Intn(len(pnl))]
		}

		bankroll, peak, maxDD := initial, initial, 0.0
		for _, p := range sequence {
			bankroll += p
			if bankroll > peak {
				peak = bankroll
			}
			if dd := (peak - bankroll) / peak; dd > maxDD {
				maxDD = dd
			}
			if bankroll <= 0 {
				bankroll = 0
				maxDD = 1
				break
			}
		}
		distribution[i] = bankroll
		drawdowns[i] = maxDD * 100
	}

	mean, std := meanStd(distribution)
	result := MonteCarloResult{
		Iterations:          cfg.Iterations,
		MeanFinalBankroll:   round2(mean),
		StdFinalBankroll:    round2(std),
		MeanReturn:          round4((mean - initial) / initial),
		VaR95:               round4((percentile(distribution, 0.05) - initial) / initial),
		VaR99:               round4((percentile(distribution, 0.01) - initial) / initial),
		ProbabilityOfProfit: probabilityAbove(distribution, initial),
		ProbabilityOfRuin:   probabilityAtOrBelow(distribution, 0),
		MedianMaxDrawdown:   round2(percentile(drawdowns, 0.5)),
		WorstMaxDrawdown:    round2(percentile(drawdowns, 1.0)),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}

	return result, nil
}

// CalculateConfidenceIntervals computes the width of central intervals of a distribution
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[formatPercent(level)] = round2(high - low)
	}
	return results
}

// ToJSON exports the monte carlo result as JSON
func (m MonteCarloResult) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func meanStd(values []float64) (float64, float64) {
	return average(values), stddev(values)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func probabilityAtOrBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}

func round4(v float64) float64 {
	return decimal.NewFromFloat(v).Round(4).InexactFloat64()
}
