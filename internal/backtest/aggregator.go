package backtest

import (
	"encoding/json"
	"math"
)

// Recommendation values produced by an assessment
const (
	RecommendationAccept      = "ACCEPT"
	RecommendationReject      = "REJECT"
	RecommendationNeedsReview = "NEEDS_REVIEW"
)

// Assessment combines a full-period run with its sequence-risk and
// rolling-window evaluations
type Assessment struct {
	RunID          string             `json:"run_id"`
	Metrics        Metrics            `json:"metrics"`
	MonteCarlo     MonteCarloResult   `json:"monte_carlo"`
	WalkForward    WalkForwardResult  `json:"walk_forward"`
	CompositeScore float64            `json:"composite_score"`
	Weights        AggregationWeights `json:"weights"`
	Recommendation string             `json:"recommendation"`
}

// AggregationWeights define weighting per evaluation method
type AggregationWeights struct {
	HistoricalReplay float64 `json:"historical_replay"`
	MonteCarlo       float64 `json:"monte_carlo"`
	WalkForward      float64 `json:"walk_forward"`
}

// DefaultAggregationWeights returns the stock weighting
func DefaultAggregationWeights() AggregationWeights {
	return AggregationWeights{HistoricalReplay: 0.5, MonteCarlo: 0.25, WalkForward: 0.25}
}

// Assess scores a run. Monte Carlo contributes its probability of profit and
// walk-forward its consistency.
func Assess(result *Result, monteCarlo MonteCarloResult, walkForward WalkForwardResult, weights AggregationWeights) Assessment {
	historicalScore := CalculateCompositeScore(result.Metrics)
	monteCarloScore := monteCarlo.ProbabilityOfProfit * (1 - monteCarlo.ProbabilityOfRuin)
	walkForwardScore := walkForward.ConsistencyScore
	composite := historicalScore*weights.HistoricalReplay + monteCarloScore*weights.MonteCarlo + walkForwardScore*weights.WalkForward

	return Assessment{
		RunID:          result.ID.String(),
		Metrics:        result.Metrics,
		MonteCarlo:     monteCarlo,
		WalkForward:    walkForward,
		CompositeScore: round4(composite),
		Weights:        weights,
		Recommendation: GenerateRecommendation(composite, walkForward.ConsistencyScore, result.Metrics.ROI, walkForward.MeanROI),
	}
}

// CalculateCompositeScore scores run metrics in [0,1]
func CalculateCompositeScore(m Metrics) float64 {
	sharpeScore := normalize(m.SharpeRatio, -2, 3)
	roiScore := normalize(m.ROI, -10, 10)
	profitFactorScore := normalize(m.ProfitFactor, 0, 3)
	drawdownPenalty := 1.0 - normalize(m.MaxDrawdown, 0, 50)
	winRateScore := normalize(m.WinRate, 0, 100)

	weighted := 0.0
	weighted += sharpeScore * 0.30
	weighted += roiScore * 0.20
	weighted += profitFactorScore * 0.20
	weighted += drawdownPenalty * 0.15
	weighted += winRateScore * 0.15
	return weighted
}

// GenerateRecommendation determines if a rule set is acceptable
func GenerateRecommendation(score, consistency, historicalROI, walkForwardROI float64) string {
	if score > 0.7 && historicalROI > 0 && walkForwardROI > 0 && consistency > 0.6 {
		return RecommendationAccept
	}
	if score < 0.4 || historicalROI < 0 || walkForwardROI < 0 || consistency < 0.4 {
		return RecommendationReject
	}
	return RecommendationNeedsReview
}

// ToJSON exports the assessment as JSON
func (a Assessment) ToJSON() string {
	data, _ := json.Marshal(a)
	return string(data)
}

func normalize(value, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	v := (value - min) / (max - min)
	return math.Max(0, math.Min(1, v))
}
