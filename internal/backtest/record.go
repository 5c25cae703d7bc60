package backtest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/yourusername/smart-lay/internal/models"
)

// NewRecord flattens a result for persistence. The assessment is optional;
// without it the score is zero and the recommendation empty.
func NewRecord(result *Result, assessment *Assessment, runDate time.Time) (*models.BacktestRecord, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: result is required", models.ErrInvalidInput)
	}

	full, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	record := &models.BacktestRecord{
		ID:              result.ID,
		Name:            result.Name,
		ParameterHash:   result.ParameterHash,
		RunDate:         runDate.UTC(),
		StartDate:       result.StartDate,
		EndDate:         result.EndDate,
		InitialBankroll: result.InitialBankroll.InexactFloat64(),
		FinalBankroll:   result.FinalBankroll.InexactFloat64(),
		ROI:             result.Metrics.ROI,
		SharpeRatio:     result.Metrics.SharpeRatio,
		MaxDrawdown:     result.Metrics.MaxDrawdown,
		TotalWagers:     result.Metrics.TotalWagers,
		WinRate:         result.Metrics.WinRate,
		ProfitFactor:    result.Metrics.ProfitFactor,
		FullResults:     full,
		CreatedAt:       runDate.UTC(),
	}
	if assessment != nil {
		record.CompositeScore = assessment.CompositeScore
		record.Recommendation = assessment.Recommendation
	}
	return record, nil
}
