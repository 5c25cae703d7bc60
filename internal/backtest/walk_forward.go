package backtest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/smart-lay/internal/models"
)

// WalkForwardConfig configures rolling-window evaluation
type WalkForwardConfig struct {
	WindowDays         int
	StepDays           int
	MinWagersPerWindow int
}

// WalkForwardWindow represents one rolling window, run from a fresh bankroll
type WalkForwardWindow struct {
	WindowID      int             `json:"window_id"`
	Start         string          `json:"start"`
	End           string          `json:"end"`
	Wagers        int             `json:"wagers"`
	FinalBankroll decimal.Decimal `json:"final_bankroll"`
	Metrics       Metrics         `json:"metrics"`
}

// WalkForwardResult represents the spread of results across windows
type WalkForwardResult struct {
	Windows          []WalkForwardWindow `json:"windows"`
	MeanROI          float64             `json:"mean_roi"`
	StdROI           float64             `json:"std_roi"`
	MeanMaxDrawdown  float64             `json:"mean_max_drawdown"`
	ConsistencyScore float64             `json:"consistency_score"`
}

// RunWalkForward splits the request's period into rolling windows and runs each
// independently. Windows with fewer wagers than the minimum are dropped.
func RunWalkForward(ctx context.Context, engine *Engine, req Request, entries []models.RaceEntry, cfg WalkForwardConfig) (WalkForwardResult, error) {
	if engine == nil {
		return WalkForwardResult{}, fmt.Errorf("engine is required")
	}
	if cfg.WindowDays <= 0 {
		return WalkForwardResult{}, models.NewConfigurationError("window_days", "must be positive")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return WalkForwardResult{}, models.NewConfigurationError("start_date", "walk-forward needs a bounded period")
	}
	if cfg.StepDays <= 0 {
		cfg.StepDays = cfg.WindowDays
	}

	windows := []WalkForwardWindow{}
	windowID := 0
	for current := req.StartDate; !current.After(req.EndDate); current = current.AddDate(0, 0, cfg.StepDays) {
		end := current.AddDate(0, 0, cfg.WindowDays-1)
		if end.After(req.EndDate) {
			end = req.EndDate
		}

		windowReq := req
		windowReq.StartDate = current
		windowReq.EndDate = end
		windowReq.Name = fmt.Sprintf("%s-wf%d", req.Name, windowID+1)

		res, err := engine.Run(ctx, windowReq, entries)
		if err != nil {
			return WalkForwardResult{}, err
		}
		windowID++
		if len(res.Wagers) < cfg.MinWagersPerWindow {
			continue
		}

		windows = append(windows, WalkForwardWindow{
			WindowID:      windowID,
			Start:         current.Format(models.DateLayout),
			End:           end.Format(models.DateLayout),
			Wagers:        len(res.Wagers),
			FinalBankroll: res.FinalBankroll,
			Metrics:       res.Metrics,
		})
		if !end.Before(req.EndDate) {
			break
		}
	}

	return summariseWindows(windows), nil
}

func summariseWindows(windows []WalkForwardWindow) WalkForwardResult {
	result := WalkForwardResult{Windows: windows}
	if len(windows) == 0 {
		return result
	}
	rois := make([]float64, len(windows))
	drawdowns := make([]float64, len(windows))
	for i, w := range windows {
		rois[i] = w.Metrics.ROI
		drawdowns[i] = w.Metrics.MaxDrawdown
	}
	result.MeanROI = round2(average(rois))
	result.StdROI = round2(stddev(rois))
	result.MeanMaxDrawdown = round2(average(drawdowns))
	result.ConsistencyScore = CalculateConsistency(windows)
	return result
}

// CalculateConsistency calculates the share of windows that finished in profit
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.Metrics.TotalProfitLoss.IsPositive() {
			profitable++
		}
	}
	return round4(float64(profitable) / float64(len(windows)))
}

// ToJSON exports the walk-forward result as JSON
func (w WalkForwardResult) ToJSON() string {
	data, _ := json.Marshal(w)
	return string(data)
}
