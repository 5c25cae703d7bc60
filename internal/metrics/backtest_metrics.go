package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by status",
	}, []string{"status"})
)

// Backtest histograms
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backtest_duration_seconds",
		Help:      "Duration of backtest runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// Backtest gauge vectors, keyed by run name
var (
	BacktestROI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_roi_percent",
		Help:      "Return on turnover of the latest run of each named backtest",
	}, []string{"run"})
	BacktestMaxDrawdown = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_max_drawdown_percent",
		Help:      "Maximum drawdown of the latest run of each named backtest",
	}, []string{"run"})
)

// RecordBacktestRun records a backtest run event.
// status should be one of: "completed", "failed", "cancelled"
func RecordBacktestRun(status string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(status).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordBacktestResult records the headline statistics of a finished run.
func RecordBacktestResult(run string, roi, maxDrawdown float64) {
	BacktestROI.WithLabelValues(run).Set(roi)
	BacktestMaxDrawdown.WithLabelValues(run).Set(maxDrawdown)
}
