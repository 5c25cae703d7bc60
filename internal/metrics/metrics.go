// Package metrics provides the Prometheus registry for backtest runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smart_lay"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RacesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_processed_total",
		Help:      "Total number of races processed by disposition",
	}, []string{"disposition"})
	WagersSettledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "wagers_settled_total",
		Help:      "Total number of simulated lay wagers settled by result",
	}, []string{"result"})
	RiskHaltsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "risk_halts_total",
		Help:      "Total number of loss-limit halts by period",
	}, []string{"state"})
	RacesLoadedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "races_loaded_total",
		Help:      "Total number of race entries loaded by source",
	}, []string{"source"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RacesProcessedTotal)
		registry.MustRegister(WagersSettledTotal)
		registry.MustRegister(RiskHaltsTotal)
		registry.MustRegister(RacesLoadedTotal)

		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestDuration)
		registry.MustRegister(BacktestROI)
		registry.MustRegister(BacktestMaxDrawdown)

		registry.MustRegister(QualificationReasonsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRaceProcessed records how a race was handled: wagered, not_qualified, halted or skipped.
func RecordRaceProcessed(disposition string) {
	RacesProcessedTotal.WithLabelValues(disposition).Inc()
}

// RecordWagerSettled records a settled wager by result.
func RecordWagerSettled(result string) {
	WagersSettledTotal.WithLabelValues(result).Inc()
}

// RecordRiskHalt records a loss-limit halt.
func RecordRiskHalt(state string) {
	RiskHaltsTotal.WithLabelValues(state).Inc()
}

// RecordRacesLoaded records race entries read from a data source.
func RecordRacesLoaded(source string, count int) {
	RacesLoadedTotal.WithLabelValues(source).Add(float64(count))
}
