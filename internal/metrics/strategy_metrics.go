package metrics

import "github.com/prometheus/client_golang/prometheus"

// Qualification counter vectors
var (
	QualificationReasonsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "qualification_reasons_total",
		Help:      "Total number of qualification findings by reason kind",
	}, []string{"reason"})
)

// RecordQualificationReason records one qualification finding.
func RecordQualificationReason(reason string) {
	QualificationReasonsTotal.WithLabelValues(reason).Inc()
}
