package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification module.
// Outcome labels use the domain outcome names; provider failures are
// labelled by the rejecting layer, never by raw provider codes (those stay
// in logs to keep cardinality bounded).
type Metrics struct {
	Attempts        *prometheus.CounterVec
	ProviderFailure *prometheus.CounterVec
	Duration        prometheus.Histogram
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashout_verification_attempts_total",
			Help: "Real-name verification attempts by outcome",
		}, []string{"outcome"}),
		ProviderFailure: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashout_verification_provider_failures_total",
			Help: "Trust provider failures by rejecting layer",
		}, []string{"layer"}),
		Duration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashout_verification_duration_seconds",
			Help:    "Duration of full verification orchestrations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveAttempt records one finished orchestration.
func (m *Metrics) ObserveAttempt(outcome string, start time.Time) {
	m.Attempts.WithLabelValues(outcome).Inc()
	m.Duration.Observe(time.Since(start).Seconds())
}

// IncProviderFailure records a provider rejection at the given layer.
func (m *Metrics) IncProviderFailure(layer string) {
	m.ProviderFailure.WithLabelValues(layer).Inc()
}
