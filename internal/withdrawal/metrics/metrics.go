package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the withdrawal module.
type Metrics struct {
	Created     prometheus.Counter
	Transitions *prometheus.CounterVec
	Refused     *prometheus.CounterVec
}

// New creates a Metrics instance with all withdrawal metrics registered.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cashout_withdrawals_created_total",
			Help: "Total withdrawal requests created",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashout_withdrawal_transitions_total",
			Help: "Withdrawal lifecycle transitions by edge",
		}, []string{"from", "to"}),
		Refused: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashout_withdrawal_refusals_total",
			Help: "Refused withdrawal operations by reason",
		}, []string{"reason"}),
	}
}

// ObserveTransition records one completed lifecycle transition.
func (m *Metrics) ObserveTransition(from, to string) {
	m.Transitions.WithLabelValues(from, to).Inc()
}

// IncRefused records a refused create or transition.
func (m *Metrics) IncRefused(reason string) {
	m.Refused.WithLabelValues(reason).Inc()
}
