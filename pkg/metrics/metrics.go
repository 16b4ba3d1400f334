// Package metrics exposes Prometheus counters for wallet binding.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "walletbind"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	bindings      *prometheus.CounterVec
	verifications *prometheus.CounterVec
	sessions      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		bindings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "binding_outcomes_total",
			Help:      "Wallet binding attempts by operation and outcome.",
		}, []string{"operation", "outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signature_verifications_total",
			Help:      "Wallet signature verifications by result.",
		}, []string{"result"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session lifecycle events.",
		}, []string{"event"}),
	}

	for _, c := range []prometheus.Collector{m.bindings, m.verifications, m.sessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveBinding counts one binding attempt.
func (m *Metrics) ObserveBinding(operation, outcome string) {
	if m == nil {
		return
	}
	m.bindings.WithLabelValues(operation, outcome).Inc()
}

// ObserveVerification counts one signature check.
func (m *Metrics) ObserveVerification(valid bool) {
	if m == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	m.verifications.WithLabelValues(result).Inc()
}

// ObserveSession counts a session event such as "created" or "swept".
func (m *Metrics) ObserveSession(event string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sessions.WithLabelValues(event).Add(float64(n))
}
