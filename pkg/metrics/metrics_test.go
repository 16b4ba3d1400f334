package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if matchLabels(m, labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func matchLabels(m *dto.Metric, labels map[string]string) bool {
	if len(m.GetLabel()) != len(labels) {
		return false
	}
	for _, lp := range m.GetLabel() {
		if labels[lp.GetName()] != lp.GetValue() {
			return false
		}
	}
	return true
}

func TestMetricsShouldCountObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.ObserveBinding("authenticate", "created")
	m.ObserveBinding("authenticate", "created")
	m.ObserveVerification(false)
	m.ObserveSession("swept", 3)
	m.ObserveSession("swept", 0)

	if got := counterValue(t, reg, "walletbind_binding_outcomes_total", map[string]string{"operation": "authenticate", "outcome": "created"}); got != 2 {
		t.Errorf("binding counter = %v, want 2", got)
	}
	if got := counterValue(t, reg, "walletbind_signature_verifications_total", map[string]string{"result": "invalid"}); got != 1 {
		t.Errorf("verification counter = %v, want 1", got)
	}
	if got := counterValue(t, reg, "walletbind_session_events_total", map[string]string{"event": "swept"}); got != 3 {
		t.Errorf("session counter = %v, want 3", got)
	}
}

func TestNewShouldFailOnDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Error("second New() on the same registry should fail")
	}
}

func TestNilMetricsShouldBeNoop(t *testing.T) {
	var m *Metrics
	m.ObserveBinding("connect", "bound")
	m.ObserveVerification(true)
	m.ObserveSession("created", 1)
}
