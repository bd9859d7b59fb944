package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			var m *dto.Metric
			for _, mm := range f.GetMetric() {
				m = mm
			}
			if m != nil && m.Gauge != nil {
				return m.Gauge.GetValue()
			}
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestCollectorChainLength(t *testing.T) {
	c, reg := newTestCollector(t)
	c.SetChainLength("doc-1", 3)
	if v := gaugeValue(t, reg, "docengine_chain_length"); v != 3 {
		t.Fatalf("expected 3, got %v", v)
	}
}

func TestCollectorActiveInstances(t *testing.T) {
	c, reg := newTestCollector(t)
	c.SetActiveInstances(5)
	if v := gaugeValue(t, reg, "docengine_workflow_active_instances"); v != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestCollectorDisableSkipsRecording(t *testing.T) {
	c, reg := newTestCollector(t)
	c.Disable()
	c.SetChainLength("doc-1", 7)
	// A GaugeVec with no recorded series is absent from Gather output.
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "docengine_chain_length" {
			t.Fatalf("expected disabled collector to skip recording, got %v", f.GetMetric())
		}
	}
	c.Enable()
	c.SetChainLength("doc-1", 7)
	if v := gaugeValue(t, reg, "docengine_chain_length"); v != 7 {
		t.Fatalf("expected 7 after re-enable, got %v", v)
	}
}

func TestCollectorVerifyDurationAndIssues(t *testing.T) {
	c, _ := newTestCollector(t)
	c.RecordVerifyDuration("cid", 12*time.Millisecond)
	c.IncrementVerifyIssue("cid", "critical")
	c.IncrementGuardDenial("RequireRole")
	c.IncrementTimerEscalation("sla")
	c.IncrementTransition("success")
}
