package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("writing gauge: %v", err)
	}
	return m.GetGauge().GetValue()
}

func TestSetInflightExecutionsUpdatesGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetInflightExecutions(3)
	if got := gaugeValue(t, m.inflightExecutions); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestIncrementDeploymentFailuresLabelsByJobAndReason(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncrementDeploymentFailures("job-1", "rejected")
	m.IncrementDeploymentFailures("job-1", "rejected")
	m.IncrementDeploymentFailures("job-1", "unreachable")

	var out dto.Metric
	if err := m.deploymentFailures.WithLabelValues("job-1", "rejected").Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}
	if out.GetCounter().GetValue() != 2 {
		t.Fatalf("expected 2, got %v", out.GetCounter().GetValue())
	}
}

func TestObserveHeartbeatLagRecordsIntoHistogram(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveHeartbeatLag("job-1", 150*time.Millisecond)

	var out dto.Metric
	if err := m.heartbeatLagMs.WithLabelValues("job-1").Write(&out); err != nil {
		t.Fatalf("write: %v", err)
	}
	if out.GetHistogram().GetSampleCount() != 1 {
		t.Fatalf("expected 1 sample, got %d", out.GetHistogram().GetSampleCount())
	}
}
