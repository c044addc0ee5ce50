package monitoring

import (
	"strings"
	"testing"
	"time"
)

func TestHealthReportPerfectWhenEmpty(t *testing.T) {
	m := NewHealthMonitor(time.Hour, nil)
	report := m.HealthReport()
	if report.Score != 1.0 {
		t.Fatalf("expected empty monitor to report perfect health, got %v", report.Score)
	}
}

func TestMassRevocationAnomalyDetected(t *testing.T) {
	m := NewHealthMonitor(time.Hour, nil)
	var alerts []AnomalyAlert
	m.OnAlert(func(a AnomalyAlert) { alerts = append(alerts, a) })

	for i := 0; i < 5; i++ {
		m.RecordRevocation("agent:bad", "agent:target", "spam", nil, true)
	}

	found := false
	for _, a := range alerts {
		if a.AlertType == "mass_revocation" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected mass_revocation alert, got %+v", alerts)
	}
}

func TestHealthScorePenalizedByFailures(t *testing.T) {
	m := NewHealthMonitor(time.Hour, nil)
	for i := 0; i < 10; i++ {
		m.RecordAttestation("agent:a", "agent:b", 0.9, nil, i%2 == 0)
	}
	report := m.HealthReport()
	if report.Score >= 1.0 {
		t.Fatalf("expected health score penalized by failures, got %v", report.Score)
	}
}

func TestPrometheusExportContainsHealthScore(t *testing.T) {
	m := NewHealthMonitor(time.Hour, nil)
	m.RecordAttestation("agent:a", "agent:b", 0.8, nil, true)
	e := NewExporter(m)
	out := e.Prometheus()
	if !strings.Contains(out, "isnad_health_score") {
		t.Fatalf("expected prometheus output to contain health score, got:\n%s", out)
	}
}

func TestSlidingWindowPrunesOldEvents(t *testing.T) {
	w := NewSlidingWindow(time.Hour)
	fixedNow := time.Now()
	w.now = func() time.Time { return fixedNow }
	w.Add(MetricEvent{Type: EventAttestation, Timestamp: fixedNow.Add(-2 * time.Hour), AgentID: "a", Success: true})
	if w.Count("") != 0 {
		t.Fatalf("expected stale event to be pruned, got count %d", w.Count(""))
	}
}
