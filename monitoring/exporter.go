package monitoring

import (
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Exporter publishes a HealthMonitor's report as Prometheus gauges,
// registered against a dedicated registry (spec ambient observability).
// A dedicated registry, rather than prometheus.DefaultRegisterer, lets
// multiple monitors coexist in the same process without collector name
// collisions — the teacher's module metrics use a package-level
// sync.Once against the default registry because there is only ever one
// instance per process; a monitor here may have several.
type Exporter struct {
	monitor *HealthMonitor
	reg     *prometheus.Registry

	healthScore    prometheus.Gauge
	eventsTotal    prometheus.Gauge
	attestations   prometheus.Gauge
	revocations    prometheus.Gauge
	verifications  prometheus.Gauge
	activeAgents   prometheus.Gauge
	attestRate     prometheus.Gauge
	anomaliesTotal prometheus.Gauge
	latencyP50     prometheus.Gauge
	latencyP95     prometheus.Gauge
}

func NewExporter(monitor *HealthMonitor) *Exporter {
	reg := prometheus.NewRegistry()
	e := &Exporter{
		monitor: monitor,
		reg:     reg,
		healthScore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "health_score", Help: "Trust network health score (0-1).",
		}),
		eventsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "events_total", Help: "Total trust events in window.",
		}),
		attestations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "attestations_total", Help: "Attestations in window.",
		}),
		revocations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "revocations_total", Help: "Revocations in window.",
		}),
		verifications: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "verifications_total", Help: "Verifications in window.",
		}),
		activeAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "active_agents", Help: "Active agents in network.",
		}),
		attestRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "attestation_rate", Help: "Attestations per minute.",
		}),
		anomaliesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "anomalies_total", Help: "Active anomaly alerts.",
		}),
		latencyP50: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "latency_p50_ms", Help: "Median operation latency.",
		}),
		latencyP95: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "isnad", Name: "latency_p95_ms", Help: "95th percentile operation latency.",
		}),
	}
	reg.MustRegister(
		e.healthScore, e.eventsTotal, e.attestations, e.revocations,
		e.verifications, e.activeAgents, e.attestRate, e.anomaliesTotal,
		e.latencyP50, e.latencyP95,
	)
	return e
}

// refresh pushes the latest health report into the registered gauges.
func (e *Exporter) refresh() HealthReport {
	report := e.monitor.HealthReport()
	e.healthScore.Set(report.Score)
	e.eventsTotal.Set(float64(report.TotalEvents))
	e.attestations.Set(float64(report.Attestations))
	e.revocations.Set(float64(report.Revocations))
	e.verifications.Set(float64(report.Verifications))
	e.activeAgents.Set(float64(report.ActiveAgents))
	e.attestRate.Set(report.AttestationRatePerMin)
	e.anomaliesTotal.Set(float64(len(report.Anomalies)))
	if report.Latency != nil {
		e.latencyP50.Set(report.Latency.P50Ms)
		e.latencyP95.Set(report.Latency.P95Ms)
	}
	return report
}

// Gatherer exposes the underlying registry for mounting at /metrics via
// promhttp.HandlerFor.
func (e *Exporter) Gatherer() prometheus.Gatherer {
	e.refresh()
	return e.reg
}

// Prometheus renders the health report directly in text exposition
// format, for callers that want the string without an HTTP handler.
func (e *Exporter) Prometheus() string {
	report := e.refresh()
	var b strings.Builder
	writeGauge(&b, "isnad_health_score", "Trust network health score (0-1)", report.Score)
	writeGauge(&b, "isnad_events_total", "Total trust events in window", float64(report.TotalEvents))
	writeGauge(&b, "isnad_attestations_total", "Attestations in window", float64(report.Attestations))
	writeGauge(&b, "isnad_revocations_total", "Revocations in window", float64(report.Revocations))
	writeGauge(&b, "isnad_verifications_total", "Verifications in window", float64(report.Verifications))
	writeGauge(&b, "isnad_active_agents", "Active agents in network", float64(report.ActiveAgents))
	writeGauge(&b, "isnad_attestation_rate", "Attestations per minute", report.AttestationRatePerMin)
	writeGauge(&b, "isnad_anomalies_total", "Active anomaly alerts", float64(len(report.Anomalies)))
	if report.Latency != nil {
		writeGauge(&b, "isnad_latency_p50_ms", "Median operation latency", report.Latency.P50Ms)
		writeGauge(&b, "isnad_latency_p95_ms", "95th percentile operation latency", report.Latency.P95Ms)
	}
	return b.String()
}

func writeGauge(b *strings.Builder, name, help string, value float64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s gauge\n", name)
	fmt.Fprintf(b, "%s %v\n\n", name, value)
}

// JSONReport is a convenience wrapper for handlers that want the raw
// report instead of text exposition.
func (e *Exporter) JSONReport() HealthReport {
	return e.refresh()
}
