// Package monitoring provides trust-network health observability (spec
// §4.9, C15): a sliding event window, anomaly detection heuristics, and a
// health score, exported both as a JSON report and as Prometheus gauges.
// Grounded on original_source/src/isnad/monitoring.py for the windowing
// and scoring logic, and on the teacher's observability/metrics.go for
// the Prometheus wiring idiom (vectors registered against a dedicated
// registry rather than the global one, so multiple monitors can coexist
// in tests).
package monitoring

import (
	"sort"
	"sync"
	"time"
)

type EventType string

const (
	EventAttestation    EventType = "attestation"
	EventRevocation     EventType = "revocation"
	EventDelegation     EventType = "delegation"
	EventVerification   EventType = "verification"
	EventFederationSync EventType = "federation_sync"
	EventHandshake      EventType = "handshake"
)

// MetricEvent is a single recorded operation.
type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	AgentID    string
	TargetID   string
	Score      *float64
	LatencyMs  *float64
	Success    bool
	Metadata   map[string]any
}

// SlidingWindow is a thread-safe time-bounded event buffer.
type SlidingWindow struct {
	mu     sync.Mutex
	window time.Duration
	events []MetricEvent
	now    func() time.Time
}

func NewSlidingWindow(window time.Duration) *SlidingWindow {
	if window <= 0 {
		window = time.Hour
	}
	return &SlidingWindow{window: window, now: time.Now}
}

func (w *SlidingWindow) Add(e MetricEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.events = append(w.events, e)
	w.prune()
}

func (w *SlidingWindow) prune() {
	cutoff := w.now().Add(-w.window)
	kept := w.events[:0:0]
	for _, e := range w.events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	w.events = kept
}

// Events returns a snapshot of retained events, optionally filtered by
// type.
func (w *SlidingWindow) Events(filter EventType) []MetricEvent {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune()
	if filter == "" {
		out := make([]MetricEvent, len(w.events))
		copy(out, w.events)
		return out
	}
	var out []MetricEvent
	for _, e := range w.events {
		if e.Type == filter {
			out = append(out, e)
		}
	}
	return out
}

func (w *SlidingWindow) Count(filter EventType) int { return len(w.Events(filter)) }

func (w *SlidingWindow) RatePerMinute(filter EventType) float64 {
	events := w.Events(filter)
	if len(events) == 0 {
		return 0
	}
	span := w.now().Sub(events[0].Timestamp).Seconds()
	if span < 1 {
		return float64(len(events))
	}
	return float64(len(events)) / (span / 60)
}

func (w *SlidingWindow) WindowSeconds() float64 { return w.window.Seconds() }

// AnomalyAlert is a detected irregularity in network behavior.
type AnomalyAlert struct {
	AlertType string
	Severity  string // low, medium, high, critical
	Message   string
	Timestamp time.Time
	AgentID   string
	Details   map[string]any
}

// AnomalyDetector applies five threshold-based heuristics over a window.
type AnomalyDetector struct {
	RevocationSpikeThreshold float64
	LowScoreThreshold        float64
	HighFailureRate          float64
	LatencySpikeFactor       float64
}

func NewAnomalyDetector() AnomalyDetector {
	return AnomalyDetector{
		RevocationSpikeThreshold: 3.0,
		LowScoreThreshold:        0.3,
		HighFailureRate:          0.25,
		LatencySpikeFactor:       5.0,
	}
}

func (d AnomalyDetector) Analyze(w *SlidingWindow) []AnomalyAlert {
	var alerts []AnomalyAlert
	now := time.Now()

	revocations := w.Events(EventRevocation)
	attestations := w.Events(EventAttestation)
	if len(attestations) > 0 && len(revocations) > 0 {
		denom := len(attestations)
		ratio := float64(len(revocations)) / float64(denom)
		if ratio > d.RevocationSpikeThreshold {
			alerts = append(alerts, AnomalyAlert{
				AlertType: "revocation_spike",
				Severity:  "high",
				Message:   "revocation rate higher than attestation rate",
				Timestamp: now,
				Details:   map[string]any{"ratio": ratio, "revocations": len(revocations), "attestations": len(attestations)},
			})
		}
	}

	var scored []float64
	for _, e := range attestations {
		if e.Score != nil {
			scored = append(scored, *e.Score)
		}
	}
	if len(scored) > 0 {
		avg := mean(scored)
		if avg < d.LowScoreThreshold {
			alerts = append(alerts, AnomalyAlert{
				AlertType: "low_avg_trust",
				Severity:  "medium",
				Message:   "average trust score critically low",
				Timestamp: now,
				Details:   map[string]any{"avg_score": avg, "sample_size": len(scored)},
			})
		}
	}

	allEvents := w.Events("")
	if len(allEvents) >= 10 {
		failures := 0
		for _, e := range allEvents {
			if !e.Success {
				failures++
			}
		}
		failRate := float64(failures) / float64(len(allEvents))
		if failRate > d.HighFailureRate {
			alerts = append(alerts, AnomalyAlert{
				AlertType: "high_failure_rate",
				Severity:  "high",
				Message:   "operation failure rate elevated",
				Timestamp: now,
				Details:   map[string]any{"fail_rate": failRate, "failures": failures, "total": len(allEvents)},
			})
		}
	}

	var timed []MetricEvent
	for _, e := range allEvents {
		if e.LatencyMs != nil {
			timed = append(timed, e)
		}
	}
	if len(timed) >= 5 {
		latencies := make([]float64, len(timed))
		for i, e := range timed {
			latencies[i] = *e.LatencyMs
		}
		baseline := median(latencies)
		if baseline > 0 {
			recent := latencies[len(latencies)-5:]
			recentMedian := median(recent)
			if recentMedian > baseline*d.LatencySpikeFactor {
				alerts = append(alerts, AnomalyAlert{
					AlertType: "latency_spike",
					Severity:  "medium",
					Message:   "latency spike detected",
					Timestamp: now,
					Details:   map[string]any{"recent_median_ms": recentMedian, "baseline_median_ms": baseline},
				})
			}
		}
	}

	agentRevocations := make(map[string]int)
	for _, e := range revocations {
		agentRevocations[e.AgentID]++
	}
	for _, agent := range sortedKeys(agentRevocations) {
		count := agentRevocations[agent]
		if count >= 5 {
			alerts = append(alerts, AnomalyAlert{
				AlertType: "mass_revocation",
				Severity:  "critical",
				Message:   "agent issued an unusually high number of revocations in window",
				Timestamp: now,
				AgentID:   agent,
				Details:   map[string]any{"count": count},
			})
		}
	}

	return alerts
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func percentile95(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) >= 20 {
		return sorted[int(float64(len(sorted))*0.95)]
	}
	return sorted[len(sorted)-1]
}

// LatencyStats summarizes observed latencies.
type LatencyStats struct {
	P50Ms float64
	P95Ms float64
	MeanMs float64
}

// HealthReport is a point-in-time snapshot of network health.
type HealthReport struct {
	Score                 float64
	WindowSeconds         float64
	TotalEvents           int
	TotalEventsAllTime    int64
	Attestations          int
	Revocations           int
	Verifications         int
	AttestationRatePerMin float64
	ActiveAgents          int
	Latency               *LatencyStats
	Anomalies             []AnomalyAlert
}

// HealthMonitor is the central hub recording events and computing health.
type HealthMonitor struct {
	window       *SlidingWindow
	detector     AnomalyDetector
	mu           sync.Mutex
	totalEvents  int64
	alertCallbacks []func(AnomalyAlert)
}

func NewHealthMonitor(window time.Duration, detector *AnomalyDetector) *HealthMonitor {
	d := NewAnomalyDetector()
	if detector != nil {
		d = *detector
	}
	return &HealthMonitor{window: NewSlidingWindow(window), detector: d}
}

func (m *HealthMonitor) OnAlert(cb func(AnomalyAlert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alertCallbacks = append(m.alertCallbacks, cb)
}

func (m *HealthMonitor) record(e MetricEvent) {
	e.Timestamp = time.Now()
	m.window.Add(e)
	m.mu.Lock()
	m.totalEvents++
	callbacks := append([]func(AnomalyAlert){}, m.alertCallbacks...)
	m.mu.Unlock()

	for _, alert := range m.detector.Analyze(m.window) {
		for _, cb := range callbacks {
			cb(alert)
		}
	}
}

func (m *HealthMonitor) RecordAttestation(agentID, targetID string, score float64, latencyMs *float64, success bool) {
	s := score
	m.record(MetricEvent{Type: EventAttestation, AgentID: agentID, TargetID: targetID, Score: &s, LatencyMs: latencyMs, Success: success})
}

func (m *HealthMonitor) RecordRevocation(agentID, targetID, reason string, latencyMs *float64, success bool) {
	m.record(MetricEvent{Type: EventRevocation, AgentID: agentID, TargetID: targetID, LatencyMs: latencyMs, Success: success, Metadata: map[string]any{"reason": reason}})
}

func (m *HealthMonitor) RecordDelegation(agentID, delegateID, scope string, latencyMs *float64, success bool) {
	m.record(MetricEvent{Type: EventDelegation, AgentID: agentID, TargetID: delegateID, LatencyMs: latencyMs, Success: success, Metadata: map[string]any{"scope": scope}})
}

func (m *HealthMonitor) RecordVerification(agentID, targetID string, valid bool, latencyMs *float64) {
	m.record(MetricEvent{Type: EventVerification, AgentID: agentID, TargetID: targetID, LatencyMs: latencyMs, Success: valid})
}

func (m *HealthMonitor) RecordHandshake(agentID, targetID string, latencyMs *float64, success bool) {
	m.record(MetricEvent{Type: EventHandshake, AgentID: agentID, TargetID: targetID, LatencyMs: latencyMs, Success: success})
}

var severityPenalty = map[string]float64{"low": 0.02, "medium": 0.05, "high": 0.1, "critical": 0.2}

func (m *HealthMonitor) HealthReport() HealthReport {
	allEvents := m.window.Events("")
	attestations := m.window.Events(EventAttestation)
	revocations := m.window.Events(EventRevocation)
	verifications := m.window.Events(EventVerification)
	anomalies := m.detector.Analyze(m.window)

	score := 1.0
	if len(allEvents) > 0 {
		failures := 0
		for _, e := range allEvents {
			if !e.Success {
				failures++
			}
		}
		score -= (float64(failures) / float64(len(allEvents))) * 0.5
	}
	if len(attestations) > 0 && len(revocations) > 0 {
		revRatio := float64(len(revocations)) / float64(len(attestations))
		penalty := revRatio * 0.1
		if penalty > 0.3 {
			penalty = 0.3
		}
		score -= penalty
	}
	for _, a := range anomalies {
		p, ok := severityPenalty[a.Severity]
		if !ok {
			p = 0.05
		}
		score -= p
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	var latStats *LatencyStats
	var latencies []float64
	for _, e := range allEvents {
		if e.LatencyMs != nil {
			latencies = append(latencies, *e.LatencyMs)
		}
	}
	if len(latencies) > 0 {
		latStats = &LatencyStats{P50Ms: median(latencies), P95Ms: percentile95(latencies), MeanMs: mean(latencies)}
	}

	agents := make(map[string]bool)
	for _, e := range allEvents {
		agents[e.AgentID] = true
		if e.TargetID != "" {
			agents[e.TargetID] = true
		}
	}

	m.mu.Lock()
	total := m.totalEvents
	m.mu.Unlock()

	return HealthReport{
		Score:                 score,
		WindowSeconds:         m.window.WindowSeconds(),
		TotalEvents:           len(allEvents),
		TotalEventsAllTime:    total,
		Attestations:          len(attestations),
		Revocations:           len(revocations),
		Verifications:         len(verifications),
		AttestationRatePerMin: m.window.RatePerMinute(EventAttestation),
		ActiveAgents:          len(agents),
		Latency:               latStats,
		Anomalies:             anomalies,
	}
}
