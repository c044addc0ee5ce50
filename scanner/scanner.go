// Package scanner concurrently probes agent-declared endpoints and folds
// the result into evidence an attestation can cite. Grounded on
// original_source/src/isnad/worker/worker.py's concurrent fetch loop, the
// teacher's gateway/middleware ratelimit idiom for per-run throttling
// (golang.org/x/time/rate), and circuit_breaker.py for per-host
// short-circuiting (breaker.go).
package scanner

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"isnad/scanner/connectors"
)

// Target is a single URL to probe, tagged with the agent it evidences.
type Target struct {
	AgentID string
	URL     string
}

// Outcome pairs a target with its connector result. ScanID groups every
// outcome produced by the same Scan call, so a platform record can be
// traced back to the sweep that produced it.
type Outcome struct {
	ScanID  string
	Target  Target
	Result  connectors.Result
	Skipped bool
	Err     error
}

// PlatformDatum is the normalized, persisted record of the most recent
// scan of one agent's declared platform URL. A datum is created on first
// scan and updated in place on every later scan of the same URL; it is
// deleted along with its agent.
type PlatformDatum struct {
	AgentID      string             `json:"agent_id"`
	PlatformName string             `json:"platform_name"`
	PlatformURL  string             `json:"platform_url"`
	Alive        bool               `json:"alive"`
	RawData      map[string]any     `json:"raw_data"`
	Metrics      connectors.Metrics `json:"metrics"`
	LastFetched  time.Time          `json:"last_fetched"`
}

// DatumFromOutcome normalizes a scan Outcome into the PlatformDatum it
// should upsert. Skipped outcomes (rate-limited or circuit-broken) and
// connector errors still produce a datum: alive=false, carrying whatever
// the connector reported (nothing, for a skipped outcome). Upserted by URL,
// it replaces the earlier datum for that URL, so the latest attempt is what
// is kept, even when it failed.
func DatumFromOutcome(o Outcome, fetchedAt time.Time) PlatformDatum {
	d := PlatformDatum{
		AgentID:     o.Target.AgentID,
		PlatformURL: o.Target.URL,
		LastFetched: fetchedAt,
	}
	if o.Result.Platform != "" {
		d.PlatformName = o.Result.Platform
	}
	d.Alive = o.Result.Alive
	d.RawData = o.Result.RawData
	d.Metrics = o.Result.Metrics
	return d
}

// Scanner runs a bounded-concurrency, rate-limited sweep over targets
// using a single fallback connector, with a circuit breaker per host.
type Scanner struct {
	connector   connectors.Connector
	limiter     *rate.Limiter
	breaker     *CircuitBreaker
	concurrency int
}

func New(connector connectors.Connector, requestsPerSecond float64, concurrency int) *Scanner {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Scanner{
		connector:   connector,
		limiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), concurrency),
		breaker:     NewCircuitBreaker(5, 30*time.Second, 3),
		concurrency: concurrency,
	}
}

// Scan probes every target concurrently (bounded by concurrency),
// respecting the rate limiter and per-host circuit breaker. Order of the
// returned outcomes is not guaranteed to match targets.
func (s *Scanner) Scan(ctx context.Context, targets []Target) []Outcome {
	scanID := uuid.New().String()
	outcomes := make([]Outcome, len(targets))
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i, t := range targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.probe(ctx, t)
			outcomes[i].ScanID = scanID
		}(i, t)
	}
	wg.Wait()
	return outcomes
}

func (s *Scanner) probe(ctx context.Context, t Target) Outcome {
	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{Target: t, Skipped: true, Err: err}
	}

	host := hostOf(t.URL)
	var result connectors.Result
	err := s.breaker.Call(host, func() error {
		r, fetchErr := s.connector.Fetch(t.URL)
		if fetchErr != nil {
			return fetchErr
		}
		result = r
		if !r.Alive {
			return errAliveCheckFailed
		}
		return nil
	})
	if err != nil {
		if _, isBreaker := err.(*ErrCircuitOpen); isBreaker {
			return Outcome{Target: t, Skipped: true, Err: err}
		}
	}
	return Outcome{Target: t, Result: result}
}

var errAliveCheckFailed = aliveCheckFailedError{}

type aliveCheckFailedError struct{}

func (aliveCheckFailedError) Error() string { return "scanner: target not alive" }

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
