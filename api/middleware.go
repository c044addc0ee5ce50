package api

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"isnad/observability/logging"
)

// statusRecorder captures the status code a handler wrote, mirroring the
// teacher's gateway/middleware observability recorder.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			logging.MaskField("api_key", r.Header.Get("X-API-Key")),
		)
	})
}

// clientRateLimiter throttles requests per client (API key or remote IP):
// each client id gets its own token bucket, and every bucket uses the same
// rate and burst. Generalized from the teacher's
// gateway/middleware/ratelimit.go per-route bucket map to a per-client map
// with one shared rate budget, since the REST surface here has no
// per-service routing tiers.
type clientRateLimiter struct {
	mu            sync.Mutex
	visitors      map[string]*rate.Limiter
	ratePerSecond float64
	burst         int
}

func newClientRateLimiter(ratePerSecond float64, burst int) *clientRateLimiter {
	if ratePerSecond <= 0 {
		ratePerSecond = 20
	}
	if burst <= 0 {
		burst = 40
	}
	return &clientRateLimiter{
		visitors:      make(map[string]*rate.Limiter),
		ratePerSecond: ratePerSecond,
		burst:         burst,
	}
}

func (c *clientRateLimiter) limiterFor(id string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.visitors[id]
	if !ok {
		l = rate.NewLimiter(rate.Limit(c.ratePerSecond), c.burst)
		c.visitors[id] = l
	}
	return l
}

func (c *clientRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := clientID(r)
		if !c.limiterFor(id).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientID(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return "api-key:" + key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
