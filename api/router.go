package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router builds the full HTTP surface (spec §6): identities, attestations,
// trust, chain, revocations, delegations, policies, discovery, platform
// data, and monitoring.
func (a *App) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(corsMiddleware(a.cfg.AllowedOrigins))

	limiter := newClientRateLimiter(a.cfg.RateLimit.RequestsPerSecond, a.cfg.RateLimit.Burst)
	r.Use(limiter.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/metrics", a.metrics)

	if !a.cfg.Production {
		r.Get("/docs", a.docsIndex)
	}

	r.Route("/identities", func(sr chi.Router) {
		sr.Post("/", a.createIdentity)
		sr.Get("/{agentID}", a.getIdentity)
		sr.Delete("/{agentID}", a.eraseIdentity)
	})

	r.Route("/attestations", func(sr chi.Router) {
		sr.Post("/", a.createAttestation)
		sr.Post("/batch", a.createAttestationBatch)
		sr.Get("/", a.listAttestations)
		sr.Post("/verify", a.verifyAttestation)
		sr.Post("/verify-batch", a.verifyBatch)
	})

	r.Route("/trust", func(sr chi.Router) {
		sr.Get("/score", a.trustScore)
		sr.Get("/chain", a.trustChain)
		sr.Get("/history/{agentID}", a.trustHistory)
	})

	r.Route("/chain", func(sr chi.Router) {
		sr.Post("/export", a.exportChain)
		sr.Post("/import", a.importChain)
		sr.Post("/verify", a.verifyChain)
	})

	r.Route("/revocations", func(sr chi.Router) {
		sr.Post("/", a.createRevocation)
		sr.Get("/", a.listRevocations)
	})

	r.Route("/delegations", func(sr chi.Router) {
		sr.Post("/", a.createDelegation)
		sr.Post("/sub", a.createDelegation)
		sr.Get("/{delegationID}/verify-chain", a.verifyDelegationChain)
		sr.Get("/by-delegate/{agentID}", a.listDelegationsByDelegate)
	})

	r.Route("/policies", func(sr chi.Router) {
		sr.Get("/", a.listPolicies)
		sr.Get("/{name}", a.getPolicy)
		sr.Put("/{name}", a.createPolicy)
		sr.Post("/{name}", a.createPolicy)
		sr.Delete("/{name}", a.deletePolicy)
		sr.Post("/{name}/evaluate", a.evaluatePolicy)
		sr.Post("/{name}/evaluate-batch", a.evaluatePolicyBatch)
	})

	r.Route("/discovery", func(sr chi.Router) {
		sr.Post("/", a.registerDiscovery)
		sr.Get("/search", a.searchDiscovery)
		sr.Get("/{agentID}", a.getDiscovery)
		sr.Delete("/{agentID}", a.removeDiscovery)
	})

	r.Route("/platform", func(sr chi.Router) {
		sr.Get("/{agentID}", a.listPlatformData)
		sr.Post("/scan", a.triggerScan)
	})

	r.Route("/keyrotations", func(sr chi.Router) {
		sr.Post("/", a.createKeyRotation)
		sr.Get("/{agentID}", a.listKeyRotations)
	})

	r.Route("/graph", func(sr chi.Router) {
		sr.Get("/analytics", a.graphAnalytics)
		sr.Get("/sybil/{agentID}", a.graphSybilScore)
	})

	return r
}
