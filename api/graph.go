package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"isnad/graph"
)

// buildGraph materializes a directed-graph view of every admitted
// attestation: edges run witness -> subject, each with weight 1.0, and
// repeated attestations between the same pair collapse into one edge.
func (a *App) buildGraph() (*graph.Graph, error) {
	atts, err := a.Ledger.All()
	if err != nil {
		return nil, err
	}
	g := graph.New()
	for _, att := range atts {
		g.AddEdge(att.Witness, att.Subject, 1.0)
	}
	return g, nil
}

// graphAnalytics reports network-wide statistics plus per-agent metrics
// (spec §4.5, C10) over the current ledger snapshot.
func (a *App) graphAnalytics(w http.ResponseWriter, r *http.Request) {
	g, err := a.buildGraph()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	an := graph.NewAnalytics(g)
	stats := an.NetworkStats()

	agents := g.Agents()
	metrics := make([]graph.AgentMetrics, 0, len(agents))
	for _, ag := range agents {
		metrics = append(metrics, an.AgentMetricsFor(ag, nil))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"network": stats,
		"agents":  metrics,
	})
}

// graphSybilScore reports the five-signal sybil heuristic for a single
// agent, optionally seeded by trusted agents passed as repeated ?seed=
// query parameters.
func (a *App) graphSybilScore(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	g, err := a.buildGraph()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	seeds := make(map[string]bool)
	for _, s := range r.URL.Query()["seed"] {
		seeds[s] = true
	}
	scores := graph.NewAnalytics(g).SybilScores(seeds)
	writeJSON(w, http.StatusOK, map[string]any{"agent_id": agentID, "sybil_score": scores[agentID]})
}
