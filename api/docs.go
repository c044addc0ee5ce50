package api

import "net/http"

// docsIndex serves a minimal built-in description of the REST surface.
// Disabled when the daemon runs with Production set (ISNAD_PRODUCTION),
// matching spec.md §6's "disables built-in docs" note.
func (a *App) docsIndex(w http.ResponseWriter, r *http.Request) {
	resources := []string{
		"POST   /identities",
		"GET    /identities/{agentID}",
		"POST   /attestations",
		"POST   /attestations/batch",
		"GET    /attestations",
		"POST   /attestations/verify",
		"POST   /attestations/verify-batch",
		"GET    /trust/score",
		"GET    /trust/chain",
		"GET    /trust/history/{agentID}",
		"POST   /chain/export",
		"POST   /chain/import",
		"POST   /chain/verify",
		"POST   /revocations",
		"GET    /revocations",
		"POST   /delegations",
		"POST   /delegations/sub",
		"GET    /delegations/{delegationID}/verify-chain",
		"GET    /delegations/by-delegate/{agentID}",
		"GET    /policies",
		"GET    /policies/{name}",
		"PUT    /policies/{name}",
		"DELETE /policies/{name}",
		"POST   /policies/{name}/evaluate",
		"POST   /policies/{name}/evaluate-batch",
		"POST   /discovery",
		"GET    /discovery/search",
		"GET    /discovery/{agentID}",
		"DELETE /discovery/{agentID}",
		"GET    /platform/{agentID}",
		"POST   /platform/scan",
		"POST   /keyrotations",
		"GET    /keyrotations/{agentID}",
		"GET    /graph/analytics",
		"GET    /graph/sybil/{agentID}",
		"GET    /metrics",
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": resources})
}
