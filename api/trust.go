package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (a *App) trustScore(w http.ResponseWriter, r *http.Request) {
	agent := r.URL.Query().Get("agent")
	if agent == "" {
		writeBadRequest(w, errMissingQueryParam("agent"))
		return
	}
	scope := r.URL.Query().Get("scope")
	score := a.Trust.ReputationScore(agent, scope)
	writeJSON(w, http.StatusOK, map[string]any{"agent_id": agent, "scope": scope, "score": score})
}

func (a *App) trustChain(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if source == "" || target == "" {
		writeBadRequest(w, errMissingQueryParam("source and target"))
		return
	}
	maxHops := 0
	if v := r.URL.Query().Get("max_hops"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			maxHops = n
		}
	}
	score := a.Trust.ChainTrust(source, target, maxHops)
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "target": target, "chain_trust": score})
}

func (a *App) trustHistory(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	subject, err := a.Ledger.BySubject(agentID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	witness, err := a.Ledger.ByWitness(agentID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent_id":      agentID,
		"as_subject":    subject,
		"as_witness":    witness,
		"reputation":    a.Trust.ReputationScore(agentID, ""),
	})
}
