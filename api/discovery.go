package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"isnad/discovery"
)

func (a *App) registerDiscovery(w http.ResponseWriter, r *http.Request) {
	var profile discovery.AgentProfile
	if err := decodeJSON(r, &profile); err != nil {
		writeBadRequest(w, err)
		return
	}
	a.discoveryMu.Lock()
	ok := a.Discovery.Register(&profile)
	a.discoveryMu.Unlock()
	if !ok {
		writeBadRequest(w, errors.New("profile rejected: bad signature, agent_id mismatch, or stale update"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registered": true, "agent_id": profile.AgentID})
}

func (a *App) searchDiscovery(w http.ResponseWriter, r *http.Request) {
	capability := r.URL.Query().Get("capability")
	name := r.URL.Query().Get("name")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	a.discoveryMu.RLock()
	defer a.discoveryMu.RUnlock()
	writeJSON(w, http.StatusOK, a.Discovery.Search(capability, name, limit))
}

func (a *App) getDiscovery(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	a.discoveryMu.RLock()
	profile, ok := a.Discovery.Get(agentID)
	a.discoveryMu.RUnlock()
	if !ok {
		writeNotFound(w, errors.New("agent not registered"))
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (a *App) removeDiscovery(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	a.discoveryMu.Lock()
	ok := a.Discovery.Unregister(agentID)
	a.discoveryMu.Unlock()
	if !ok {
		writeNotFound(w, errors.New("agent not registered"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
