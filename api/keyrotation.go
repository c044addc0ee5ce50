package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"isnad/keyrotation"
)

// createKeyRotation admits a signed old-key-to-new-key binding (spec §3
// "KeyRotation"). The ledger never rewrites historical attestations signed
// under the old key; this only records continuity for later lookup.
func (a *App) createKeyRotation(w http.ResponseWriter, r *http.Request) {
	var k keyrotation.KeyRotation
	if err := decodeJSON(r, &k); err != nil {
		writeBadRequest(w, err)
		return
	}
	inserted, err := a.Ledger.AddKeyRotation(&k)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	a.Bus.Publish(newEvent("keyrotation.created", k))
	writeJSON(w, http.StatusOK, map[string]any{"inserted": inserted, "old_agent_id": k.OldAgentID(), "new_agent_id": k.NewAgentID()})
}

// listKeyRotations returns every rotation recorded for oldAgentID.
func (a *App) listKeyRotations(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	rotations, err := a.Ledger.RotationsFor(agentID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rotations)
}
