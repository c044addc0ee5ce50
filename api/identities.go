package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"isnad/crypto"
)

const identityRecordKind = "identity_record"

// identityRecord is the public directory entry for an agent: just enough
// to verify signatures against, never the private seed (identity.Identity
// is the only owner of that, and it never crosses the wire).
type identityRecord struct {
	AgentID      string    `json:"agent_id"`
	PublicKey    string    `json:"public_key"`
	RegisteredAt time.Time `json:"registered_at"`
}

var errAgentIDMismatch = errors.New("agent_id does not derive from public_key")

func (a *App) createIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID   string `json:"agent_id"`
		PublicKey string `json:"public_key"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.PublicKey == "" {
		writeBadRequest(w, errors.New("public_key is required"))
		return
	}
	if req.AgentID != crypto.AgentID(req.PublicKey) {
		writeBadRequest(w, errAgentIDMismatch)
		return
	}
	rec := identityRecord{AgentID: req.AgentID, PublicKey: req.PublicKey, RegisteredAt: time.Now().UTC()}
	data, err := json.Marshal(rec)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	inserted, err := a.backend.Put(identityRecordKind, rec.AgentID, data)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if inserted {
		if err := a.backend.IndexAdd(identityRecordKind, "agent", rec.AgentID, rec.AgentID); err != nil {
			writeInternalError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"agent_id": rec.AgentID, "created": inserted})
}

func (a *App) getIdentity(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	data, found, err := a.backend.Get(identityRecordKind, agentID)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if !found {
		writeNotFound(w, errors.New("identity not found"))
		return
	}
	var rec identityRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// eraseIdentity implements the compliance erasure operation (spec §4.2,
// §6): every record referencing agentID as subject, witness, target, or
// revoker is removed from the backend, along with its platform data.
func (a *App) eraseIdentity(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	if err := a.EraseAgent(agentID); err != nil {
		writeInternalError(w, err)
		return
	}
	a.Bus.Publish(newEvent("identity.erased", map[string]string{"agent_id": agentID}))
	w.WriteHeader(http.StatusNoContent)
}
