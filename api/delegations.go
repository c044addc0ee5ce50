package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"isnad/delegation"
)

// createDelegation admits a fully-formed, client-signed delegation —
// either a root grant or a sub-delegation built with delegation.SubDelegate
// — into the registry. Validation of the narrowing rules happened at
// construction time; Add only re-checks signature and revocation.
func (a *App) createDelegation(w http.ResponseWriter, r *http.Request) {
	var d delegation.Delegation
	if err := decodeJSON(r, &d); err != nil {
		writeBadRequest(w, err)
		return
	}
	if d.Principal == "" || d.Delegate == "" || len(d.Scopes) == 0 {
		writeBadRequest(w, errors.New("principal, delegate, and scopes are required"))
		return
	}
	admitted, err := a.Delegation.Add(&d)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	scope := ""
	if len(d.Scopes) > 0 {
		scope = d.Scopes[0]
	}
	a.Monitor.RecordDelegation(d.Principal, d.Delegate, scope, nil, admitted)
	if admitted {
		a.Bus.Publish(newEvent("delegation.created", d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"admitted": admitted, "delegation_id": d.DelegationID})
}

func (a *App) verifyDelegationChain(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "delegationID")
	if _, ok := a.Delegation.Get(id); !ok {
		writeNotFound(w, errors.New("delegation not found"))
		return
	}
	err := a.Delegation.VerifyChain(id, time.Now())
	resp := map[string]any{"delegation_id": id, "valid": err == nil}
	if err != nil {
		resp["error"] = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) listDelegationsByDelegate(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	writeJSON(w, http.StatusOK, a.Delegation.ByDelegate(agentID))
}
