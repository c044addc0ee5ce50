package api

import (
	"errors"
	"net/http"

	"isnad/revocation"
)

func (a *App) createRevocation(w http.ResponseWriter, r *http.Request) {
	var rev revocation.Revocation
	if err := decodeJSON(r, &rev); err != nil {
		writeBadRequest(w, err)
		return
	}
	if rev.TargetID == "" || rev.RevokedBy == "" {
		writeBadRequest(w, errors.New("target_id and revoked_by are required"))
		return
	}
	admitted, err := a.Ledger.AddRevocation(&rev)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	a.Monitor.RecordRevocation(rev.RevokedBy, rev.TargetID, rev.Reason, nil, admitted)
	if admitted {
		a.Bus.Publish(newEvent("revocation.created", rev))
	}
	writeJSON(w, http.StatusOK, map[string]any{"admitted": admitted, "revocation_id": rev.RevocationID})
}

func (a *App) listRevocations(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("target")
	if target == "" {
		writeBadRequest(w, errMissingQueryParam("target"))
		return
	}
	revs, err := a.Ledger.RevocationsFor(target)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}
