package api

import (
	"errors"
	"net/http"

	"isnad/attestation"
	"isnad/ledger"
)

func (a *App) createAttestation(w http.ResponseWriter, r *http.Request) {
	var att attestation.Attestation
	if err := decodeJSON(r, &att); err != nil {
		writeBadRequest(w, err)
		return
	}
	if att.Subject == "" || att.Task == "" || att.Witness == "" {
		writeBadRequest(w, errors.New("subject, task, and witness are required"))
		return
	}

	admitted, err := a.Ledger.Add(&att)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	latency := float64(0)
	a.Monitor.RecordAttestation(att.Witness, att.Subject, a.Trust.ReputationScore(att.Subject, ""), &latency, admitted)
	if admitted {
		a.Bus.Publish(newEvent("attestation.created", att))
	}
	writeJSON(w, http.StatusOK, map[string]any{"admitted": admitted, "attestation_id": att.AttestationID})
}

func (a *App) createAttestationBatch(w http.ResponseWriter, r *http.Request) {
	var atts []*attestation.Attestation
	if err := decodeJSON(r, &atts); err != nil {
		writeBadRequest(w, err)
		return
	}
	report := a.Ledger.AddBatch(atts)
	a.Bus.Publish(newEvent("attestation.batch_created", report))
	writeJSON(w, http.StatusOK, report)
}

func (a *App) listAttestations(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	witness := r.URL.Query().Get("witness")

	var (
		atts []*attestation.Attestation
		err  error
	)
	switch {
	case subject != "":
		atts, err = a.Ledger.BySubject(subject)
	case witness != "":
		atts, err = a.Ledger.ByWitness(witness)
	default:
		atts, err = a.Ledger.All()
	}
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, atts)
}

func (a *App) verifyAttestation(w http.ResponseWriter, r *http.Request) {
	var att attestation.Attestation
	if err := decodeJSON(r, &att); err != nil {
		writeBadRequest(w, err)
		return
	}
	err := att.Verify()
	resp := map[string]any{"valid": err == nil}
	if err != nil {
		resp["error"] = err.Error()
	}
	a.Monitor.RecordVerification(att.Witness, att.Subject, err == nil, nil)
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) verifyBatch(w http.ResponseWriter, r *http.Request) {
	var atts []*attestation.Attestation
	if err := decodeJSON(r, &atts); err != nil {
		writeBadRequest(w, err)
		return
	}
	report := ledger.VerifyBatch(atts, false)
	writeJSON(w, http.StatusOK, report)
}
