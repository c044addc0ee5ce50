package api

import (
	"errors"
	"io"
	"net/http"

	"isnad/ledger"
)

func (a *App) exportChain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Metadata map[string]any `json:"metadata"`
		Sign     bool           `json:"sign"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeBadRequest(w, err)
			return
		}
	}

	var signFn func([]byte) string
	var signerPub string
	if req.Sign {
		signFn = a.Identity.Sign
		signerPub = a.Identity.PublicKeyHex()
	}
	bundle, err := a.Ledger.ExportBundle(req.Metadata, signerPub, signFn)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

func (a *App) importChain(w http.ResponseWriter, r *http.Request) {
	verify := r.URL.Query().Get("verify_signature") != "false"
	body, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	result, err := a.Ledger.ImportBundle(body, verify)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrBundleIncompatible),
			errors.Is(err, ledger.ErrBundleVersionRetired),
			errors.Is(err, ledger.ErrBundleSignatureInvalid):
			writeBadRequest(w, err)
		default:
			writeInternalError(w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// verifyChain checks a bundle's envelope signature and every attestation's
// signature without admitting anything into the ledger — a dry run over
// the bundle format described in spec §6.
func (a *App) verifyChain(w http.ResponseWriter, r *http.Request) {
	var bundle ledger.Bundle
	if err := decodeJSON(r, &bundle); err != nil {
		writeBadRequest(w, err)
		return
	}
	if bundle.Version != ledger.BundleVersion {
		writeJSON(w, http.StatusOK, map[string]any{"valid": false, "error": "unknown bundle version"})
		return
	}

	invalid := make([]string, 0)
	for _, att := range bundle.Attestations {
		if err := att.Verify(); err != nil {
			invalid = append(invalid, att.AttestationID)
		}
	}

	envelopeValid := true
	if bundle.Signature != "" {
		envelopeValid = ledger.VerifyBundleSignature(&bundle) == nil
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid":             len(invalid) == 0 && envelopeValid,
		"invalid_ids":       invalid,
		"envelope_valid":    envelopeValid,
		"attestation_count": len(bundle.Attestations),
	})
}
