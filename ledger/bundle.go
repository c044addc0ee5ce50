package ledger

import (
	"encoding/json"
	"errors"
	"time"

	"isnad/attestation"
	"isnad/crypto"
)

const BundleVersion = "isnad-bundle/v1"

var (
	ErrBundleIncompatible     = errors.New("ledger: unknown bundle version")
	ErrBundleVersionRetired   = errors.New("ledger: bundle version is an older, no-longer-supported format")
	ErrBundleSignatureInvalid = errors.New("ledger: bundle envelope signature does not verify")
)

// knownRetiredVersions lists prior bundle format versions this code once
// understood, so import can distinguish "this is stale, here's why" from
// "this was never valid" (original_source/versioning.py precedent).
var knownRetiredVersions = map[string]bool{
	"isnad-bundle/v0": true,
}

// Bundle is the portable signed export of a ledger slice (spec §4.3, §6).
type Bundle struct {
	Version      string                    `json:"version"`
	CreatedAt    time.Time                 `json:"created_at"`
	Metadata     map[string]any            `json:"metadata,omitempty"`
	Attestations []*attestation.Attestation `json:"attestations"`
	Stats        Stats                     `json:"stats"`
	SignerPubkey string                    `json:"signer_pubkey,omitempty"`
	Signature    string                    `json:"signature,omitempty"`
}

// envelopePayload returns the canonical JSON of {attestations, metadata}
// only — the part the envelope signature covers.
func envelopePayload(atts []*attestation.Attestation, metadata map[string]any) ([]byte, error) {
	attsAny := make([]any, len(atts))
	for i, a := range atts {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, err
		}
		attsAny[i] = normalizeNumbers(m)
	}
	var metaAny any
	if metadata != nil {
		metaAny = normalizeNumbers(metadata)
	}
	return crypto.CanonicalJSON(map[string]any{
		"attestations": attsAny,
		"metadata":     metaAny,
	})
}

// normalizeNumbers returns a copy of the maps and slices nested in v; leaf
// values are returned unchanged. After an intermediate json.Marshal/Unmarshal
// round trip every number is already a float64, which CanonicalJSON accepts.
func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = normalizeNumbers(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = normalizeNumbers(vv)
		}
		return out
	default:
		return val
	}
}

// ExportBundle produces a signed (if sign is non-nil) snapshot of the
// ledger's current attestations.
func (l *Ledger) ExportBundle(metadata map[string]any, signerPubkeyHex string, sign func([]byte) string) (*Bundle, error) {
	atts, err := l.All()
	if err != nil {
		return nil, err
	}
	b := &Bundle{
		Version:      BundleVersion,
		CreatedAt:    time.Now().UTC(),
		Metadata:     metadata,
		Attestations: atts,
		Stats:        l.computeStats(atts),
	}
	if sign != nil {
		payload, err := envelopePayload(atts, metadata)
		if err != nil {
			return nil, err
		}
		b.SignerPubkey = signerPubkeyHex
		b.Signature = sign(payload)
	}
	return b, nil
}

// VerifyBundleSignature checks a bundle's envelope signature against its
// own signer_pubkey, for callers that want to validate a bundle without
// importing it (spec §6 "chain verify").
func VerifyBundleSignature(b *Bundle) error {
	if b.Signature == "" {
		return ErrBundleSignatureInvalid
	}
	payload, err := envelopePayload(b.Attestations, b.Metadata)
	if err != nil {
		return err
	}
	return crypto.Verify(b.SignerPubkey, b.Signature, payload)
}

// ImportResult reports how many attestations from a bundle were admitted,
// rejected for bad signatures, or skipped as already present.
type ImportResult struct {
	Admitted int
	Rejected int
	Skipped  int
}

// ImportBundle verifies the envelope signature (if present and
// verifySignature is true) before any individual record, rejects unknown or
// retired versions, then re-verifies and admits every attestation,
// skipping (not failing) records that fail verification.
func (l *Ledger) ImportBundle(data []byte, verifySignature bool) (*ImportResult, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, ErrBundleIncompatible
	}
	if b.Version != BundleVersion {
		if knownRetiredVersions[b.Version] {
			return nil, ErrBundleVersionRetired
		}
		return nil, ErrBundleIncompatible
	}
	if verifySignature && b.Signature != "" {
		payload, err := envelopePayload(b.Attestations, b.Metadata)
		if err != nil {
			return nil, ErrBundleIncompatible
		}
		if err := crypto.Verify(b.SignerPubkey, b.Signature, payload); err != nil {
			return nil, ErrBundleSignatureInvalid
		}
	}

	result := &ImportResult{}
	for _, att := range b.Attestations {
		if err := att.Verify(); err != nil {
			result.Rejected++
			continue
		}
		admitted, err := l.Add(att)
		if err != nil {
			return nil, err
		}
		if admitted {
			result.Admitted++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}
