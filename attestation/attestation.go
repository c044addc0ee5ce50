// Package attestation models a signed claim that a subject performed a
// task, witnessed by another agent.
package attestation

import (
	"errors"
	"strings"
	"time"

	"isnad/crypto"
)

var (
	ErrSchemaViolation  = errors.New("attestation: missing required field")
	ErrInvalidSignature = errors.New("attestation: signature does not verify")
	ErrPayloadMismatch  = errors.New("attestation: witness_pubkey does not derive to claimed witness")
)

// Attestation is the signed statement record (spec §3 "Attestation").
type Attestation struct {
	AttestationID string    `json:"attestation_id"`
	Subject       string    `json:"subject"`
	Witness       string    `json:"witness"`
	Task          string    `json:"task"`
	Evidence      string    `json:"evidence"`
	Timestamp     time.Time `json:"timestamp"`
	Signature     string    `json:"signature"`
	WitnessPubkey string    `json:"witness_pubkey"`
}

// payload returns the canonical JSON bytes that get signed and hashed:
// exactly {subject, witness, task, evidence, timestamp}.
func payload(subject, witness, task, evidence string, ts time.Time) ([]byte, error) {
	return crypto.CanonicalJSON(map[string]any{
		"subject":   subject,
		"witness":   witness,
		"task":      task,
		"evidence":  evidence,
		"timestamp": ts.UTC().Format(time.RFC3339),
	})
}

// New creates and signs a new attestation using the witness's key pair.
func New(subject, task, evidence string, witnessAgentID, witnessPubkeyHex string, sign func([]byte) string) (*Attestation, error) {
	if subject == "" || task == "" || witnessAgentID == "" {
		return nil, ErrSchemaViolation
	}
	ts := time.Now().UTC()
	pl, err := payload(subject, witnessAgentID, task, evidence, ts)
	if err != nil {
		return nil, err
	}
	id := crypto.SHA256Hex(pl)[:16]
	sig := sign(pl)
	return &Attestation{
		AttestationID: id,
		Subject:       subject,
		Witness:       witnessAgentID,
		Task:          task,
		Evidence:      evidence,
		Timestamp:     ts,
		Signature:     sig,
		WitnessPubkey: witnessPubkeyHex,
	}, nil
}

// Payload recomputes the canonical signed payload for an existing record.
func (a *Attestation) Payload() ([]byte, error) {
	return payload(a.Subject, a.Witness, a.Task, a.Evidence, a.Timestamp)
}

// Verify checks all three invariants from spec §3: id derivation, signature
// validity, and witness_pubkey → witness agent_id derivation.
func (a *Attestation) Verify() error {
	pl, err := a.Payload()
	if err != nil {
		return err
	}
	wantID := crypto.SHA256Hex(pl)[:16]
	if wantID != a.AttestationID {
		return ErrInvalidSignature
	}
	if crypto.AgentID(a.WitnessPubkey) != a.Witness {
		return ErrPayloadMismatch
	}
	if err := crypto.Verify(a.WitnessPubkey, a.Signature, pl); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// MatchesScope reports whether task contains scope as a substring; an empty
// scope always matches (spec §4.4 scope filter).
func (a *Attestation) MatchesScope(scope string) bool {
	if scope == "" {
		return true
	}
	return strings.Contains(a.Task, scope)
}
