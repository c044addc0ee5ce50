// Package revocation models signed revocations of agents or attestations.
package revocation

import (
	"errors"
	"time"

	"isnad/crypto"
)

var (
	ErrSchemaViolation  = errors.New("revocation: missing required field")
	ErrInvalidSignature = errors.New("revocation: signature does not verify")
)

// Revocation is a signed revocation record (spec §3 "Revocation"). Scope
// empty means global.
type Revocation struct {
	RevocationID string    `json:"revocation_id"`
	TargetID     string    `json:"target_id"`
	Reason       string    `json:"reason"`
	RevokedBy    string    `json:"revoked_by"`
	Scope        string    `json:"scope"`
	Timestamp    time.Time `json:"timestamp"`
	Signature    string    `json:"signature"`
	RevokerPub   string    `json:"revoker_pubkey"`
}

func payload(targetID, reason, revokedBy, scope string, ts time.Time) ([]byte, error) {
	var scopeVal any
	if scope != "" {
		scopeVal = scope
	}
	return crypto.CanonicalJSON(map[string]any{
		"action":     "revoke",
		"target_id":  targetID,
		"reason":     reason,
		"revoked_by": revokedBy,
		"scope":      scopeVal,
		"timestamp":  ts.UTC().Format(time.RFC3339),
	})
}

// New creates and signs a new revocation.
func New(targetID, reason, revokedByAgentID, revokerPubkeyHex, scope string, sign func([]byte) string) (*Revocation, error) {
	if targetID == "" || revokedByAgentID == "" {
		return nil, ErrSchemaViolation
	}
	ts := time.Now().UTC()
	pl, err := payload(targetID, reason, revokedByAgentID, scope, ts)
	if err != nil {
		return nil, err
	}
	id := crypto.SHA256Hex(pl)[:16]
	return &Revocation{
		RevocationID: id,
		TargetID:     targetID,
		Reason:       reason,
		RevokedBy:    revokedByAgentID,
		Scope:        scope,
		Timestamp:    ts,
		Signature:    sign(pl),
		RevokerPub:   revokerPubkeyHex,
	}, nil
}

// Verify checks the signature only; revoker authority is a policy decision
// layered above (spec §3 note).
func (r *Revocation) Verify() error {
	pl, err := payload(r.TargetID, r.Reason, r.RevokedBy, r.Scope, r.Timestamp)
	if err != nil {
		return err
	}
	if err := crypto.Verify(r.RevokerPub, r.Signature, pl); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// IsGlobal reports whether the revocation applies to every scope.
func (r *Revocation) IsGlobal() bool { return r.Scope == "" }
