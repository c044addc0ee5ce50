// Package keyrotation models a signed binding from an old public key to a
// new one, signed by the old key.
package keyrotation

import (
	"errors"
	"time"

	"isnad/crypto"
)

var (
	ErrSchemaViolation  = errors.New("keyrotation: missing required field")
	ErrInvalidSignature = errors.New("keyrotation: signature does not verify")
)

// KeyRotation binds an old public key to a new one (spec §3 "KeyRotation").
// The ledger does not auto-rewrite subject/witness fields of historical
// attestations on rotation.
type KeyRotation struct {
	OldPubkey string    `json:"old_pubkey"`
	NewPubkey string    `json:"new_pubkey"`
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
}

func payload(oldPub, newPub string, ts time.Time) ([]byte, error) {
	return crypto.CanonicalJSON(map[string]any{
		"old_pubkey": oldPub,
		"new_pubkey": newPub,
		"timestamp":  ts.UTC().Format(time.RFC3339),
	})
}

// New creates and signs a rotation using the OLD key pair.
func New(oldPubkeyHex, newPubkeyHex string, signWithOldKey func([]byte) string) (*KeyRotation, error) {
	if oldPubkeyHex == "" || newPubkeyHex == "" {
		return nil, ErrSchemaViolation
	}
	ts := time.Now().UTC()
	pl, err := payload(oldPubkeyHex, newPubkeyHex, ts)
	if err != nil {
		return nil, err
	}
	return &KeyRotation{
		OldPubkey: oldPubkeyHex,
		NewPubkey: newPubkeyHex,
		Timestamp: ts,
		Signature: signWithOldKey(pl),
	}, nil
}

// Verify checks the rotation is signed by the old key, confirming continuity.
func (k *KeyRotation) Verify() error {
	pl, err := payload(k.OldPubkey, k.NewPubkey, k.Timestamp)
	if err != nil {
		return err
	}
	if err := crypto.Verify(k.OldPubkey, k.Signature, pl); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// OldAgentID and NewAgentID derive the agent ids bound by this rotation.
func (k *KeyRotation) OldAgentID() string { return crypto.AgentID(k.OldPubkey) }
func (k *KeyRotation) NewAgentID() string { return crypto.AgentID(k.NewPubkey) }
