package keyrotation

import (
	"testing"

	"isnad/crypto"
)

func TestRotationSignedByOldKey(t *testing.T) {
	oldKP, _ := crypto.GenerateKeyPair()
	newKP, _ := crypto.GenerateKeyPair()

	rot, err := New(oldKP.PublicKeyHex(), newKP.PublicKeyHex(), oldKP.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rot.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rot.OldAgentID() != crypto.AgentID(oldKP.PublicKeyHex()) {
		t.Fatal("old agent id mismatch")
	}
}

func TestRotationSignedByNewKeyFails(t *testing.T) {
	oldKP, _ := crypto.GenerateKeyPair()
	newKP, _ := crypto.GenerateKeyPair()

	rot, err := New(oldKP.PublicKeyHex(), newKP.PublicKeyHex(), newKP.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := rot.Verify(); err == nil {
		t.Fatal("expected verification failure when signed by new key")
	}
}
