package revocation

import (
	"testing"

	"isnad/crypto"
)

func TestNewAndVerify(t *testing.T) {
	kp, _ := crypto.GenerateKeyPair()
	revoker := crypto.AgentID(kp.PublicKeyHex())
	r, err := New("agent:target00000000", "misbehavior", revoker, kp.PublicKeyHex(), "", kp.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !r.IsGlobal() {
		t.Fatal("expected global revocation with empty scope")
	}
}

func TestScopedRevocationTamperFails(t *testing.T) {
	kp, _ := crypto.GenerateKeyPair()
	revoker := crypto.AgentID(kp.PublicKeyHex())
	r, err := New("agent:target00000000", "bad task", revoker, kp.PublicKeyHex(), "code", kp.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r.Scope = "deploy"
	if err := r.Verify(); err == nil {
		t.Fatal("expected verification failure after scope tamper")
	}
}
