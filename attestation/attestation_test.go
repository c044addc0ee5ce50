package attestation

import (
	"testing"

	"isnad/crypto"
)

func newWitness(t *testing.T) (*crypto.KeyPair, string) {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return kp, crypto.AgentID(kp.PublicKeyHex())
}

func TestNewAndVerify(t *testing.T) {
	kp, witnessID := newWitness(t)
	a, err := New("agent:subject000000", "code-review", "", witnessID, kp.PublicKeyHex(), kp.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Verify(); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestTamperInvalidatesVerify(t *testing.T) {
	kp, witnessID := newWitness(t)
	a, err := New("agent:subject000000", "code-review", "", witnessID, kp.PublicKeyHex(), kp.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, mutate := range []func(*Attestation){
		func(a *Attestation) { a.Subject = "agent:other0000000" },
		func(a *Attestation) { a.Witness = "agent:other0000000" },
		func(a *Attestation) { a.Task = "other-task" },
		func(a *Attestation) { a.Evidence = "http://example.com" },
	} {
		clone := *a
		mutate(&clone)
		if err := clone.Verify(); err == nil {
			t.Fatal("expected tampered attestation to fail verification")
		}
	}
}

func TestPayloadMismatchRejected(t *testing.T) {
	kp, _ := newWitness(t)
	a, err := New("agent:subject000000", "code-review", "", "agent:wrongwitness0", kp.PublicKeyHex(), kp.Sign)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Verify(); err != ErrPayloadMismatch {
		t.Fatalf("expected ErrPayloadMismatch, got %v", err)
	}
}

func TestMatchesScope(t *testing.T) {
	kp, witnessID := newWitness(t)
	a, _ := New("agent:s", "service-deployment", "", witnessID, kp.PublicKeyHex(), kp.Sign)
	if a.MatchesScope("code") {
		t.Fatal("expected no match for unrelated scope")
	}
	if !a.MatchesScope("deploy") {
		t.Fatal("expected substring match for 'deploy'")
	}
}
