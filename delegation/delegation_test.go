package delegation

import (
	"testing"
	"time"

	"isnad/crypto"
)

type noRevocations struct{}

func (noRevocations) IsRevoked(string, string) bool { return false }

func TestSubDelegationScenario(t *testing.T) {
	pKP, _ := crypto.GenerateKeyPair()
	dKP, _ := crypto.GenerateKeyPair()
	eKP, _ := crypto.GenerateKeyPair()
	principal := crypto.AgentID(pKP.PublicKeyHex())
	delegateD := crypto.AgentID(dKP.PublicKeyHex())
	delegateE := crypto.AgentID(eKP.PublicKeyHex())

	root, err := NewRoot(principal, pKP.PublicKeyHex(), delegateD, []string{"trade", "review"}, nil, 2, pKP.Sign)
	if err != nil {
		t.Fatalf("root: %v", err)
	}

	reg := NewRegistry(noRevocations{})
	if ok, err := reg.Add(root); err != nil || !ok {
		t.Fatalf("add root: ok=%v err=%v", ok, err)
	}

	child, err := SubDelegate(root, delegateD, dKP.PublicKeyHex(), delegateE, []string{"review"}, nil, 0, dKP.Sign)
	if err != nil {
		t.Fatalf("sub-delegate: %v", err)
	}
	if ok, err := reg.Add(child); err != nil || !ok {
		t.Fatalf("add child: ok=%v err=%v", ok, err)
	}

	if err := reg.VerifyChain(child.DelegationID, time.Now().UTC()); err != nil {
		t.Fatalf("verify chain: %v", err)
	}

	if _, err := SubDelegate(root, delegateD, dKP.PublicKeyHex(), delegateE, []string{"admin"}, nil, 0, dKP.Sign); err != ErrDelegationConstraint {
		t.Fatalf("expected ErrDelegationConstraint, got %v", err)
	}
}

func TestScopeNarrowingRejectsSuperset(t *testing.T) {
	pKP, _ := crypto.GenerateKeyPair()
	dKP, _ := crypto.GenerateKeyPair()
	eKP, _ := crypto.GenerateKeyPair()
	principal := crypto.AgentID(pKP.PublicKeyHex())
	delegateD := crypto.AgentID(dKP.PublicKeyHex())
	delegateE := crypto.AgentID(eKP.PublicKeyHex())

	root, _ := NewRoot(principal, pKP.PublicKeyHex(), delegateD, []string{"review"}, nil, 3, pKP.Sign)
	_, err := SubDelegate(root, delegateD, dKP.PublicKeyHex(), delegateE, []string{"review", "trade"}, nil, 0, dKP.Sign)
	if err != ErrDelegationConstraint {
		t.Fatalf("expected constraint violation for superset scopes, got %v", err)
	}
}

func TestVerifyRejectsPrincipalPubkeyMismatch(t *testing.T) {
	pKP, _ := crypto.GenerateKeyPair()
	impostorKP, _ := crypto.GenerateKeyPair()
	dKP, _ := crypto.GenerateKeyPair()
	principal := crypto.AgentID(pKP.PublicKeyHex())
	delegateD := crypto.AgentID(dKP.PublicKeyHex())

	root, err := NewRoot(principal, pKP.PublicKeyHex(), delegateD, []string{"review"}, nil, 2, pKP.Sign)
	if err != nil {
		t.Fatalf("root: %v", err)
	}
	// Swap in a pubkey that does not derive to the claimed principal.
	root.PrincipalPub = impostorKP.PublicKeyHex()

	if err := root.Verify(); err != ErrPayloadMismatch {
		t.Fatalf("expected ErrPayloadMismatch, got %v", err)
	}
}

func TestCycleDetection(t *testing.T) {
	pKP, _ := crypto.GenerateKeyPair()
	principal := crypto.AgentID(pKP.PublicKeyHex())
	root, _ := NewRoot(principal, pKP.PublicKeyHex(), principal, []string{"review"}, nil, 3, pKP.Sign)
	root.ParentID = root.DelegationID // force a self-cycle

	reg := NewRegistry(noRevocations{})
	reg.byID[root.DelegationID] = root
	if err := reg.VerifyChain(root.DelegationID, time.Now().UTC()); err != ErrCycle {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}
