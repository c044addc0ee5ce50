package discovery

import (
	"testing"

	"isnad/identity"
)

func TestRegisterRejectsUnsignedProfile(t *testing.T) {
	id, _ := identity.New()
	r := NewRegistry()
	p := &AgentProfile{AgentID: id.AgentID, PublicKey: id.PublicKeyHex(), Name: "bot"}
	if r.Register(p) {
		t.Fatalf("expected unsigned profile to be rejected")
	}
}

func TestRegisterAndSearch(t *testing.T) {
	id, _ := identity.New()
	r := NewRegistry()
	p, err := NewProfile(id, "scanner-bot", []string{"http-scan", "tls-scan"}, nil, nil)
	if err != nil {
		t.Fatalf("new profile: %v", err)
	}
	if !r.Register(p) {
		t.Fatalf("expected profile to register")
	}
	results := r.Search("http-scan", "", 10)
	if len(results) != 1 || results[0].AgentID != id.AgentID {
		t.Fatalf("expected search to find registered profile, got %+v", results)
	}
}

func TestRegisterRejectsStaleUpdate(t *testing.T) {
	id, _ := identity.New()
	r := NewRegistry()
	p1, _ := NewProfile(id, "bot", nil, nil, nil)
	r.Register(p1)

	stale, _ := NewProfile(id, "bot-renamed", nil, nil, nil)
	stale.UpdatedAt = p1.UpdatedAt - 1
	stale.Sign(id)

	if r.Register(stale) {
		t.Fatalf("expected stale update to be rejected")
	}
	got, _ := r.Get(id.AgentID)
	if got.Name != "bot" {
		t.Fatalf("expected original profile to survive stale update attempt, got %+v", got)
	}
}

func TestListCapabilitiesCountsAcrossAgents(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 2; i++ {
		id, _ := identity.New()
		p, _ := NewProfile(id, "bot", []string{"http-scan"}, nil, nil)
		r.Register(p)
	}
	caps := r.ListCapabilities()
	if len(caps) != 1 || caps[0].Count != 2 {
		t.Fatalf("expected http-scan count 2, got %+v", caps)
	}
}
