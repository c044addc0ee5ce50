package policy

import "testing"

func TestStrictCommerceDeniesLowTrust(t *testing.T) {
	p := StrictCommercePolicy()
	ctx := EvaluationContext{AgentID: "agent:low", TrustScore: 0.5, EndorsementCount: 5}
	d := p.Evaluate(ctx)
	if d.Allowed() {
		t.Fatalf("expected deny for low trust score, got %+v", d)
	}
	if d.RuleName != "high-trust-score" {
		t.Fatalf("expected first failing rule to be high-trust-score, got %s", d.RuleName)
	}
}

func TestStrictCommerceAllowsWhenAllRulesPass(t *testing.T) {
	p := StrictCommercePolicy()
	ctx := EvaluationContext{
		AgentID:          "agent:good",
		TrustScore:       0.9,
		EndorsementCount: 5,
		ChainLength:      2,
		ChainAgeSeconds:  100,
	}
	d := p.Evaluate(ctx)
	if !d.Allowed() {
		t.Fatalf("expected allow, got %+v", d)
	}
}

func TestOpenDiscoveryRateLimitsOnLowTrust(t *testing.T) {
	p := OpenDiscoveryPolicy()
	d := p.Evaluate(EvaluationContext{AgentID: "agent:new", TrustScore: 0.1})
	if d.Action != ActionRateLimit {
		t.Fatalf("expected rate_limit action, got %v", d.Action)
	}
}

func TestScopedDelegationRequiresAllScopes(t *testing.T) {
	p := ScopedDelegationPolicy([]string{"read", "write"})
	ctx := EvaluationContext{AgentID: "agent:partial", TrustScore: 0.9, Scopes: []string{"read"}}
	d := p.Evaluate(ctx)
	if d.Allowed() {
		t.Fatalf("expected deny when missing a required scope, got %+v", d)
	}
}

func TestPriorityOrderingEvaluatesHighestFirst(t *testing.T) {
	p := New("test", ActionDeny)
	p.AddRule(Rule{Name: "low", Requirement: Requirement{MinTrustScore: floatPtr(0.9)}, Priority: 1})
	p.AddRule(Rule{Name: "high", Requirement: Requirement{MinEndorsements: intPtr(10)}, Priority: 10})
	d := p.Evaluate(EvaluationContext{AgentID: "a", TrustScore: 0.1, EndorsementCount: 0})
	if d.RuleName != "high" {
		t.Fatalf("expected higher priority rule to fail first, got %s", d.RuleName)
	}
}

func TestNoRulesUsesDefaultAction(t *testing.T) {
	p := New("empty", ActionAllow)
	d := p.Evaluate(EvaluationContext{AgentID: "a"})
	if d.Action != ActionAllow || d.RuleName != "default" {
		t.Fatalf("expected default action, got %+v", d)
	}
}
