// Package policy implements declarative trust requirements for agent
// interactions (spec §4.7, C13): named rules evaluated in priority order,
// first failing rule wins. Evaluation is pure — no ledger or network
// access — callers populate EvaluationContext from trust/ledger reads.
package policy

import (
	"fmt"
	"sort"
)

type Action string

const (
	ActionAllow         Action = "allow"
	ActionDeny          Action = "deny"
	ActionRequireReview Action = "require_review"
	ActionRateLimit     Action = "rate_limit"
)

// Requirement is a single trust condition; nil fields are not checked.
type Requirement struct {
	MinTrustScore     *float64 `json:"min_trust_score,omitempty"`
	MinEndorsements   *int     `json:"min_endorsements,omitempty"`
	MaxChainLength    *int     `json:"max_chain_length,omitempty"`
	RequiredScopes    []string `json:"required_scopes,omitempty"`
	RequiredIssuerIDs []string `json:"required_issuer_ids,omitempty"`
	MaxAgeSeconds     *int64   `json:"max_age_seconds,omitempty"`
}

func (r Requirement) Evaluate(ctx EvaluationContext) bool {
	if r.MinTrustScore != nil && ctx.TrustScore < *r.MinTrustScore {
		return false
	}
	if r.MinEndorsements != nil && ctx.EndorsementCount < *r.MinEndorsements {
		return false
	}
	if r.MaxChainLength != nil && ctx.ChainLength > *r.MaxChainLength {
		return false
	}
	if r.RequiredScopes != nil {
		for _, s := range r.RequiredScopes {
			if !containsString(ctx.Scopes, s) {
				return false
			}
		}
	}
	if r.RequiredIssuerIDs != nil {
		found := false
		for _, id := range r.RequiredIssuerIDs {
			if containsString(ctx.IssuerIDs, id) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if r.MaxAgeSeconds != nil && ctx.ChainAgeSeconds > *r.MaxAgeSeconds {
		return false
	}
	return true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EvaluationContext carries the data a policy needs to decide.
type EvaluationContext struct {
	AgentID          string         `json:"agent_id"`
	TrustScore       float64        `json:"trust_score"`
	EndorsementCount int            `json:"endorsement_count"`
	ChainLength      int            `json:"chain_length"`
	Scopes           []string       `json:"scopes,omitempty"`
	IssuerIDs        []string       `json:"issuer_ids,omitempty"`
	ChainAgeSeconds  int64          `json:"chain_age_seconds"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Rule pairs a requirement with the action to take on match/fail.
type Rule struct {
	Name        string      `json:"name"`
	Requirement Requirement `json:"requirement"`
	OnMatch     Action      `json:"on_match,omitempty"`
	OnFail      Action      `json:"on_fail,omitempty"`
	Description string      `json:"description,omitempty"`
	Priority    int         `json:"priority"` // higher runs first
}

// Decision is the outcome of evaluating a Policy against a context.
type Decision struct {
	Action         Action `json:"action"`
	RuleName       string `json:"rule_name"`
	Matched        bool   `json:"matched"`
	Reason         string `json:"reason"`
	ContextAgentID string `json:"context_agent_id"`
}

func (d Decision) Allowed() bool { return d.Action == ActionAllow }

// Policy is an ordered collection of rules with a default action for the
// no-rules case.
type Policy struct {
	Name          string `json:"name"`
	DefaultAction Action `json:"default_action"`
	Rules         []Rule `json:"rules"`
}

func New(name string, defaultAction Action) *Policy {
	return &Policy{Name: name, DefaultAction: defaultAction}
}

func (p *Policy) AddRule(r Rule) *Policy {
	p.Rules = append(p.Rules, r)
	sort.SliceStable(p.Rules, func(i, j int) bool { return p.Rules[i].Priority > p.Rules[j].Priority })
	return p
}

// Evaluate runs rules in priority order; the first failing rule determines
// the decision. If every rule passes, the decision is ALLOW.
func (p *Policy) Evaluate(ctx EvaluationContext) Decision {
	for _, rule := range p.Rules {
		if !rule.Requirement.Evaluate(ctx) {
			reason := fmt.Sprintf("failed requirement: %s", rule.Name)
			if rule.Description != "" {
				reason += " — " + rule.Description
			}
			onFail := rule.OnFail
			if onFail == "" {
				onFail = p.DefaultAction
			}
			return Decision{
				Action:         onFail,
				RuleName:       rule.Name,
				Matched:        false,
				Reason:         reason,
				ContextAgentID: ctx.AgentID,
			}
		}
	}
	if len(p.Rules) > 0 {
		return Decision{
			Action:         ActionAllow,
			RuleName:       "all_passed",
			Matched:        true,
			Reason:         "all policy rules satisfied",
			ContextAgentID: ctx.AgentID,
		}
	}
	return Decision{
		Action:         p.DefaultAction,
		RuleName:       "default",
		Matched:        false,
		Reason:         "no rules defined, using default action",
		ContextAgentID: ctx.AgentID,
	}
}

func (p *Policy) EvaluateBatch(contexts []EvaluationContext) []Decision {
	out := make([]Decision, len(contexts))
	for i, ctx := range contexts {
		out[i] = p.Evaluate(ctx)
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func secPtr(s int64) *int64       { return &s }

// StrictCommercePolicy is a high-trust preset for financial transactions.
func StrictCommercePolicy() *Policy {
	p := New("strict-commerce", ActionDeny)
	p.AddRule(Rule{
		Name:        "high-trust-score",
		Requirement: Requirement{MinTrustScore: floatPtr(0.8)},
		Description: "commerce requires high trust score",
		OnFail:      ActionDeny,
		Priority:    10,
	})
	p.AddRule(Rule{
		Name:        "endorsed",
		Requirement: Requirement{MinEndorsements: intPtr(3)},
		Description: "must have at least 3 endorsements",
		OnFail:      ActionDeny,
		Priority:    5,
	})
	p.AddRule(Rule{
		Name:        "short-chain",
		Requirement: Requirement{MaxChainLength: intPtr(5)},
		Description: "attestation chain must be reasonably short",
		OnFail:      ActionDeny,
		Priority:    3,
	})
	p.AddRule(Rule{
		Name:        "fresh-attestation",
		Requirement: Requirement{MaxAgeSeconds: secPtr(86400)},
		Description: "attestations must be less than 24h old",
		OnFail:      ActionDeny,
		Priority:    2,
	})
	return p
}

// OpenDiscoveryPolicy is a permissive preset for agent discovery/browsing.
func OpenDiscoveryPolicy() *Policy {
	p := New("open-discovery", ActionAllow)
	p.AddRule(Rule{
		Name:        "minimal-trust",
		Requirement: Requirement{MinTrustScore: floatPtr(0.3)},
		Description: "basic trust threshold for discovery",
		OnFail:      ActionRateLimit,
		Priority:    1,
	})
	return p
}

// ScopedDelegationPolicy requires specific delegation scopes plus a base
// trust floor.
func ScopedDelegationPolicy(requiredScopes []string) *Policy {
	p := New("scoped-delegation", ActionDeny)
	p.AddRule(Rule{
		Name:        "scope-check",
		Requirement: Requirement{RequiredScopes: requiredScopes},
		Description: "requires specific delegation scopes",
		OnFail:      ActionDeny,
		Priority:    10,
	})
	p.AddRule(Rule{
		Name:        "basic-trust",
		Requirement: Requirement{MinTrustScore: floatPtr(0.5)},
		Description: "minimum trust for scoped operations",
		OnFail:      ActionDeny,
		Priority:    5,
	})
	return p
}
