// Package trust implements the scoring engine (spec §4.4, C9): scoped
// reputation and transitive trust over the attestation graph. Both
// functions are pure reads over the ledger — no mutation, no suspension.
package trust

import (
	"math"

	"isnad/ledger"
)

const (
	// BaseWeight is the fixed per-attestation contribution to reputation.
	BaseWeight = 0.2
	// SameWitnessDecayBase is the fixed decay applied to repeated
	// attestations from the same witness.
	SameWitnessDecayBase = 0.5
	// HopDecay is the fixed per-hop multiplier for transitive trust.
	HopDecay = 0.7
	// DefaultMaxHops bounds the transitive trust BFS.
	DefaultMaxHops = 5
)

// Engine computes scores against a ledger.
type Engine struct {
	ledger *ledger.Ledger
}

func NewEngine(l *ledger.Ledger) *Engine {
	return &Engine{ledger: l}
}

// ReputationScore computes the scoped reputation for agentID, optionally
// restricted to attestations whose task contains scope as a substring.
// Revoked agents (globally or for the given scope) score 0.
func (e *Engine) ReputationScore(agentID, scope string) float64 {
	if e.ledger.IsRevoked(agentID, scope) {
		return 0
	}
	atts, err := e.ledger.BySubject(agentID)
	if err != nil {
		return 0
	}
	score := 0.0
	witnessCounts := make(map[string]int)
	for _, att := range atts {
		if !att.MatchesScope(scope) {
			continue
		}
		witnessCounts[att.Witness]++
		penalty := math.Pow(SameWitnessDecayBase, float64(witnessCounts[att.Witness]-1))
		score += BaseWeight * penalty
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

// ChainTrust computes the maximum product-of-decays along any attestation
// path from source to target within maxHops, via bounded BFS (spec §4.4).
// source == target returns 1.0. A maxHops <= 0 uses DefaultMaxHops.
func (e *Engine) ChainTrust(source, target string, maxHops int) float64 {
	if source == target {
		return 1.0
	}
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	type queued struct {
		agent string
		trust float64
		hops  int
	}

	visited := map[string]bool{source: true}
	queue := []queued{{agent: source, trust: 1.0, hops: 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops >= maxHops {
			continue
		}
		edges, err := e.ledger.ByWitness(cur.agent)
		if err != nil {
			continue
		}
		for _, att := range edges {
			next := att.Subject
			nextTrust := cur.trust * HopDecay
			if next == target {
				return nextTrust
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, queued{agent: next, trust: nextTrust, hops: cur.hops + 1})
			}
		}
	}
	return 0.0
}
