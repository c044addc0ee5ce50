// Package graph implements directed-graph analytics over the
// attestation set (spec §4.5, C10): PageRank, Brandes betweenness, Tarjan
// SCC, weakly connected components, diameter, clustering, label
// propagation communities, articulation points, and sybil heuristics.
// Grounded on original_source/src/isnad/analytics.py's TrustGraph and
// TrustAnalytics, with the recursive DFS algorithms converted to
// iterative form per spec §9.
package graph

import "sort"

// Graph is a directed graph view of the ledger: nodes are agent ids,
// edges are attestations labeled with a weight (default 1.0). It holds at
// most one edge per ordered (src, dst) pair; parallel edges are not kept.
type Graph struct {
	out    map[string]map[string]float64 // src -> dst -> score
	in     map[string]map[string]float64 // dst -> src -> score
	agents map[string]bool
}

func New() *Graph {
	return &Graph{
		out:    make(map[string]map[string]float64),
		in:     make(map[string]map[string]float64),
		agents: make(map[string]bool),
	}
}

func (g *Graph) AddAgent(agent string) { g.agents[agent] = true }

// AddEdge records an attestation edge src (witness) -> dst (subject).
// Adding an edge for a pair that already has one replaces its weight.
func (g *Graph) AddEdge(src, dst string, score float64) {
	g.agents[src] = true
	g.agents[dst] = true
	if g.out[src] == nil {
		g.out[src] = make(map[string]float64)
	}
	if g.in[dst] == nil {
		g.in[dst] = make(map[string]float64)
	}
	g.out[src][dst] = score
	g.in[dst][src] = score
}

// Agents returns all node ids, sorted for deterministic iteration.
func (g *Graph) Agents() []string {
	out := make([]string, 0, len(g.agents))
	for a := range g.agents {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func (g *Graph) NumAgents() int { return len(g.agents) }

func (g *Graph) NumEdges() int {
	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

func (g *Graph) OutNeighbors(agent string) map[string]float64 { return g.out[agent] }
func (g *Graph) InNeighbors(agent string) map[string]float64  { return g.in[agent] }
func (g *Graph) OutDegree(agent string) int                   { return len(g.out[agent]) }
func (g *Graph) InDegree(agent string) int                    { return len(g.in[agent]) }

func (g *Graph) HasEdge(src, dst string) bool {
	_, ok := g.out[src][dst]
	return ok
}

// ToUndirected returns an undirected adjacency set covering every agent.
func (g *Graph) ToUndirected() map[string]map[string]bool {
	adj := make(map[string]map[string]bool)
	ensure := func(a string) map[string]bool {
		if adj[a] == nil {
			adj[a] = make(map[string]bool)
		}
		return adj[a]
	}
	for src, targets := range g.out {
		for dst := range targets {
			ensure(src)[dst] = true
			ensure(dst)[src] = true
		}
	}
	for a := range g.agents {
		ensure(a)
	}
	return adj
}

// sortedOutNeighborKeys returns the destination agent ids of agent's
// outgoing edges in deterministic (sorted) order.
func sortedOutNeighborKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedUndirectedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
