package graph

import (
	"math"
	"testing"
)

func buildTriangle() *Graph {
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "c", 1.0)
	g.AddEdge("c", "a", 1.0)
	return g
}

func TestPageRankSumsToOne(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "c", 1.0)
	g.AddEdge("c", "a", 1.0)
	g.AddEdge("a", "c", 1.0)
	g.AddAgent("d") // dangling node with no edges

	an := NewAnalytics(g)
	pr := an.PageRank(DefaultDamping, DefaultMaxIter, DefaultTol)

	sum := 0.0
	for _, v := range pr {
		sum += v
	}
	if math.Abs(sum-1.0) > 0.01 {
		t.Fatalf("pagerank should sum to ~1.0, got %v", sum)
	}
}

func TestLabelPropagationDeterministic(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "a", 1.0)
	g.AddEdge("c", "d", 1.0)
	g.AddEdge("d", "c", 1.0)
	g.AddEdge("b", "c", 1.0)

	an := NewAnalytics(g)
	first := an.LabelPropagation(50)
	for i := 0; i < 5; i++ {
		next := an.LabelPropagation(50)
		for k, v := range first {
			if next[k] != v {
				t.Fatalf("label propagation not deterministic: agent %s got %d then %d", k, v, next[k])
			}
		}
	}
}

func TestStronglyConnectedComponentsTriangle(t *testing.T) {
	g := buildTriangle()
	an := NewAnalytics(g)
	sccs := an.StronglyConnectedComponents()
	if len(sccs) != 1 || len(sccs[0]) != 3 {
		t.Fatalf("expected one SCC of size 3, got %+v", sccs)
	}
}

func TestStronglyConnectedComponentsNoCycle(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "c", 1.0)
	an := NewAnalytics(g)
	sccs := an.StronglyConnectedComponents()
	if len(sccs) != 3 {
		t.Fatalf("expected 3 singleton SCCs, got %+v", sccs)
	}
}

func TestArticulationPointBridgeNode(t *testing.T) {
	// a-b-c chain, b is the only path between a and c.
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "a", 1.0)
	g.AddEdge("b", "c", 1.0)
	g.AddEdge("c", "b", 1.0)
	an := NewAnalytics(g)
	ap := an.ArticulationPoints()
	if !ap["b"] {
		t.Fatalf("expected b to be an articulation point, got %+v", ap)
	}
	if ap["a"] || ap["c"] {
		t.Fatalf("leaf nodes should not be articulation points, got %+v", ap)
	}
}

func TestClusteringCoefficientTriangle(t *testing.T) {
	g := buildTriangle()
	an := NewAnalytics(g)
	cc := an.ClusteringCoefficient("a")
	// a's neighbours are b (out) and c (in); of the two ordered pairs
	// between them only b->c is an edge, so the directed coefficient is 1/2.
	if !almostEqualG(cc, 0.5) {
		t.Fatalf("directed triangle clustering coefficient should be 0.5, got %v", cc)
	}
}

func TestBetweennessCentralityLinearChain(t *testing.T) {
	// a -> b -> c: b sits on the only shortest path between a and c.
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("b", "c", 1.0)
	an := NewAnalytics(g)
	bc := an.BetweennessCentrality()
	if bc["b"] <= bc["a"] || bc["b"] <= bc["c"] {
		t.Fatalf("expected b to have higher betweenness, got %+v", bc)
	}
}

func TestConnectedComponentsSplitsDisjointGraphs(t *testing.T) {
	g := New()
	g.AddEdge("a", "b", 1.0)
	g.AddEdge("x", "y", 1.0)
	an := NewAnalytics(g)
	comps := an.ConnectedComponents()
	if len(comps) != 2 {
		t.Fatalf("expected 2 components, got %+v", comps)
	}
}

func TestDiameterEmptyGraph(t *testing.T) {
	g := New()
	an := NewAnalytics(g)
	if d := an.Diameter(); d != -1 {
		t.Fatalf("diameter of empty graph should be -1, got %d", d)
	}
}

func TestDiameterSingleNode(t *testing.T) {
	g := New()
	g.AddAgent("a")
	an := NewAnalytics(g)
	if d := an.Diameter(); d != 0 {
		t.Fatalf("diameter of single-node graph should be 0, got %d", d)
	}
}

func TestSybilScoreStarTopologyIsHigh(t *testing.T) {
	// one agent attested by four distinct witnesses that never attest
	// each other: low clustering, high in-degree imbalance.
	g := New()
	witnesses := []string{"w1", "w2", "w3", "w4"}
	for _, w := range witnesses {
		g.AddEdge(w, "target", 1.0)
	}
	an := NewAnalytics(g)
	scores := an.SybilScores(nil)
	if scores["target"] <= 0 {
		t.Fatalf("expected nonzero sybil score for imbalanced star target, got %v", scores["target"])
	}
}

func almostEqualG(a, b float64) bool { return math.Abs(a-b) < 1e-9 }
