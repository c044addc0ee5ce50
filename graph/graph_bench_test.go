package graph

import (
	"fmt"
	"testing"
)

// buildRing constructs an n-node ring plus a few chords, giving PageRank
// and betweenness something non-trivial to converge over. Mirrors the
// synthetic network original_source/src/isnad/benchmarking.py builds.
func buildRing(n int) *Graph {
	g := New()
	for i := 0; i < n; i++ {
		src := fmt.Sprintf("agent-%d", i)
		dst := fmt.Sprintf("agent-%d", (i+1)%n)
		g.AddEdge(src, dst, 1.0)
		if i%7 == 0 {
			g.AddEdge(src, fmt.Sprintf("agent-%d", (i+3)%n), 1.0)
		}
	}
	return g
}

func BenchmarkPageRank(b *testing.B) {
	for _, n := range []int{50, 200, 1000} {
		b.Run(fmt.Sprintf("nodes=%d", n), func(b *testing.B) {
			g := buildRing(n)
			an := NewAnalytics(g)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				an.PageRank(DefaultDamping, DefaultMaxIter, DefaultTol)
			}
		})
	}
}

func BenchmarkBetweennessCentrality(b *testing.B) {
	for _, n := range []int{20, 100, 300} {
		b.Run(fmt.Sprintf("nodes=%d", n), func(b *testing.B) {
			g := buildRing(n)
			an := NewAnalytics(g)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				an.BetweennessCentrality()
			}
		})
	}
}
