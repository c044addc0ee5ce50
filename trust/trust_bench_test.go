package trust

import (
	"fmt"
	"testing"

	"isnad/ledger"
	"isnad/storage/memstore"
)

// BenchmarkReputationScore measures scoring cost as witness count grows,
// the Go counterpart to original_source/src/isnad/benchmarking.py's
// reputation sweep.
func BenchmarkReputationScore(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("witnesses=%d", n), func(b *testing.B) {
			l := ledger.New(memstore.New())
			subject := newPerson(b)
			for i := 0; i < n; i++ {
				w := newPerson(b)
				if _, err := l.Add(attestFrom(b, w, subject.agentID, "code-review")); err != nil {
					b.Fatalf("add: %v", err)
				}
			}
			e := NewEngine(l)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.ReputationScore(subject.agentID, "")
			}
		})
	}
}

// BenchmarkChainTrust measures BFS cost over a growing attestation chain.
func BenchmarkChainTrust(b *testing.B) {
	for _, n := range []int{5, 20, 100} {
		b.Run(fmt.Sprintf("hops=%d", n), func(b *testing.B) {
			l := ledger.New(memstore.New())
			people := make([]person, n+1)
			for i := range people {
				people[i] = newPerson(b)
			}
			for i := 0; i < n; i++ {
				if _, err := l.Add(attestFrom(b, people[i], people[i+1].agentID, "hop")); err != nil {
					b.Fatalf("add: %v", err)
				}
			}
			e := NewEngine(l)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				e.ChainTrust(people[0].agentID, people[n].agentID, n+1)
			}
		})
	}
}
