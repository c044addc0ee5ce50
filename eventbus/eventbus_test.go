package eventbus

import (
	"sync"
	"testing"
)

func TestPublishMatchesGlobPattern(t *testing.T) {
	b := New(10)
	var got []Event
	var mu sync.Mutex
	b.Subscribe("attestation.*", func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	b.Publish(Event{Topic: "attestation.added"})
	b.Publish(Event{Topic: "revocation.added"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].Topic != "attestation.added" {
		t.Fatalf("expected exactly one matched event, got %+v", got)
	}
}

func TestHistoryBoundedByCap(t *testing.T) {
	b := New(3)
	for i := 0; i < 10; i++ {
		b.Publish(Event{Topic: "x"})
	}
	if len(b.History()) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(b.History()))
	}
}

func TestPanickingHandlerIsolated(t *testing.T) {
	b := New(10)
	var panicked bool
	b.OnPanic(func(topic string, r any) { panicked = true })

	var secondCalled bool
	b.Subscribe("x", func(e Event) { panic("boom") })
	b.Subscribe("x", func(e Event) { secondCalled = true })

	b.Publish(Event{Topic: "x"})
	if !panicked {
		t.Fatalf("expected OnPanic to fire")
	}
	if !secondCalled {
		t.Fatalf("expected second subscriber to still run after first panicked")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(10)
	var calls int
	id := b.Subscribe("x", func(e Event) { calls++ })
	b.Publish(Event{Topic: "x"})
	b.Unsubscribe(id)
	b.Publish(Event{Topic: "x"})
	if calls != 1 {
		t.Fatalf("expected exactly 1 call before unsubscribe, got %d", calls)
	}
}
