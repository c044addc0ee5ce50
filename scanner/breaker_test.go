package scanner

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute, 2)
	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		_ = cb.Call("host-a", failing)
	}
	if cb.State("host-a") != StateOpen {
		t.Fatalf("expected circuit to open after 3 failures, got %s", cb.State("host-a"))
	}

	err := cb.Call("host-a", func() error { return nil })
	var openErr *ErrCircuitOpen
	if !errors.As(err, &openErr) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Millisecond, 1)
	fixed := time.Now()
	cb.now = func() time.Time { return fixed }

	_ = cb.Call("host-b", func() error { return errors.New("fail") })
	if cb.State("host-b") != StateOpen {
		t.Fatalf("expected open after single failure (threshold 1)")
	}

	fixed = fixed.Add(time.Second)
	if err := cb.Call("host-b", func() error { return nil }); err != nil {
		t.Fatalf("expected half-open call to succeed, got %v", err)
	}
	if cb.State("host-b") != StateClosed {
		t.Fatalf("expected circuit to close after half-open success, got %s", cb.State("host-b"))
	}
}
