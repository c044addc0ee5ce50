// Package scanner implements a concurrent, rate-limited platform scanner
// that probes agent-declared endpoints for liveness (spec C12,
// supplemented from original_source/src/isnad/worker). breaker.go is the
// per-host circuit breaker guarding against cascading failures when a
// target host is unreachable, grounded on
// original_source/src/isnad/circuit_breaker.py's CLOSED/OPEN/HALF_OPEN
// state machine.
package scanner

import (
	"fmt"
	"sync"
	"time"
)

type CircuitState string

const (
	StateClosed   CircuitState = "closed"
	StateOpen     CircuitState = "open"
	StateHalfOpen CircuitState = "half_open"
)

// ErrCircuitOpen is returned when a call is rejected because the circuit
// for that host is open.
type ErrCircuitOpen struct {
	Host       string
	RetryAfter time.Duration
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("scanner: circuit open for %q; retry after %s", e.Host, e.RetryAfter)
}

type hostCircuit struct {
	state            CircuitState
	failureCount     int
	lastStateChange  time.Time
	halfOpenSuccesses int
}

// CircuitBreaker tracks per-host failure rates and short-circuits calls to
// hosts that have crossed the failure threshold.
type CircuitBreaker struct {
	failureThreshold int
	recoveryTimeout  time.Duration
	halfOpenMax      int
	onStateChange    func(host string, old, new CircuitState)

	mu       sync.Mutex
	circuits map[string]*hostCircuit
	now      func() time.Time
}

func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = 30 * time.Second
	}
	if halfOpenMax < 1 {
		halfOpenMax = 3
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		halfOpenMax:      halfOpenMax,
		circuits:         make(map[string]*hostCircuit),
		now:              time.Now,
	}
}

func (cb *CircuitBreaker) getCircuit(host string) *hostCircuit {
	c, ok := cb.circuits[host]
	if !ok {
		c = &hostCircuit{state: StateClosed, lastStateChange: cb.now()}
		cb.circuits[host] = c
	}
	return c
}

func (cb *CircuitBreaker) setState(host string, c *hostCircuit, state CircuitState) {
	old := c.state
	if old == state {
		return
	}
	c.state = state
	c.lastStateChange = cb.now()
	if state == StateHalfOpen {
		c.halfOpenSuccesses = 0
	}
	if cb.onStateChange != nil {
		cb.onStateChange(host, old, state)
	}
}

// State returns the current circuit state for host, auto-transitioning
// OPEN to HALF_OPEN once the recovery timeout has elapsed.
func (cb *CircuitBreaker) State(host string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.getCircuit(host)
	if c.state == StateOpen && cb.now().Sub(c.lastStateChange) >= cb.recoveryTimeout {
		cb.setState(host, c, StateHalfOpen)
	}
	return c.state
}

// Call executes fn through the circuit for host, recording success or
// failure and rejecting immediately with ErrCircuitOpen when open.
func (cb *CircuitBreaker) Call(host string, fn func() error) error {
	cb.mu.Lock()
	c := cb.getCircuit(host)
	if c.state == StateOpen {
		elapsed := cb.now().Sub(c.lastStateChange)
		if elapsed >= cb.recoveryTimeout {
			cb.setState(host, c, StateHalfOpen)
		} else {
			cb.mu.Unlock()
			return &ErrCircuitOpen{Host: host, RetryAfter: cb.recoveryTimeout - elapsed}
		}
	}
	cb.mu.Unlock()

	err := fn()
	if err != nil {
		cb.recordFailure(host)
		return err
	}
	cb.recordSuccess(host)
	return nil
}

func (cb *CircuitBreaker) recordFailure(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.getCircuit(host)
	c.failureCount++
	switch c.state {
	case StateHalfOpen:
		cb.setState(host, c, StateOpen)
	case StateClosed:
		if c.failureCount >= cb.failureThreshold {
			cb.setState(host, c, StateOpen)
		}
	}
}

func (cb *CircuitBreaker) recordSuccess(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	c := cb.getCircuit(host)
	switch c.state {
	case StateHalfOpen:
		c.halfOpenSuccesses++
		if c.halfOpenSuccesses >= cb.halfOpenMax {
			c.failureCount = 0
			cb.setState(host, c, StateClosed)
		}
	case StateClosed:
		c.failureCount = 0
	}
}

func (cb *CircuitBreaker) Reset(host string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	delete(cb.circuits, host)
}
