package cbreaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/shrtyk/raft-params/api"
)

var (
	ErrOpenState = errors.New("circuit breaker is in open state")
)

type state int

const (
	_ state = iota
	closed
	open
	halfOpen
)

type CircuitBreaker struct {
	mu    sync.RWMutex
	state state
	clock clock.Clock

	consecutiveFailures  int
	consecutiveSuccesses int

	failureThreshold int
	successThreshold int

	resetTimeout time.Duration
	nextProbeAt  time.Time
}

func NewCircuitBreaker(failureThreshold, successThreshold int, resetTimeout time.Duration, clk clock.Clock) *CircuitBreaker {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &CircuitBreaker{
		state:            closed,
		clock:            clk,
		failureThreshold: failureThreshold,
		successThreshold: successThreshold,
		resetTimeout:     resetTimeout,
	}
}

// NewFromParameters keeps an opened breaker shut for the RPC failure backoff of p.
func NewFromParameters(p *api.Parameters, failureThreshold, successThreshold int, clk clock.Clock) *CircuitBreaker {
	return NewCircuitBreaker(failureThreshold, successThreshold, max(0, p.RPCBackoff()), clk)
}

// Do runs req protected by the circuit breaker.
func Do[Response any](ctx context.Context, cb *CircuitBreaker, req func(context.Context) (Response, error)) (resp Response, err error) {
	cb.mu.Lock()
	if cb.state == open {
		if cb.clock.Now().Before(cb.nextProbeAt) {
			cb.mu.Unlock()
			return resp, ErrOpenState
		}
		cb.state = halfOpen
		cb.consecutiveSuccesses = 0
	}
	cb.mu.Unlock()

	resp, err = req(ctx)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.consecutiveSuccesses = 0
		if cb.state == halfOpen {
			cb.open()
		} else {
			cb.consecutiveFailures++
			if cb.consecutiveFailures >= cb.failureThreshold {
				cb.open()
			}
		}
		return
	}

	if cb.state == halfOpen {
		cb.consecutiveSuccesses++
		if cb.consecutiveSuccesses >= cb.successThreshold {
			cb.reset()
		}
	} else {
		cb.consecutiveFailures = 0
	}

	return
}

// IsClosed reports whether calls are currently let through.
func (cb *CircuitBreaker) IsClosed() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state == closed || cb.state == halfOpen
}

func (cb *CircuitBreaker) open() {
	cb.state = open
	cb.nextProbeAt = cb.clock.Now().Add(cb.resetTimeout)
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}

func (cb *CircuitBreaker) reset() {
	cb.state = closed
	cb.consecutiveFailures = 0
	cb.consecutiveSuccesses = 0
}
