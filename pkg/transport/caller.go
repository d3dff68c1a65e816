package transport

import (
	"context"
	"fmt"

	"code.cloudfoundry.org/clock"
	"github.com/shrtyk/raft-params/api"
	"github.com/shrtyk/raft-params/internal/cbreaker"
	"github.com/shrtyk/raft-params/internal/retry"
)

const (
	defaultAttempts         = 3
	defaultFailureThreshold = 6
	defaultSuccessThreshold = 4
)

// Caller guards RPCs to each peer with a circuit breaker and retries failed
// calls after the RPC failure backoff.
type Caller struct {
	params   *api.Parameters
	attempts int
	breakers []*cbreaker.CircuitBreaker
}

type CallerOption func(*callerOptions)

type callerOptions struct {
	attempts         int
	failureThreshold int
	successThreshold int
	clock            clock.Clock
}

func WithAttempts(n int) CallerOption {
	return func(o *callerOptions) { o.attempts = n }
}

func WithBreakerThresholds(failures, successes int) CallerOption {
	return func(o *callerOptions) {
		o.failureThreshold = failures
		o.successThreshold = successes
	}
}

func WithClock(clk clock.Clock) CallerOption {
	return func(o *callerOptions) { o.clock = clk }
}

func NewCaller(p *api.Parameters, peers int, opts ...CallerOption) *Caller {
	o := &callerOptions{
		attempts:         defaultAttempts,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
		clock:            clock.NewClock(),
	}
	for _, opt := range opts {
		opt(o)
	}

	breakers := make([]*cbreaker.CircuitBreaker, peers)
	for i := range breakers {
		breakers[i] = cbreaker.NewFromParameters(p, o.failureThreshold, o.successThreshold, o.clock)
	}
	return &Caller{
		params:   p,
		attempts: o.attempts,
		breakers: breakers,
	}
}

// IsPeerAvailable returns true if peer currently available to be called and false otherwise.
func (c *Caller) IsPeerAvailable(peer int) bool {
	if peer < 0 || peer >= len(c.breakers) {
		return false
	}
	return c.breakers[peer].IsClosed()
}

// Call runs fn against peer. Calls rejected by an open breaker are retried
// like any other failure, so a breaker that reopens within the retry budget
// still lets the call through.
func Call[Response any](
	ctx context.Context,
	c *Caller,
	peer int,
	fn func(context.Context) (Response, error),
) (Response, error) {
	var resp Response
	if peer < 0 || peer >= len(c.breakers) {
		return resp, fmt.Errorf("transport: unknown peer %d", peer)
	}

	err := retry.Do(ctx, func(ctx context.Context) error {
		r, err := cbreaker.Do(ctx, c.breakers[peer], fn)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, retry.WithMaxAttempts(c.attempts), retry.WithParameters(c.params))
	if err != nil {
		return resp, fmt.Errorf("call to peer %d failed: %w", peer, err)
	}
	return resp, nil
}
