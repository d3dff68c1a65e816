package retry

import (
	"context"
	"time"

	"github.com/shrtyk/raft-params/api"
)

// Func is a function that can be retried
type Func func(ctx context.Context) error

// DelayFunc is a closure which will return delay generator function
type DelayFunc func() func() time.Duration

type config struct {
	maxAttempts int
	delayFunc   DelayFunc
}

// Option configures the retrier
type Option func(*config)

// WithMaxAttempts sets the maximum number of attempts.
// The default is 3.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithDelayFunc sets the function which will
// return timeout duration for every attempt.
func WithDelayFunc(d DelayFunc) Option {
	return func(c *config) {
		c.delayFunc = d
	}
}

// WithBaseDelay doubles the delay after every attempt starting from base.
func WithBaseDelay(base time.Duration) Option {
	return WithDelayFunc(exponential(base))
}

// WithParameters waits the RPC failure backoff of p between attempts.
func WithParameters(p *api.Parameters) Option {
	backoff := max(0, p.RPCBackoff())
	return WithDelayFunc(func() func() time.Duration {
		return func() time.Duration {
			return backoff
		}
	})
}

func exponential(base time.Duration) DelayFunc {
	return func() func() time.Duration {
		attempt := 0
		return func() time.Duration {
			delay := base << attempt
			attempt++
			return delay
		}
	}
}

// Do calls fn until it succeeds, the attempts are exhausted or ctx is done.
// By default it makes 3 attempts waiting 150ms and then 300ms between them.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	cfg := &config{
		maxAttempts: 3,
		delayFunc:   exponential(150 * time.Millisecond),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	df := cfg.delayFunc()
	for attempt := range cfg.maxAttempts {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.maxAttempts-1 {
			break
		}

		timer := time.NewTimer(df())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
