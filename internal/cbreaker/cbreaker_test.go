package cbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
	"github.com/shrtyk/raft-params/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errPeerDown = errors.New("peer down")

func ok(context.Context) (int, error)   { return 1, nil }
func fail(context.Context) (int, error) { return 0, errPeerDown }

func TestCircuitBreaker(t *testing.T) {
	p, err := api.NewParameters(400, 200, 100, 500, 10, 10, 0, 4096)
	require.NoError(t, err)

	fc := fakeclock.NewFakeClock(time.Unix(0, 0))
	cb := NewFromParameters(p, 2, 2, fc)
	ctx := context.Background()

	t.Run("opens after failure threshold", func(t *testing.T) {
		_, err := Do(ctx, cb, fail)
		assert.ErrorIs(t, err, errPeerDown)
		assert.True(t, cb.IsClosed())

		_, err = Do(ctx, cb, fail)
		assert.ErrorIs(t, err, errPeerDown)
		assert.False(t, cb.IsClosed())

		_, err = Do(ctx, cb, ok)
		assert.ErrorIs(t, err, ErrOpenState)
	})

	t.Run("stays open for the rpc backoff", func(t *testing.T) {
		fc.Increment(p.RPCBackoff() - time.Millisecond)
		_, err := Do(ctx, cb, ok)
		assert.ErrorIs(t, err, ErrOpenState)
	})

	t.Run("half open failure reopens", func(t *testing.T) {
		fc.Increment(time.Millisecond)
		_, err := Do(ctx, cb, fail)
		assert.ErrorIs(t, err, errPeerDown)
		assert.False(t, cb.IsClosed())
	})

	t.Run("closes after success threshold", func(t *testing.T) {
		fc.Increment(p.RPCBackoff())
		v, err := Do(ctx, cb, ok)
		require.NoError(t, err)
		assert.Equal(t, 1, v)
		assert.True(t, cb.IsClosed())

		_, err = Do(ctx, cb, ok)
		require.NoError(t, err)
		assert.Equal(t, closed, cb.state)
	})
}
