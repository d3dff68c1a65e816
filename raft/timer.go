package raft

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"github.com/shrtyk/raft-params/api"
)

// RandElectionTimeout draws a timeout uniformly from
// [ElectionTimeoutLower, ElectionTimeoutUpper]. When the upper bound does not
// exceed the lower one, or the spread between them does not fit a
// time.Duration, the lower bound is returned.
func RandElectionTimeout(p *api.Parameters, r *rand.Rand) time.Duration {
	lower, upper := p.ElectionTimeoutLower(), p.ElectionTimeoutUpper()
	if upper <= lower {
		return lower
	}
	spread := int64(upper - lower)
	if spread < 0 {
		return lower
	}
	if spread < math.MaxInt64 {
		spread++
	}
	return lower + time.Duration(r.Int63n(spread))
}

// ElectionTimer fires after a randomized election timeout and redraws the
// timeout on every Reset.
type ElectionTimer struct {
	mu     sync.Mutex
	params *api.Parameters
	rnd    *rand.Rand
	timer  clock.Timer
}

func NewElectionTimer(p *api.Parameters, clk clock.Clock, rnd *rand.Rand) *ElectionTimer {
	if clk == nil {
		clk = clock.NewClock()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	et := &ElectionTimer{
		params: p,
		rnd:    rnd,
	}
	et.timer = clk.NewTimer(RandElectionTimeout(p, rnd))
	return et
}

func (et *ElectionTimer) C() <-chan time.Time {
	return et.timer.C()
}

// Reset stops the timer, drains a pending fire and rearms it with a freshly
// drawn timeout which is returned.
func (et *ElectionTimer) Reset() time.Duration {
	et.mu.Lock()
	defer et.mu.Unlock()

	if !et.timer.Stop() {
		select {
		case <-et.timer.C():
		default:
		}
	}
	d := RandElectionTimeout(et.params, et.rnd)
	et.timer.Reset(d)
	return d
}

func (et *ElectionTimer) Stop() bool {
	et.mu.Lock()
	defer et.mu.Unlock()
	return et.timer.Stop()
}

// NewHeartbeatTicker returns a ticker firing every HeartbeatInterval.
func NewHeartbeatTicker(p *api.Parameters, clk clock.Clock) (clock.Ticker, error) {
	if p.Heartbeat() <= 0 {
		return nil, fmt.Errorf("%w: heartbeat interval must be positive to drive a ticker, got %d ms",
			api.ErrInvalidConfiguration, p.HeartbeatInterval())
	}
	if clk == nil {
		clk = clock.NewClock()
	}
	return clk.NewTicker(p.Heartbeat()), nil
}
