// Package etcdraft adapts Parameters to the tick based configuration of
// go.etcd.io/etcd/raft.
package etcdraft

import (
	"fmt"
	"time"

	"github.com/shrtyk/raft-params/api"
	"go.etcd.io/etcd/raft/v3"
)

const DefaultMaxInflightMsgs = 256

// Ticks converts the election lower bound and heartbeat interval into whole
// ticks of the given length. The heartbeat is never shorter than one tick.
func Ticks(p *api.Parameters, tick time.Duration) (electionTick, heartbeatTick int, err error) {
	if tick <= 0 {
		return 0, 0, fmt.Errorf("%w: tick interval must be positive, got %s", api.ErrInvalidConfiguration, tick)
	}

	electionTick = int(p.ElectionTimeoutLower() / tick)
	heartbeatTick = max(1, int(p.Heartbeat()/tick))
	if electionTick <= heartbeatTick {
		return 0, 0, fmt.Errorf("%w: election tick (%d) must be greater than heartbeat tick (%d) at %s per tick",
			api.ErrInvalidConfiguration, electionTick, heartbeatTick, tick)
	}
	return electionTick, heartbeatTick, nil
}

// Config builds a raft.Config for node id. A snapshot block is the largest
// message the node sends, so it also caps MaxSizePerMsg.
func Config(p *api.Parameters, tick time.Duration, id uint64, storage raft.Storage) (*raft.Config, error) {
	if id == raft.None {
		return nil, fmt.Errorf("%w: node id must not be zero", api.ErrInvalidConfiguration)
	}
	if storage == nil {
		return nil, fmt.Errorf("%w: storage must not be nil", api.ErrInvalidConfiguration)
	}

	electionTick, heartbeatTick, err := Ticks(p, tick)
	if err != nil {
		return nil, err
	}

	return &raft.Config{
		ID:              id,
		ElectionTick:    electionTick,
		HeartbeatTick:   heartbeatTick,
		Storage:         storage,
		MaxSizePerMsg:   uint64(max(0, p.SnapshotBlockSize())),
		MaxInflightMsgs: DefaultMaxInflightMsgs,
		CheckQuorum:     true,
		PreVote:         true,
	}, nil
}
