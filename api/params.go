package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// Parameters holds the tuning values read by every component of a Raft peer.
//
// A Parameters value is built once by NewParameters and never changes
// afterwards, so a single *Parameters can be shared by any number of
// goroutines without locking.
type Parameters struct {
	electionTimeoutUpperBound int // ms
	electionTimeoutLowerBound int // ms
	heartbeatInterval         int // ms
	rpcFailureBackoff         int // ms
	logSyncBatchSize          int // entries per replication message
	logSyncStopGap            int // entries
	snapshotDistance          int // committed entries between snapshots, 0 disables snapshots
	snapshotBlockSize         int // bytes per snapshot chunk
}

// NewParameters validates and returns a new Parameters.
//
// The only rule enforced is heartbeatInterval < electionTimeoutLower, otherwise
// an error wrapping ErrInvalidConfiguration is returned. Use ValidateStrict for
// further checks.
func NewParameters(
	electionTimeoutUpper int,
	electionTimeoutLower int,
	heartbeatInterval int,
	rpcFailureBackoff int,
	logSyncBatchSize int,
	logSyncStopGap int,
	snapshotDistance int,
	snapshotBlockSize int,
) (*Parameters, error) {
	if heartbeatInterval >= electionTimeoutLower {
		return nil, fmt.Errorf(
			"%w: election timeout lower bound (%d ms) must be greater than heartbeat interval (%d ms)",
			ErrInvalidConfiguration, electionTimeoutLower, heartbeatInterval,
		)
	}

	return &Parameters{
		electionTimeoutUpperBound: electionTimeoutUpper,
		electionTimeoutLowerBound: electionTimeoutLower,
		heartbeatInterval:         heartbeatInterval,
		rpcFailureBackoff:         rpcFailureBackoff,
		logSyncBatchSize:          logSyncBatchSize,
		logSyncStopGap:            logSyncStopGap,
		snapshotDistance:          snapshotDistance,
		snapshotBlockSize:         snapshotBlockSize,
	}, nil
}

// ElectionTimeoutUpperBound is the upper bound of the randomized election timeout in ms.
func (p *Parameters) ElectionTimeoutUpperBound() int {
	return p.electionTimeoutUpperBound
}

// ElectionTimeoutLowerBound is the lower bound of the randomized election timeout in ms.
func (p *Parameters) ElectionTimeoutLowerBound() int {
	return p.electionTimeoutLowerBound
}

// HeartbeatInterval is the interval between leader heartbeats in ms.
func (p *Parameters) HeartbeatInterval() int {
	return p.heartbeatInterval
}

// RPCFailureBackoff is the delay in ms before a failed peer RPC is retried.
func (p *Parameters) RPCFailureBackoff() int {
	return p.rpcFailureBackoff
}

// LogSyncBatchSize is the number of log entries carried by one replication message.
func (p *Parameters) LogSyncBatchSize() int {
	return p.logSyncBatchSize
}

// LogSyncStopGap is the gap in entries between a follower and the leader
// below which batched log sync stops.
func (p *Parameters) LogSyncStopGap() int {
	return p.logSyncStopGap
}

// SnapshotDistance is the number of committed entries between snapshots.
// Zero means no snapshots are taken.
func (p *Parameters) SnapshotDistance() int {
	return p.snapshotDistance
}

// SnapshotBlockSize is the size in bytes of one snapshot transfer chunk.
func (p *Parameters) SnapshotBlockSize() int {
	return p.snapshotBlockSize
}

// MaxHeartbeatInterval returns the longest heartbeat interval that still
// reaches a follower before its election timer can fire, allowing half an
// interval of scheduling jitter.
func (p *Parameters) MaxHeartbeatInterval() int {
	return max(p.heartbeatInterval, p.electionTimeoutLowerBound-p.heartbeatInterval/2)
}

// SnapshotsEnabled reports whether snapshots should be taken at all.
func (p *Parameters) SnapshotsEnabled() bool {
	return p.snapshotDistance > 0
}

// ValidateStrict checks the rules NewParameters leaves out: no field may be
// negative and the lower election bound may not exceed the upper one.
// All violations are reported together.
func (p *Parameters) ValidateStrict() error {
	var err error
	fields := []struct {
		name  string
		value int
	}{
		{"election_timeout_upper", p.electionTimeoutUpperBound},
		{"election_timeout_lower", p.electionTimeoutLowerBound},
		{"heartbeat_interval", p.heartbeatInterval},
		{"rpc_failure_backoff", p.rpcFailureBackoff},
		{"log_sync_batch_size", p.logSyncBatchSize},
		{"log_sync_stop_gap", p.logSyncStopGap},
		{"snapshot_distance", p.snapshotDistance},
		{"snapshot_block_size", p.snapshotBlockSize},
	}
	for _, f := range fields {
		if f.value < 0 {
			err = errors.Join(err, fmt.Errorf("%w: %s = %d", ErrNegativeParameter, f.name, f.value))
		}
	}

	if p.electionTimeoutLowerBound > p.electionTimeoutUpperBound {
		err = errors.Join(err, fmt.Errorf("%w: lower %d ms, upper %d ms",
			ErrElectionBoundsInverted, p.electionTimeoutLowerBound, p.electionTimeoutUpperBound))
	}
	return err
}

// ElectionTimeoutLower is ElectionTimeoutLowerBound as a time.Duration.
func (p *Parameters) ElectionTimeoutLower() time.Duration {
	return ms(p.electionTimeoutLowerBound)
}

// ElectionTimeoutUpper is ElectionTimeoutUpperBound as a time.Duration.
func (p *Parameters) ElectionTimeoutUpper() time.Duration {
	return ms(p.electionTimeoutUpperBound)
}

// Heartbeat is HeartbeatInterval as a time.Duration.
func (p *Parameters) Heartbeat() time.Duration {
	return ms(p.heartbeatInterval)
}

// MaxHeartbeat is MaxHeartbeatInterval as a time.Duration.
func (p *Parameters) MaxHeartbeat() time.Duration {
	return ms(p.MaxHeartbeatInterval())
}

// RPCBackoff is RPCFailureBackoff as a time.Duration.
func (p *Parameters) RPCBackoff() time.Duration {
	return ms(p.rpcFailureBackoff)
}

// Timings projects the election and heartbeat values onto RaftTimings.
// rpcTimeout and shutdownTimeout are not part of Parameters and are passed through.
func (p *Parameters) Timings(rpcTimeout, shutdownTimeout time.Duration) RaftTimings {
	return RaftTimings{
		ElectionTimeoutBase:        p.ElectionTimeoutLower(),
		ElectionTimeoutRandomDelta: p.electionSpread(),
		HeartbeatTimeout:           p.Heartbeat(),
		RPCTimeout:                 rpcTimeout,
		ShutdownTimeout:            shutdownTimeout,
	}
}

// electionSpread is upper-lower, zero for inverted bounds and saturated
// when the difference does not fit a time.Duration.
func (p *Parameters) electionSpread() time.Duration {
	lower, upper := p.ElectionTimeoutLower(), p.ElectionTimeoutUpper()
	if upper <= lower {
		return 0
	}
	if d := upper - lower; d > 0 {
		return d
	}
	return math.MaxInt64
}

// LogValue implements slog.LogValuer.
func (p *Parameters) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("election_timeout_upper", p.electionTimeoutUpperBound),
		slog.Int("election_timeout_lower", p.electionTimeoutLowerBound),
		slog.Int("heartbeat_interval", p.heartbeatInterval),
		slog.Int("max_heartbeat_interval", p.MaxHeartbeatInterval()),
		slog.Int("rpc_failure_backoff", p.rpcFailureBackoff),
		slog.Int("log_sync_batch_size", p.logSyncBatchSize),
		slog.Int("log_sync_stop_gap", p.logSyncStopGap),
		slog.Int("snapshot_distance", p.snapshotDistance),
		slog.Int("snapshot_block_size", p.snapshotBlockSize),
	)
}

// ms converts milliseconds to a time.Duration, saturating at the limits of
// the type instead of wrapping.
func ms(v int) time.Duration {
	const limit = math.MaxInt64 / int64(time.Millisecond)
	switch {
	case int64(v) > limit:
		return math.MaxInt64
	case int64(v) < -limit:
		return math.MinInt64
	}
	return time.Duration(v) * time.Millisecond
}
