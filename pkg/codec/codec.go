// Package codec encodes Parameters in protobuf wire format so that peers can
// exchange and compare their tuning values.
//
// The message is equivalent to
//
//	message Parameters {
//	  sint64 election_timeout_upper = 1;
//	  sint64 election_timeout_lower = 2;
//	  sint64 heartbeat_interval     = 3;
//	  sint64 rpc_failure_backoff    = 4;
//	  sint64 log_sync_batch_size    = 5;
//	  sint64 log_sync_stop_gap      = 6;
//	  sint64 snapshot_distance      = 7;
//	  sint64 snapshot_block_size    = 8;
//	}
package codec

import (
	"errors"
	"fmt"

	"github.com/shrtyk/raft-params/api"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrMalformed = errors.New("codec: malformed parameters")

const (
	fieldElectionTimeoutUpper protowire.Number = iota + 1
	fieldElectionTimeoutLower
	fieldHeartbeatInterval
	fieldRPCFailureBackoff
	fieldLogSyncBatchSize
	fieldLogSyncStopGap
	fieldSnapshotDistance
	fieldSnapshotBlockSize
)

func fields(c *api.ParamsCfg) []*int {
	return []*int{
		fieldElectionTimeoutUpper - 1: &c.ElectionTimeoutUpper,
		fieldElectionTimeoutLower - 1: &c.ElectionTimeoutLower,
		fieldHeartbeatInterval - 1:    &c.HeartbeatInterval,
		fieldRPCFailureBackoff - 1:    &c.RPCFailureBackoff,
		fieldLogSyncBatchSize - 1:     &c.LogSyncBatchSize,
		fieldLogSyncStopGap - 1:       &c.LogSyncStopGap,
		fieldSnapshotDistance - 1:     &c.SnapshotDistance,
		fieldSnapshotBlockSize - 1:    &c.SnapshotBlockSize,
	}
}

// Marshal encodes p. Zero fields are omitted.
func Marshal(p *api.Parameters) []byte {
	cfg := p.Config()
	var b []byte
	for i, v := range fields(&cfg) {
		if *v == 0 {
			continue
		}
		b = protowire.AppendTag(b, protowire.Number(i+1), protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeZigZag(int64(*v)))
	}
	return b
}

// Unmarshal decodes b and validates the result with api.NewParameters.
// Unknown fields are skipped.
func Unmarshal(b []byte) (*api.Parameters, error) {
	var cfg api.ParamsCfg
	dst := fields(&cfg)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		if num < fieldElectionTimeoutUpper || num > fieldSnapshotBlockSize {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}

		if typ != protowire.VarintType {
			return nil, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, num, typ)
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %w", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		*dst[num-1] = int(protowire.DecodeZigZag(v))
	}

	return cfg.Build()
}
