/*
Package api defines the tuning parameters shared by the components of a Raft
peer and the configuration structures they are loaded from.

# Parameters

Parameters is an immutable value built once at node startup with
NewParameters. It is then handed by pointer to every component that needs it:

  - the election timer reads the lower and upper election timeout bounds,
  - the heartbeat sender reads the heartbeat interval and MaxHeartbeatInterval,
  - the RPC retry layer reads the failure backoff,
  - log replication reads the batch size and stop gap,
  - snapshot transfer reads the snapshot distance and block size.

Construction fails with ErrInvalidConfiguration when the heartbeat interval is
not strictly below the lower election timeout bound. Nothing else is checked
unless the caller asks for it with Parameters.ValidateStrict.
*/
package api

import "errors"

var (
	ErrInvalidConfiguration   = errors.New("raft: invalid configuration")
	ErrNegativeParameter      = errors.New("raft: parameter must not be negative")
	ErrElectionBoundsInverted = errors.New("raft: election timeout lower bound exceeds upper bound")
)
