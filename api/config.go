package api

import (
	"time"

	"github.com/shrtyk/raft-params/pkg/logger"
)

type RaftConfig struct {
	Log            LoggerCfg     `mapstructure:"log"`
	Params         ParamsCfg     `mapstructure:"params"`
	MonitoringAddr string        `mapstructure:"monitoring_addr"`
	TickInterval   time.Duration `mapstructure:"tick_interval"`
}

type LoggerCfg struct {
	Env       string `mapstructure:"env"`
	AddSource bool   `mapstructure:"add_source"`
}

// Environment resolves Env, falling back to logger.Dev for unknown values.
func (c LoggerCfg) Environment() logger.Environment {
	env, err := logger.ParseEnvironment(c.Env)
	if err != nil {
		return logger.Dev
	}
	return env
}

// ParamsCfg is the raw, unvalidated form of Parameters as it appears in
// config files and the environment. All values are in ms, entries or bytes.
type ParamsCfg struct {
	ElectionTimeoutUpper int `mapstructure:"election_timeout_upper" yaml:"election_timeout_upper" json:"electionTimeoutUpper"`
	ElectionTimeoutLower int `mapstructure:"election_timeout_lower" yaml:"election_timeout_lower" json:"electionTimeoutLower"`
	HeartbeatInterval    int `mapstructure:"heartbeat_interval" yaml:"heartbeat_interval" json:"heartbeatInterval"`
	RPCFailureBackoff    int `mapstructure:"rpc_failure_backoff" yaml:"rpc_failure_backoff" json:"rpcFailureBackoff"`
	LogSyncBatchSize     int `mapstructure:"log_sync_batch_size" yaml:"log_sync_batch_size" json:"logSyncBatchSize"`
	LogSyncStopGap       int `mapstructure:"log_sync_stop_gap" yaml:"log_sync_stop_gap" json:"logSyncStopGap"`
	SnapshotDistance     int `mapstructure:"snapshot_distance" yaml:"snapshot_distance" json:"snapshotDistance"`
	SnapshotBlockSize    int `mapstructure:"snapshot_block_size" yaml:"snapshot_block_size" json:"snapshotBlockSize"`
}

// Build validates the raw values and returns the resulting Parameters.
func (c ParamsCfg) Build() (*Parameters, error) {
	return NewParameters(
		c.ElectionTimeoutUpper,
		c.ElectionTimeoutLower,
		c.HeartbeatInterval,
		c.RPCFailureBackoff,
		c.LogSyncBatchSize,
		c.LogSyncStopGap,
		c.SnapshotDistance,
		c.SnapshotBlockSize,
	)
}

// Config returns the raw form of p.
func (p *Parameters) Config() ParamsCfg {
	return ParamsCfg{
		ElectionTimeoutUpper: p.electionTimeoutUpperBound,
		ElectionTimeoutLower: p.electionTimeoutLowerBound,
		HeartbeatInterval:    p.heartbeatInterval,
		RPCFailureBackoff:    p.rpcFailureBackoff,
		LogSyncBatchSize:     p.logSyncBatchSize,
		LogSyncStopGap:       p.logSyncStopGap,
		SnapshotDistance:     p.snapshotDistance,
		SnapshotBlockSize:    p.snapshotBlockSize,
	}
}

// RaftTimings is the duration view of the election and heartbeat values
// consumed by timer driven components.
type RaftTimings struct {
	ElectionTimeoutBase        time.Duration
	ElectionTimeoutRandomDelta time.Duration
	HeartbeatTimeout           time.Duration
	RPCTimeout                 time.Duration
	ShutdownTimeout            time.Duration
}
