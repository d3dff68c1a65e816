package raft

import (
	"fmt"
	"time"

	"github.com/shrtyk/raft-params/api"
	"github.com/shrtyk/raft-params/pkg/logger"
)

const (
	defaultMonitoringAddr = ""
	defaultTickInterval   = 10 * time.Millisecond
)

func DefaultConfig() *api.RaftConfig {
	return &api.RaftConfig{
		Log: api.LoggerCfg{
			Env: logger.Prod.String(),
		},
		Params: api.ParamsCfg{
			ElectionTimeoutUpper: 300,
			ElectionTimeoutLower: 150,
			HeartbeatInterval:    60,
			RPCFailureBackoff:    50,
			LogSyncBatchSize:     1000,
			LogSyncStopGap:       10,
			SnapshotDistance:     0,
			SnapshotBlockSize:    4096,
		},
		MonitoringAddr: defaultMonitoringAddr,
		TickInterval:   defaultTickInterval,
	}
}

func TestsConfig() *api.RaftConfig {
	return &api.RaftConfig{
		Log: api.LoggerCfg{
			Env: logger.Dev.String(),
		},
		Params: api.ParamsCfg{
			ElectionTimeoutUpper: 400,
			ElectionTimeoutLower: 200,
			HeartbeatInterval:    100,
			RPCFailureBackoff:    5,
			LogSyncBatchSize:     10,
			LogSyncStopGap:       10,
			SnapshotDistance:     0,
			SnapshotBlockSize:    4096,
		},
		TickInterval: defaultTickInterval,
	}
}

// DefaultParameters builds the parameters of DefaultConfig.
func DefaultParameters() *api.Parameters {
	p, err := DefaultConfig().Params.Build()
	if err != nil {
		panic(fmt.Sprintf("raft: default parameters are invalid: %v", err))
	}
	return p
}
