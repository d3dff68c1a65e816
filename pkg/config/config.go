// Package config loads a RaftConfig from an optional YAML file and the
// environment. Every key has a default taken from raft.DefaultConfig, and
// environment variables (RAFT_PARAMS_HEARTBEAT_INTERVAL, RAFT_LOG_ENV, ...)
// override the file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/shrtyk/raft-params/api"
	"github.com/shrtyk/raft-params/raft"
	"github.com/spf13/viper"
)

const DefaultEnvPrefix = "RAFT"

type options struct {
	envPrefix string
	logger    *slog.Logger
}

type Option func(*options)

func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Load reads the configuration. An empty path skips the file.
func Load(path string, opts ...Option) (*api.RaftConfig, error) {
	o := &options{
		envPrefix: DefaultEnvPrefix,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}

	v := viper.New()
	setDefaults(v, raft.DefaultConfig())

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
		o.logger.Debug("read config file", "path", v.ConfigFileUsed())
	}

	cfg := &api.RaftConfig{}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("config: failed to decode: %w", err)
	}
	return cfg, nil
}

// LoadParameters loads the configuration and builds its Parameters.
func LoadParameters(path string, opts ...Option) (*api.RaftConfig, *api.Parameters, error) {
	cfg, err := Load(path, opts...)
	if err != nil {
		return nil, nil, err
	}

	p, err := cfg.Params.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	return cfg, p, nil
}

func setDefaults(v *viper.Viper, def *api.RaftConfig) {
	v.SetDefault("log.env", def.Log.Env)
	v.SetDefault("log.add_source", def.Log.AddSource)
	v.SetDefault("monitoring_addr", def.MonitoringAddr)
	v.SetDefault("tick_interval", def.TickInterval)

	p := def.Params
	v.SetDefault("params.election_timeout_upper", p.ElectionTimeoutUpper)
	v.SetDefault("params.election_timeout_lower", p.ElectionTimeoutLower)
	v.SetDefault("params.heartbeat_interval", p.HeartbeatInterval)
	v.SetDefault("params.rpc_failure_backoff", p.RPCFailureBackoff)
	v.SetDefault("params.log_sync_batch_size", p.LogSyncBatchSize)
	v.SetDefault("params.log_sync_stop_gap", p.LogSyncStopGap)
	v.SetDefault("params.snapshot_distance", p.SnapshotDistance)
	v.SetDefault("params.snapshot_block_size", p.SnapshotBlockSize)
}
