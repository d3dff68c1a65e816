package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shrtyk/raft-params/api"
	"github.com/shrtyk/raft-params/pkg/codec"
	"github.com/shrtyk/raft-params/pkg/config"
	"github.com/shrtyk/raft-params/pkg/etcdraft"
	"github.com/shrtyk/raft-params/pkg/logger"
	"github.com/shrtyk/raft-params/raft"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

const shutdownTimeout = 3 * time.Second

type rootFlags struct {
	configPath string
	envPrefix  string
}

func (f *rootFlags) load() (*api.RaftConfig, *api.Parameters, error) {
	return config.LoadParameters(f.configPath, config.WithEnvPrefix(f.envPrefix))
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:          "raftparams",
		Short:        "Inspect Raft tuning parameters",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&flags.envPrefix, "env-prefix", config.DefaultEnvPrefix, "prefix of environment overrides")

	cmd.AddCommand(
		validateCmd(flags),
		showCmd(flags),
		ticksCmd(flags),
		serveCmd(flags),
	)
	return cmd
}

func validateCmd(flags *rootFlags) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that the configured parameters are valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := flags.load()
			if err != nil {
				return err
			}
			if strict {
				if err := p.ValidateStrict(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "parameters are valid, max heartbeat interval %s\n", p.MaxHeartbeat())
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "also reject negative values and inverted election bounds")
	return cmd
}

// shownParams is the printed form of Parameters.
type shownParams struct {
	api.ParamsCfg        `yaml:",inline"`
	MaxHeartbeatInterval int `yaml:"max_heartbeat_interval" json:"maxHeartbeatInterval"`
}

func showCmd(flags *rootFlags) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, p, err := flags.load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := shownParams{ParamsCfg: p.Config(), MaxHeartbeatInterval: p.MaxHeartbeatInterval()}
			switch output {
			case "yaml":
				b, err := yaml.Marshal(s)
				if err != nil {
					return fmt.Errorf("failed to encode yaml: %w", err)
				}
				_, err = out.Write(b)
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			case "proto":
				_, err := fmt.Fprintln(out, hex.EncodeToString(codec.Marshal(p)))
				return err
			default:
				return fmt.Errorf("unknown output format %q, want yaml, json or proto", output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format: yaml, json or proto")
	return cmd
}

func ticksCmd(flags *rootFlags) *cobra.Command {
	var tick time.Duration
	cmd := &cobra.Command{
		Use:   "ticks",
		Short: "Print election and heartbeat ticks for a tick based Raft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := flags.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("tick") {
				tick = cfg.TickInterval
			}

			election, heartbeat, err := etcdraft.Ticks(p, tick)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tick %s: election %d ticks, heartbeat %d ticks\n", tick, election, heartbeat)
			return nil
		},
	}
	cmd.Flags().DurationVar(&tick, "tick", 0, "tick interval, defaults to tick_interval from the config")
	return cmd
}

func serveCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parameters over HTTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, p, err := flags.load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.MonitoringAddr
			}
			if addr == "" {
				return fmt.Errorf("no monitoring address, set --addr or monitoring_addr")
			}

			log := logger.NewLogger(cfg.Log.Environment(), cfg.Log.AddSource)
			log.Info("loaded raft parameters", slog.Any("params", p))

			srv, err := raft.NewMonitoringServer(addr, p, log)
			if err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			tctx, tcancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer tcancel()
			if err := srv.Stop(tctx); err != nil {
				return fmt.Errorf("failed to shutdown monitoring server: %w", err)
			}
			log.Info("monitoring server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to monitoring_addr from the config")
	return cmd
}
