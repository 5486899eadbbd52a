package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpcgate/rpcgate/pkg/cli"
	"github.com/rpcgate/rpcgate/pkg/config"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rpcgate",
		Short: "JSON-RPC 2.0 reverse proxy with rate limiting and call statistics",
		Long: `rpcgate sits in front of one or more JSON-RPC 2.0 servers. It validates
every request, applies per-IP and per-method rate limits backed by a shared
store, forwards admitted requests round-robin and keeps per-caller call
statistics that can be queried over HTTP or with the stats command.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml",
		"config file path (empty to configure from RPCGATE_* variables only)")

	root.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newStatsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits with the mapped exit code.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

// loadConfig reads the configuration named by --config with environment
// overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", err.Error())
	}
	return cfg, nil
}
