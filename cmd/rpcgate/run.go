package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpcgate/rpcgate/pkg/app"
	"github.com/rpcgate/rpcgate/pkg/cli"
	"github.com/rpcgate/rpcgate/pkg/config"
)

type runOptions struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the proxy",
		Long: `Start the proxy with the specified configuration.

The proxy serves until it receives SIGINT or SIGTERM, then stops accepting
connections, drains pending call statistics and access log entries and exits.

Examples:
  # Start with default config
  rpcgate run

  # Start with custom config
  rpcgate run --config /etc/rpcgate/config.yaml

  # Override listen address
  rpcgate run --listen 0.0.0.0:8545

  # Validate config without starting the proxy
  rpcgate run --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "validate config without starting the proxy")
	return cmd
}

func runProxy(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if opts.listenAddress != "" {
		cfg.Proxy.ListenAddress = opts.listenAddress
	}
	if opts.logLevel != "" {
		cfg.Telemetry.Logging.Level = opts.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	if opts.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	a, err := app.New(cfg, app.Options{
		Version:    Version,
		ConfigPath: cfgFile,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := a.Run(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}
