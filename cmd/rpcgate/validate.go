package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rpcgate/rpcgate/pkg/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration file with environment overrides, validate it and
print a summary of the effective settings.

Examples:
  rpcgate validate --config config.yaml
  RPCGATE_BACKENDS_URLS=http://node:8545 rpcgate validate --config ""`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "✓ Configuration valid")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Listen:         %s (path %s)\n", cfg.Proxy.ListenAddress, cfg.Proxy.Path)
	fmt.Fprintf(w, "TLS:            %s\n", onOff(cfg.Security.TLS.Enabled))
	fmt.Fprintf(w, "Backends:       %s\n", strings.Join(cfg.Backends.URLs, ", "))
	fmt.Fprintf(w, "Counter store:  %s\n", cfg.Store.Backend)

	global := cfg.RateLimiting.GlobalIP
	if global.Enabled {
		fmt.Fprintf(w, "Global limit:   %d per %s\n", global.Requests, global.TimeWindow)
	} else {
		fmt.Fprintln(w, "Global limit:   off")
	}

	perMethod := cfg.RateLimiting.PerMethodIP
	if perMethod.Enabled && len(perMethod.Methods) > 0 {
		methods := make([]string, 0, len(perMethod.Methods))
		for m := range perMethod.Methods {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		fmt.Fprintln(w, "Method limits:")
		for _, m := range methods {
			rule := perMethod.Methods[m]
			fmt.Fprintf(w, "  %-28s %d per %s\n", m, rule.Requests, rule.TimeWindow)
		}
	} else {
		fmt.Fprintln(w, "Method limits:  off")
	}

	if cfg.CallTracking.Enabled {
		fmt.Fprintf(w, "Call tracking:  %s, flush every %s\n", cfg.CallTracking.Backend, cfg.CallTracking.FlushInterval)
	} else {
		fmt.Fprintln(w, "Call tracking:  off")
	}
	if cfg.AccessLog.Enabled {
		fmt.Fprintf(w, "Access log:     %s\n", cfg.AccessLog.Output)
	} else {
		fmt.Fprintln(w, "Access log:     off")
	}
	fmt.Fprintf(w, "Metrics:        %s\n", onOff(cfg.Telemetry.Metrics.Enabled))
	fmt.Fprintf(w, "Tracing:        %s\n", onOff(cfg.Telemetry.Tracing.Enabled))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
