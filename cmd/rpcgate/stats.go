package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpcgate/rpcgate/pkg/app"
	"github.com/rpcgate/rpcgate/pkg/cli"
	"github.com/rpcgate/rpcgate/pkg/tracking"
)

const statsTimeout = 30 * time.Second

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Inspect call statistics",
		Long: `Read or delete per-caller call statistics directly from the configured
call tracking repository.`,
	}
	cmd.AddCommand(newStatsGetCmd(), newStatsDeleteCmd())
	return cmd
}

func newStatsGetCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get <ip> [method]",
		Short: "Show the call counts of a caller",
		Example: `  rpcgate stats get 1.2.3.4
  rpcgate stats get 1.2.3.4 eth_call --format text`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := cli.ParseFormat(format)
			if err != nil {
				return err
			}

			return withRepository(cmd.Context(), func(ctx context.Context, repo tracking.Repository) error {
				var result any
				if len(args) == 2 {
					call, err := repo.FindByIPAndMethod(ctx, args[0], args[1])
					if err != nil {
						return lookupError(args[0], err)
					}
					result = trackedCallView{call}
				} else {
					calls, err := repo.FindByIP(ctx, args[0])
					if err != nil {
						return lookupError(args[0], err)
					}
					result = callsOfUserView{calls}
				}
				return cli.NewFormatter(outFormat).FormatTo(cmd.OutOrStdout(), result)
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", string(cli.FormatJSON), "output format: json, text")
	return cmd
}

func newStatsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ip>",
		Short: "Delete all call counts of a caller",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepository(cmd.Context(), func(ctx context.Context, repo tracking.Repository) error {
				deleted, err := repo.DeleteByIP(ctx, args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("no statistics for %s: %w", args[0], cli.ErrNotFound)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted statistics for %s\n", args[0])
				return nil
			})
		},
	}
}

func withRepository(ctx context.Context, fn func(context.Context, tracking.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	repo, closeRepo, err := app.OpenRepository(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeRepo() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, statsTimeout)
	defer cancel()

	return fn(ctx, repo)
}

func lookupError(ip string, err error) error {
	if errors.Is(err, tracking.ErrNotFound) {
		return fmt.Errorf("no statistics for %s: %w", ip, cli.ErrNotFound)
	}
	return err
}

// trackedCallView and callsOfUserView add a text layout to the repository
// types while keeping their JSON form.
type trackedCallView struct {
	*tracking.TrackedCall
}

func (v trackedCallView) RenderText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IP\tMETHOD\tSUCCESSFUL\tFAILED")
	fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", v.IP, v.Method, v.SuccessfulCalls, v.FailedCalls)
	return tw.Flush()
}

type callsOfUserView struct {
	*tracking.CallsOfUser
}

func (v callsOfUserView) RenderText(w io.Writer) error {
	methods := make([]string, 0, len(v.Methods))
	for m := range v.Methods {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "IP\tMETHOD\tSUCCESSFUL\tFAILED")
	for _, m := range methods {
		c := v.Methods[m]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", v.IP, m, c.SuccessfulCalls, c.FailedCalls)
	}
	return tw.Flush()
}
