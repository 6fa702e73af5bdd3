package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vango-dev/livepatch/internal/probe"
)

func checkCmd() *cobra.Command {
	var (
		baseURL   string
		suites    []string
		websocket bool
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the scenario suites against a running server",
		Long: `Run the todo and counter scenarios against a running server and
report every check.

The checks create, toggle, filter and delete their own todo item and
reset the counter, so they can run against a server in use.

Examples:
  livepatch check
  livepatch check --base-url=http://localhost:3000 --suite=todo
  livepatch check --websocket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Checking %s\n", baseURL)

			var current string
			reports, err := probe.RunAll(ctx, baseURL, probe.Options{
				Suites:    suites,
				WebSocket: websocket,
				OnResult: func(suite string, r probe.Result) {
					if suite != current {
						current = suite
						fmt.Fprintf(out, "\n%s\n", color.New(color.Bold).Sprint(suite))
					}
					printResult(out, r)
				},
			})
			if len(reports) > 0 {
				printSummary(out, reports)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&baseURL, "base-url", "u", "http://localhost:8080", "Server to check")
	cmd.Flags().StringSliceVarP(&suites, "suite", "s", nil, "Suites to run: todo, counter (default all)")
	cmd.Flags().BoolVar(&websocket, "websocket", false, "Also check the WebSocket time stream")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Overall timeout")

	return cmd
}

func printResult(w io.Writer, r probe.Result) {
	if r.Passed() {
		fmt.Fprintf(w, "  %s %s %s\n", color.GreenString("✓"), r.Name, color.HiBlackString(r.Duration.Round(time.Millisecond).String()))
		return
	}
	fmt.Fprintf(w, "  %s %s\n", color.RedString("✗"), r.Name)
	fmt.Fprintf(w, "      %s\n", color.RedString(r.Err.Error()))
}

func printSummary(w io.Writer, reports []*probe.Report) {
	var passed, failed int
	for _, r := range reports {
		f := r.Failed()
		failed += f
		passed += len(r.Results) - f
	}
	fmt.Fprintln(w)
	if failed == 0 {
		fmt.Fprintf(w, "%s\n", color.GreenString("%d passed", passed))
		return
	}
	fmt.Fprintf(w, "%s, %s\n", color.GreenString("%d passed", passed), color.RedString("%d failed", failed))
}
