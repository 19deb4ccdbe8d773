package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"markerq/internal/preflight"
	"markerq/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show environment checks and queue state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintln(out, renderSectionHeader("Environment", colorize))
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, renderSectionHeader("Queue", colorize))
			return ctx.withStore(func(store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				total := 0
				var rows [][]string
				for _, status := range queue.AllStatuses() {
					count := stats[status]
					total += count
					if count > 0 {
						rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
					}
				}
				if total == 0 {
					fmt.Fprintln(out, renderStatusLine("requests", statusInfo, "queue is empty", colorize))
					return nil
				}
				fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

				running, err := store.List(cmd.Context(), queue.StatusRunning)
				if err != nil {
					return err
				}
				for _, req := range running {
					detail := req.OutputName
					if req.ProgressMessage != "" {
						detail = fmt.Sprintf("%s (%s)", req.OutputName, req.ProgressMessage)
					}
					fmt.Fprintln(out, renderStatusLine("converting", statusInfo, detail, colorize))
				}
				return nil
			})
		},
	}
}
