package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"markerq/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the conversion queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued conversion requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				var statuses []queue.Status
				for _, raw := range listStatuses {
					status, ok := queue.ParseStatus(raw)
					if !ok {
						return fmt.Errorf("unknown status %q", raw)
					}
					statuses = append(statuses, status)
				}

				requests, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(requests) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(requests))
				for _, req := range requests {
					message := req.ProgressMessage
					if req.Status == queue.StatusFailed && req.ErrorMessage != "" {
						message = req.ErrorMessage
					}
					rows = append(rows, []string{
						strconv.FormatInt(req.ID, 10),
						req.OutputName,
						string(req.Status),
						req.Pages.String(),
						req.CreatedAt.Local().Format(time.DateTime),
						message,
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Status", "Pages", "Created", "Message"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, running, succeeded, failed, cancelled)")
	return cmd
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a request from the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id %q", args[0])
			}
			return ctx.withStore(func(store *queue.Store) error {
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !removed {
					return fmt.Errorf("no request with id %d", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed request %d\n", id)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished requests (or everything with --all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				var (
					removed int64
					err     error
				)
				if clearAll {
					removed, err = store.Clear(cmd.Context())
				} else {
					removed, err = store.ClearFinished(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d requests\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearAll, "all", false, "Also remove pending requests")
	return cmd
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Mark every pending request cancelled",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				cancelled, err := store.CancelPending(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %d pending requests\n", cancelled)
				return nil
			})
		},
	}
}
