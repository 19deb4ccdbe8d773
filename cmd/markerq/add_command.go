package main

import (
	"github.com/spf13/cobra"

	"markerq/internal/queue"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var opts enqueueOptions

	cmd := &cobra.Command{
		Use:   "add <pdf-or-url>...",
		Short: "Queue PDFs or URLs for conversion without starting it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				_, err := ctx.enqueueSources(cmd, store, args, opts)
				return err
			})
		},
	}

	addEnqueueFlags(cmd, &opts)
	return cmd
}
