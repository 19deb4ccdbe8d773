package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"markerq/internal/logging"
	"markerq/internal/notifications"
	"markerq/internal/organizer"
	"markerq/internal/queue"
	"markerq/internal/services/marker"
	"markerq/internal/workflow"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var opts enqueueOptions

	cmd := &cobra.Command{
		Use:   "convert [pdf-or-url]...",
		Short: "Process the queue, optionally queueing new sources first",
		Long: "Convert drains the pending queue in order, running one marker_single " +
			"process at a time and streaming its output. Sources given as arguments " +
			"are queued before processing starts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				if len(args) > 0 {
					if _, err := ctx.enqueueSources(cmd, store, args, opts); err != nil {
						return err
					}
				}
				return ctx.runQueue(cmd, store)
			})
		},
	}

	addEnqueueFlags(cmd, &opts)
	return cmd
}

func (c *commandContext) runQueue(cmd *cobra.Command, store *queue.Store) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	if stats[queue.StatusPending] == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty; nothing to convert")
		return nil
	}

	converter, err := marker.New(cfg.Converter.Binary, cfg.Converter.TimeoutSeconds)
	if err != nil {
		return err
	}
	hub := logging.NewStreamHub(512)
	mgr := workflow.NewManagerWithOptions(
		cfg,
		store,
		logger,
		converter,
		organizer.New(cfg, logger),
		notifications.NewService(cfg),
		hub,
	)

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mgr.Start(runCtx); err != nil {
		return err
	}
	defer mgr.Stop()

	go streamHub(runCtx, hub, cmd.OutOrStdout())

	interrupted := waitForDrain(runCtx, store, mgr)
	mgr.Stop()

	if interrupted {
		fmt.Fprintln(cmd.OutOrStdout(), "Interrupted; in-flight conversion cancelled")
	}
	return printQueueStats(cmd.OutOrStdout(), store)
}

// waitForDrain blocks until no work remains or the context ends. It reports
// whether the wait ended by interruption.
func waitForDrain(ctx context.Context, store *queue.Store, mgr *workflow.Manager) bool {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return true
		case <-ticker.C:
		}
		stats, err := store.Stats(ctx)
		if err != nil {
			continue
		}
		if stats[queue.StatusPending] == 0 && stats[queue.StatusRunning] == 0 && mgr.CurrentRequestID() == 0 {
			return false
		}
	}
}

func streamHub(ctx context.Context, hub *logging.StreamHub, out io.Writer) {
	var since uint64
	for {
		events, next, err := hub.Fetch(ctx, since, 100, true)
		if err != nil {
			return
		}
		since = next
		for _, evt := range events {
			fmt.Fprintln(out, evt.Message)
		}
	}
}

func printQueueStats(out io.Writer, store *queue.Store) error {
	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}
	var rows [][]string
	for _, status := range queue.AllStatuses() {
		if count := stats[status]; count > 0 {
			rows = append(rows, []string{string(status), fmt.Sprintf("%d", count)})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return nil
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
	return nil
}
