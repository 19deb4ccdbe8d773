package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"markerq/internal/ingest"
	"markerq/internal/logging"
	"markerq/internal/notifications"
	"markerq/internal/organizer"
	"markerq/internal/queue"
	"markerq/internal/services/marker"
	"markerq/internal/workflow"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the drop folder and convert new PDFs as they settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Watch.Dir == "" {
				return fmt.Errorf("watch directory not configured; set watch.dir in %s", "config.toml")
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(store *queue.Store) error {
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

				watcher := ingest.NewWatcher(cfg, logger, func(path string) {
					local, err := ingest.ValidateSource(path)
					if err != nil {
						logger.Warn("ignoring dropped file", logging.String("path", path), logging.Error(err))
						return
					}
					req := &queue.Request{
						Source:        local,
						SourceKind:    queue.SourceFile,
						LocalPath:     local,
						OutputName:    ingest.NameFromSource(local),
						OutputDir:     cfg.Paths.OutputDir,
						ProjectFolder: cfg.Organize.ProjectFolders,
						MoveOriginal:  cfg.Organize.MoveOriginal,
					}
					if _, err := store.Enqueue(runCtx, req); err != nil {
						logger.Error("failed to queue dropped file", logging.String("path", path), logging.Error(err))
						return
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Queued from drop folder: %s\n", path)
				})

				fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", cfg.Watch.Dir)
				return watcher.Run(runCtx)
			})
		},
	}
}
