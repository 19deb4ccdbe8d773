package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"markerq/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification to the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				return fmt.Errorf("no ntfy topic configured; set notifications.ntfy_topic first")
			}
			if err := notifications.NewService(cfg).TestNotification(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent to %s\n", cfg.Notifications.NtfyTopic)
			return nil
		},
	}
}
