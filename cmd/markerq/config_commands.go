package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"markerq/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.WriteSample(target); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the file to set paths.output_dir before queueing conversions.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			path, exists := ctx.configSource()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults shown")
			}

			rows := [][]string{
				{"paths.output_dir", cfg.Paths.OutputDir},
				{"paths.staging_dir", cfg.Paths.StagingDir},
				{"paths.log_dir", cfg.Paths.LogDir},
				{"paths.favorites_path", cfg.Paths.FavoritesPath},
				{"converter.binary", cfg.Converter.Binary},
				{"converter.timeout_seconds", strconv.Itoa(cfg.Converter.TimeoutSeconds)},
				{"organize.project_folders", yesNo(cfg.Organize.ProjectFolders)},
				{"organize.move_original", yesNo(cfg.Organize.MoveOriginal)},
				{"download.timeout_seconds", strconv.Itoa(cfg.Download.TimeoutSeconds)},
				{"watch.dir", cfg.Watch.Dir},
				{"watch.settle_seconds", strconv.Itoa(cfg.Watch.SettleSeconds)},
				{"workflow.queue_poll_interval", strconv.Itoa(cfg.Workflow.QueuePollInterval)},
				{"workflow.error_retry_interval", strconv.Itoa(cfg.Workflow.ErrorRetryInterval)},
				{"workflow.min_free_space_mib", strconv.Itoa(cfg.Workflow.MinFreeSpaceMiB)},
				{"notifications.ntfy_topic", cfg.Notifications.NtfyTopic},
				{"logging.format", cfg.Logging.Format},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}
