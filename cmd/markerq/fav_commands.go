package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFavCommand(ctx *commandContext) *cobra.Command {
	favCmd := &cobra.Command{
		Use:   "fav",
		Short: "Manage favorite output directories",
	}

	favCmd.AddCommand(newFavListCommand(ctx))
	favCmd.AddCommand(newFavAddCommand(ctx))
	favCmd.AddCommand(newFavRemoveCommand(ctx))

	return favCmd
}

func newFavListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List favorite output directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := ctx.favoritesStore()
			if err != nil {
				return err
			}
			entries := favs.List()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No favorites yet (add one with `markerq fav add <label> <dir>`)")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{entry.Label, entry.Path})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Label", "Directory"}, rows, []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
}

func newFavAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <label> <dir>",
		Short: "Add or replace a favorite output directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := ctx.favoritesStore()
			if err != nil {
				return err
			}
			if err := favs.Add(args[0], args[1]); err != nil {
				return err
			}
			dir, _ := favs.Resolve(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Saved favorite %q -> %s\n", args[0], dir)
			return nil
		},
	}
}

func newFavRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <label>",
		Short: "Remove a favorite output directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			favs, err := ctx.favoritesStore()
			if err != nil {
				return err
			}
			removed, err := favs.Remove(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("no favorite named %q", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed favorite %q\n", args[0])
			return nil
		},
	}
}
