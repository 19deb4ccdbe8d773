package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"markerq/internal/config"
	"markerq/internal/ingest"
	"markerq/internal/queue"
)

type enqueueOptions struct {
	name         string
	pages        string
	outputDir    string
	favorite     string
	flat         bool
	moveOriginal bool
}

func addEnqueueFlags(cmd *cobra.Command, opts *enqueueOptions) {
	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Output name (single source only; defaults to the file name)")
	cmd.Flags().StringVarP(&opts.pages, "pages", "p", "", "Page range to convert, 1-based inclusive (e.g. 3-9)")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "Output directory (defaults to the configured one)")
	cmd.Flags().StringVarP(&opts.favorite, "favorite", "f", "", "Use a favorite output directory by label")
	cmd.Flags().BoolVar(&opts.flat, "flat", false, "Place output directly in the output directory instead of a project folder")
	cmd.Flags().BoolVar(&opts.moveOriginal, "move-original", false, "Move the source PDF into the project folder")
}

func (c *commandContext) resolveOutputDir(opts enqueueOptions) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	if label := strings.TrimSpace(opts.favorite); label != "" {
		favs, err := c.favoritesStore()
		if err != nil {
			return "", err
		}
		dir, ok := favs.Resolve(label)
		if !ok {
			return "", fmt.Errorf("unknown favorite %q (see `markerq fav list`)", label)
		}
		return dir, nil
	}
	if dir := strings.TrimSpace(opts.outputDir); dir != "" {
		return config.ExpandPath(dir)
	}
	return cfg.Paths.OutputDir, nil
}

func (c *commandContext) enqueueSources(cmd *cobra.Command, store *queue.Store, sources []string, opts enqueueOptions) ([]*queue.Request, error) {
	if len(sources) == 0 {
		return nil, errors.New("at least one PDF path or URL is required")
	}
	if opts.name != "" && len(sources) > 1 {
		return nil, errors.New("--name only applies to a single source")
	}

	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	pages, err := queue.ParsePageRange(opts.pages)
	if err != nil {
		return nil, err
	}
	outputDir, err := c.resolveOutputDir(opts)
	if err != nil {
		return nil, err
	}

	projectFolder := cfg.Organize.ProjectFolders && !opts.flat
	moveOriginal := opts.moveOriginal || cfg.Organize.MoveOriginal

	var queued []*queue.Request
	for _, source := range sources {
		req := &queue.Request{
			Source:        source,
			OutputDir:     outputDir,
			Pages:         pages,
			ProjectFolder: projectFolder,
			MoveOriginal:  moveOriginal,
		}

		if ingest.IsURL(source) {
			local, err := ingest.NewDownloader(cfg).Download(cmd.Context(), source)
			if err != nil {
				return queued, err
			}
			req.SourceKind = queue.SourceURL
			req.LocalPath = local
		} else {
			local, err := ingest.ValidateSource(source)
			if err != nil {
				return queued, err
			}
			req.Source = local
			req.SourceKind = queue.SourceFile
			req.LocalPath = local
		}

		req.OutputName = opts.name
		if req.OutputName == "" {
			req.OutputName = ingest.NameFromSource(source)
		}

		stored, err := store.Enqueue(cmd.Context(), req)
		if err != nil {
			return queued, err
		}
		queued = append(queued, stored)
		fmt.Fprintf(cmd.OutOrStdout(), "Queued #%d: %s (pages %s) -> %s\n", stored.ID, stored.OutputName, stored.Pages, stored.OutputDir)
	}
	return queued, nil
}
