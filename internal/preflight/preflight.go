package preflight

import (
	"context"

	"markerq/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckConverter(cfg.Converter.Binary),
	}

	if cfg.Workflow.MinFreeSpaceMiB > 0 {
		results = append(results, CheckDiskSpace("Output disk space", cfg.Paths.OutputDir, int64(cfg.Workflow.MinFreeSpaceMiB)))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
