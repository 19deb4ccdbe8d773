package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"markerq/internal/config"
	"markerq/internal/fileutil"
	"markerq/internal/logging"
	"markerq/internal/queue"
	"markerq/internal/services"
)

// Organizer arranges converter output into its final layout.
type Organizer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New constructs an organizer.
func New(cfg *config.Config, logger *slog.Logger) *Organizer {
	return &Organizer{cfg: cfg, logger: logging.NewComponentLogger(logger, "organizer")}
}

// Organize moves the raw converter output for req into its final location
// and returns that location. Re-running after a prior partial failure is
// safe: output already in its expected final state is left alone.
func (o *Organizer) Organize(ctx context.Context, req *queue.Request, rawOutputDir string) (string, error) {
	logger := logging.WithContext(ctx, o.logger)

	name := fileutil.SanitizeName(req.OutputName)
	if name == "" {
		name = "document"
	}
	outputDir := strings.TrimSpace(req.OutputDir)
	if outputDir == "" {
		outputDir = o.cfg.Paths.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "ensure output dir", "cannot create output directory", err)
	}

	if req.ProjectFolder {
		return o.organizeProject(ctx, logger, req, rawOutputDir, outputDir, name)
	}
	return o.organizeFlat(logger, rawOutputDir, outputDir, name)
}

func (o *Organizer) organizeProject(ctx context.Context, logger *slog.Logger, req *queue.Request, rawOutputDir, outputDir, name string) (string, error) {
	projectDir := filepath.Join(outputDir, name)
	markerDir := filepath.Join(projectDir, name+"_marker_output")

	if organizedMarkdownExists(markerDir, name) {
		logger.Info("output already organized", logging.String("project_dir", projectDir))
		if err := o.placeOriginal(ctx, req, projectDir, name); err != nil {
			return "", err
		}
		return projectDir, nil
	}

	if _, err := os.Stat(projectDir); err == nil {
		unique, uniqErr := fileutil.UniqueDir(projectDir)
		if uniqErr != nil {
			return "", services.Wrap(services.ErrFilesystem, "organizing", "resolve project dir", "cannot resolve unique project folder name", uniqErr)
		}
		logger.Info("project folder exists, using unique name",
			logging.String("requested", projectDir),
			logging.String("chosen", unique),
		)
		projectDir = unique
		name = filepath.Base(projectDir)
		markerDir = filepath.Join(projectDir, name+"_marker_output")
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "inspect project dir", "cannot inspect project folder", err)
	}

	content, err := contentRoot(rawOutputDir)
	if err != nil {
		return "", err
	}
	if err := fileutil.MoveAll(content, markerDir); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "move converter output", "cannot move converter output into project folder", err)
	}
	if content != rawOutputDir {
		_ = os.RemoveAll(rawOutputDir)
	}
	if err := renameMarkdown(markerDir, name); err != nil {
		return "", err
	}
	if err := o.placeOriginal(ctx, req, projectDir, name); err != nil {
		return "", err
	}

	logger.Info("organized into project folder", logging.String("project_dir", projectDir))
	return projectDir, nil
}

func (o *Organizer) organizeFlat(logger *slog.Logger, rawOutputDir, outputDir, name string) (string, error) {
	finalMarkdown := filepath.Join(outputDir, name+".md")

	if _, err := os.Stat(rawOutputDir); errors.Is(err, os.ErrNotExist) {
		if _, mdErr := os.Stat(finalMarkdown); mdErr == nil {
			logger.Info("output already organized", logging.String("markdown", finalMarkdown))
			return finalMarkdown, nil
		}
		return "", services.Wrap(services.ErrFilesystem, "organizing", "locate converter output", "converter output directory missing", err)
	}

	content, err := contentRoot(rawOutputDir)
	if err != nil {
		return "", err
	}
	markdown, err := findMarkdown(content)
	if err != nil {
		return "", err
	}
	stem := strings.TrimSuffix(filepath.Base(markdown), filepath.Ext(markdown))

	if _, err := os.Stat(finalMarkdown); err == nil {
		unique, uniqErr := fileutil.UniquePath(finalMarkdown)
		if uniqErr != nil {
			return "", services.Wrap(services.ErrFilesystem, "organizing", "resolve output name", "cannot resolve unique output name", uniqErr)
		}
		name = strings.TrimSuffix(filepath.Base(unique), ".md")
		finalMarkdown = unique
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "inspect output name", "cannot inspect output location", err)
	}

	entries, err := os.ReadDir(content)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "read converter output", "cannot read converter output directory", err)
	}
	for _, entry := range entries {
		src := filepath.Join(content, entry.Name())
		target := entry.Name()
		if strings.HasPrefix(target, stem) {
			target = name + strings.TrimPrefix(target, stem)
		}
		// Entries without the document stem (the images directory, loose
		// figures) can collide with a previous conversion into the same
		// directory; they get their own unique names rather than landing
		// on top of existing files.
		dst := filepath.Join(outputDir, target)
		if entry.IsDir() {
			dst, err = fileutil.UniqueDir(dst)
		} else {
			dst, err = fileutil.UniquePath(dst)
		}
		if err != nil {
			return "", services.Wrap(services.ErrFilesystem, "organizing", "resolve output name", "cannot resolve unique name for converter output", err)
		}
		if err := fileutil.MoveAll(src, dst); err != nil {
			return "", services.Wrap(services.ErrFilesystem, "organizing", "move converter output", "cannot move converter output", err)
		}
	}
	_ = os.RemoveAll(rawOutputDir)

	logger.Info("organized output", logging.String("markdown", finalMarkdown))
	return finalMarkdown, nil
}

// placeOriginal moves the source document into the project folder when the
// request asks for it. URL downloads are copied instead so the staging
// cleanup still owns the temp file.
func (o *Organizer) placeOriginal(ctx context.Context, req *queue.Request, projectDir, name string) error {
	if !req.MoveOriginal {
		return nil
	}
	source := strings.TrimSpace(req.LocalPath)
	if source == "" {
		return nil
	}
	target := filepath.Join(projectDir, name+filepath.Ext(source))
	if _, err := os.Stat(target); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrFilesystem, "organizing", "inspect original target", "cannot inspect original document target", err)
	}
	if _, err := os.Stat(source); errors.Is(err, os.ErrNotExist) {
		// Nothing left to move; a prior run may already have consumed it.
		return nil
	}

	if req.SourceKind == queue.SourceURL {
		if err := fileutil.CopyFile(source, target); err != nil {
			return services.Wrap(services.ErrFilesystem, "organizing", "copy original", "cannot copy downloaded document into project folder", err)
		}
		return nil
	}
	if err := fileutil.MoveFile(source, target); err != nil {
		return services.Wrap(services.ErrFilesystem, "organizing", "move original", "cannot move original document into project folder", err)
	}
	return nil
}

// contentRoot unwraps the single subdirectory marker_single creates under
// its output directory, so callers see the markdown and images directly.
func contentRoot(rawOutputDir string) (string, error) {
	entries, err := os.ReadDir(rawOutputDir)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "read converter output", "cannot read converter output directory", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			return rawOutputDir, nil
		}
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(rawOutputDir, entries[0].Name()), nil
	}
	return rawOutputDir, nil
}

func findMarkdown(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "organizing", "read converter output", "cannot read converter output directory", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			return filepath.Join(dir, entry.Name()), nil
		}
	}
	return "", services.Wrap(services.ErrConversion, "organizing", "locate markdown", fmt.Sprintf("no markdown produced in %s", dir), nil)
}

func renameMarkdown(markerDir, name string) error {
	markdown, err := findMarkdown(markerDir)
	if err != nil {
		return err
	}
	target := filepath.Join(markerDir, name+".md")
	if markdown == target {
		return nil
	}
	if err := os.Rename(markdown, target); err != nil {
		return services.Wrap(services.ErrFilesystem, "organizing", "rename markdown", "cannot rename markdown output", err)
	}
	return nil
}

func organizedMarkdownExists(markerDir, name string) bool {
	_, err := os.Stat(filepath.Join(markerDir, name+".md"))
	return err == nil
}
