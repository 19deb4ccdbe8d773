package ingest

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"markerq/internal/config"
	"markerq/internal/services"
)

// IsURL reports whether the source string looks like a downloadable URL.
func IsURL(source string) bool {
	source = strings.TrimSpace(source)
	parsed, err := url.Parse(source)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// ValidateSource checks that a local source exists and is a PDF, returning
// the expanded absolute path.
func ValidateSource(source string) (string, error) {
	expanded, err := config.ExpandPath(source)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "ingest", "expand path", "cannot expand source path", err)
	}
	info, err := os.Stat(expanded)
	if errors.Is(err, os.ErrNotExist) {
		return "", services.Wrap(services.ErrValidation, "ingest", "stat source", fmt.Sprintf("source not found: %s", expanded), err)
	}
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "ingest", "stat source", "cannot inspect source", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrValidation, "ingest", "validate source", fmt.Sprintf("source is a directory: %s", expanded), nil)
	}
	if !strings.EqualFold(filepath.Ext(expanded), ".pdf") {
		return "", services.Wrap(services.ErrValidation, "ingest", "validate source", fmt.Sprintf("source is not a PDF: %s", expanded), nil)
	}
	return expanded, nil
}

// NameFromSource derives a default output name from a local path or URL.
func NameFromSource(source string) string {
	source = strings.TrimSpace(source)
	base := filepath.Base(source)
	if IsURL(source) {
		if parsed, err := url.Parse(source); err == nil {
			base = path.Base(parsed.Path)
		}
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == "/" {
		return "document"
	}
	return name
}
