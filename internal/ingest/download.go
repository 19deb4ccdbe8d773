package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"markerq/internal/config"
	"markerq/internal/services"
)

// Downloader fetches URL sources into the staging directory before they are
// enqueued as local conversion requests.
type Downloader struct {
	stagingDir string
	userAgent  string
	client     *http.Client
}

// NewDownloader constructs a downloader from config.
func NewDownloader(cfg *config.Config) *Downloader {
	timeout := time.Duration(cfg.Download.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Downloader{
		stagingDir: cfg.Paths.StagingDir,
		userAgent:  cfg.Download.UserAgent,
		client:     &http.Client{Timeout: timeout},
	}
}

// Download fetches source into a staging file and returns the local path.
// Failures never leave a partial file behind.
func (d *Downloader) Download(ctx context.Context, source string) (string, error) {
	if !IsURL(source) {
		return "", services.Wrap(services.ErrValidation, "download", "validate url", fmt.Sprintf("not a downloadable URL: %s", source), nil)
	}
	if err := os.MkdirAll(d.stagingDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "download", "ensure staging dir", "cannot create staging directory", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "build request", "cannot build download request", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrDownload, "download", "fetch url", fmt.Sprintf("download failed for %s", source), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrDownload, "download", "fetch url", fmt.Sprintf("download failed for %s: HTTP %d", source, resp.StatusCode), nil)
	}

	target := filepath.Join(d.stagingDir, stagingFileName(source))
	out, err := os.Create(target)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "download", "create staging file", "cannot create staging file", err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		_ = os.Remove(target)
		return "", services.Wrap(services.ErrDownload, "download", "stream body", fmt.Sprintf("download interrupted for %s", source), err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return "", services.Wrap(services.ErrFilesystem, "download", "close staging file", "cannot finish staging file", err)
	}
	return target, nil
}

// stagingFileName keeps the URL's file stem for readability but prefixes a
// short unique ID so concurrent downloads of the same document never clash.
func stagingFileName(source string) string {
	stem := "document"
	if parsed, err := url.Parse(source); err == nil {
		base := path.Base(parsed.Path)
		if trimmed := strings.TrimSuffix(base, path.Ext(base)); trimmed != "" && trimmed != "." && trimmed != "/" {
			stem = trimmed
		}
	}
	return fmt.Sprintf("%s-%s.pdf", uuid.NewString()[:8], stem)
}
