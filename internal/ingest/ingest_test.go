package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"markerq/internal/config"
	"markerq/internal/ingest"
	"markerq/internal/logging"
	"markerq/internal/services"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Watch.Dir = filepath.Join(base, "drop")
	cfg.Watch.SettleSeconds = 1
	return &cfg
}

func TestIsURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com/paper.pdf", true},
		{"http://example.com/paper.pdf", true},
		{"/home/user/paper.pdf", false},
		{"file:///paper.pdf", false},
		{"paper.pdf", false},
	}
	for _, tc := range cases {
		if got := ingest.IsURL(tc.in); got != tc.want {
			t.Errorf("IsURL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestValidateSource(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdf, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := ingest.ValidateSource(pdf)
	if err != nil {
		t.Fatalf("ValidateSource failed: %v", err)
	}
	if got != pdf {
		t.Fatalf("ValidateSource = %q, want %q", got, pdf)
	}

	if _, err := ingest.ValidateSource(filepath.Join(dir, "missing.pdf")); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing file, got %v", err)
	}

	txt := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(txt, []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if _, err := ingest.ValidateSource(txt); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-PDF, got %v", err)
	}
}

func TestNameFromSource(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/docs/Annual Report.pdf", "Annual Report"},
		{"https://example.com/files/paper.pdf?version=2", "paper"},
		{"", "document"},
	}
	for _, tc := range cases {
		if got := ingest.NameFromSource(tc.in); got != tc.want {
			t.Errorf("NameFromSource(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDownloadWritesStagingFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.7 body"))
	}))
	defer server.Close()

	cfg := testConfig(t)
	downloader := ingest.NewDownloader(cfg)

	local, err := downloader.Download(context.Background(), server.URL+"/files/paper.pdf")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if filepath.Dir(local) != cfg.Paths.StagingDir {
		t.Fatalf("download landed outside staging dir: %q", local)
	}
	if !strings.HasSuffix(local, ".pdf") || !strings.Contains(filepath.Base(local), "paper") {
		t.Fatalf("unexpected staging name: %q", local)
	}
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("read staging file failed: %v", err)
	}
	if string(data) != "%PDF-1.7 body" {
		t.Fatalf("staging content = %q", data)
	}
}

func TestDownloadSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	cfg := testConfig(t)
	downloader := ingest.NewDownloader(cfg)

	_, err := downloader.Download(context.Background(), server.URL+"/missing.pdf")
	if !errors.Is(err, services.ErrDownload) {
		t.Fatalf("expected download error, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected status code in error, got %v", err)
	}

	entries, readErr := os.ReadDir(cfg.Paths.StagingDir)
	if readErr != nil {
		t.Fatalf("read staging dir failed: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("failed download left staging files: %v", entries)
	}
}

func TestDownloadRejectsLocalPath(t *testing.T) {
	cfg := testConfig(t)
	downloader := ingest.NewDownloader(cfg)
	if _, err := downloader.Download(context.Background(), "/docs/a.pdf"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWatcherEmitsSettledPDFs(t *testing.T) {
	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.Watch.Dir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	settled := make(chan string, 1)
	watcher := ingest.NewWatcher(cfg, logging.NewNop(), func(path string) {
		select {
		case settled <- path:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()

	// Give the watcher time to register before the file appears.
	time.Sleep(200 * time.Millisecond)

	dropped := filepath.Join(cfg.Watch.Dir, "incoming.pdf")
	if err := os.WriteFile(dropped, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case path := <-settled:
		if path != dropped {
			t.Fatalf("settled path = %q, want %q", path, dropped)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for settled file")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
