package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"markerq/internal/config"
)

func writeCLIConfig(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.FavoritesPath = filepath.Join(base, "favorites.toml")

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	configPath := filepath.Join(base, "config.toml")
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", configPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got:\n%s", want, output)
	}
}

func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestConfigInitWritesSample(t *testing.T) {
	configPath := writeCLIConfig(t)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, configPath, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCLI(t, configPath, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowHonorsConfigFlag(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config path: "+configPath)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	requireContains(t, out, cfg.Paths.OutputDir)
}

func TestAddThenQueueListAndRemove(t *testing.T) {
	configPath := writeCLIConfig(t)
	pdf := writePDF(t, t.TempDir(), "Quarterly Report.pdf")

	out, err := runCLI(t, configPath, "add", pdf, "--pages", "3-9")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	requireContains(t, out, "Queued #1: Quarterly Report (pages 3-9)")

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Quarterly Report")
	requireContains(t, out, "pending")

	out, err = runCLI(t, configPath, "queue", "remove", "1")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed request 1")

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list after remove: %v", err)
	}
	requireContains(t, out, "Queue is empty")
}

func TestAddRejectsMissingFile(t *testing.T) {
	configPath := writeCLIConfig(t)

	if _, err := runCLI(t, configPath, "add", filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected add of missing file to fail")
	}
}

func TestAddRejectsNameWithMultipleSources(t *testing.T) {
	configPath := writeCLIConfig(t)
	dir := t.TempDir()
	first := writePDF(t, dir, "a.pdf")
	second := writePDF(t, dir, "b.pdf")

	_, err := runCLI(t, configPath, "add", first, second, "--name", "Combined")
	if err == nil || !strings.Contains(err.Error(), "single source") {
		t.Fatalf("expected single-source error, got %v", err)
	}
}

func TestFavoriteLifecycle(t *testing.T) {
	configPath := writeCLIConfig(t)
	favDir := t.TempDir()

	out, err := runCLI(t, configPath, "fav", "add", "papers", favDir)
	if err != nil {
		t.Fatalf("fav add: %v", err)
	}
	requireContains(t, out, `Saved favorite "papers"`)

	out, err = runCLI(t, configPath, "fav", "list")
	if err != nil {
		t.Fatalf("fav list: %v", err)
	}
	requireContains(t, out, "papers")
	requireContains(t, out, favDir)

	pdf := writePDF(t, t.TempDir(), "notes.pdf")
	out, err = runCLI(t, configPath, "add", pdf, "--favorite", "papers")
	if err != nil {
		t.Fatalf("add with favorite: %v", err)
	}
	requireContains(t, out, "-> "+favDir)

	out, err = runCLI(t, configPath, "fav", "remove", "papers")
	if err != nil {
		t.Fatalf("fav remove: %v", err)
	}
	requireContains(t, out, `Removed favorite "papers"`)

	if _, err := runCLI(t, configPath, "add", pdf, "--favorite", "papers"); err == nil {
		t.Fatal("expected unknown favorite to fail")
	}
}

func TestQueueCancelPending(t *testing.T) {
	configPath := writeCLIConfig(t)
	dir := t.TempDir()
	first := writePDF(t, dir, "one.pdf")
	second := writePDF(t, dir, "two.pdf")

	if _, err := runCLI(t, configPath, "add", first, second); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCLI(t, configPath, "queue", "cancel")
	if err != nil {
		t.Fatalf("queue cancel: %v", err)
	}
	requireContains(t, out, "Cancelled 2 pending requests")

	out, err = runCLI(t, configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Removed 2 requests")
}
