package preflight_test

import (
	"os"
	"path/filepath"
	"testing"

	"markerq/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDirectoryAccess("Output directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for writable dir: %+v", result)
	}

	result = preflight.CheckDirectoryAccess("Output directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Output directory", file)
	if result.Passed {
		t.Fatalf("expected failure for non-directory: %+v", result)
	}
}

func TestCheckConverterMissingBinary(t *testing.T) {
	result := preflight.CheckConverter("definitely-not-a-real-binary-4891")
	if result.Passed {
		t.Fatalf("expected failure for missing binary: %+v", result)
	}
	if result.Detail == "" {
		t.Fatal("expected guidance detail for missing binary")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()

	result := preflight.CheckDiskSpace("Disk space", dir, 0)
	if !result.Passed {
		t.Fatalf("expected pass with no minimum: %+v", result)
	}

	result = preflight.CheckDiskSpace("Disk space", filepath.Join(dir, "missing"), 1)
	if result.Passed {
		t.Fatalf("expected failure for missing path: %+v", result)
	}
}

func TestAllPassed(t *testing.T) {
	passing := []preflight.Result{{Name: "a", Passed: true}, {Name: "b", Passed: true}}
	if !preflight.AllPassed(passing) {
		t.Fatal("expected AllPassed for passing set")
	}
	mixed := append(passing, preflight.Result{Name: "c"})
	if preflight.AllPassed(mixed) {
		t.Fatal("expected failure for mixed set")
	}
}
