package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestCopyFilePreservesContent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.md")
	dst := filepath.Join(dir, "nested", "dst.md")
	writeFile(t, src, "# Title\n")

	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy failed: %v", err)
	}
	if string(data) != "# Title\n" {
		t.Fatalf("copy content = %q", data)
	}
}

func TestMoveFileRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "doc.md")
	dst := filepath.Join(dir, "moved", "doc.md")
	writeFile(t, src, "body")

	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source still present after move: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination missing after move: %v", err)
	}
}

func TestMoveAllMovesDirectoryTree(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "raw")
	writeFile(t, filepath.Join(src, "doc.md"), "# doc")
	writeFile(t, filepath.Join(src, "images", "fig_1.png"), "png")

	dst := filepath.Join(dir, "final", "doc_marker_output")
	if err := MoveAll(src, dst); err != nil {
		t.Fatalf("MoveAll failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, "images", "fig_1.png")); err != nil {
		t.Fatalf("nested file missing after move: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source tree still present: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Annual Report  ", "Annual Report"},
		{"notes/2024: draft?", "notes-2024- draft"},
		{"a<b>c|d", "abcd"},
		{"trailing dots...", "trailing dots"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUniquePathSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	taken := filepath.Join(dir, "Report.md")
	writeFile(t, taken, "x")
	writeFile(t, filepath.Join(dir, "Report (2).md"), "x")

	got, err := UniquePath(taken)
	if err != nil {
		t.Fatalf("UniquePath failed: %v", err)
	}
	if got != filepath.Join(dir, "Report (3).md") {
		t.Fatalf("UniquePath = %q", got)
	}

	free := filepath.Join(dir, "Other.md")
	got, err = UniquePath(free)
	if err != nil {
		t.Fatalf("UniquePath failed: %v", err)
	}
	if got != free {
		t.Fatalf("free path changed: %q", got)
	}
}

func TestUniqueDirKeepsDotsInName(t *testing.T) {
	dir := t.TempDir()
	taken := filepath.Join(dir, "v1.2 notes")
	if err := os.MkdirAll(taken, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}

	got, err := UniqueDir(taken)
	if err != nil {
		t.Fatalf("UniqueDir failed: %v", err)
	}
	if got != filepath.Join(dir, "v1.2 notes (2)") {
		t.Fatalf("UniqueDir = %q", got)
	}
}
