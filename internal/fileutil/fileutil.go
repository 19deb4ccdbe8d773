package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/text/unicode/norm"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// MoveFile renames src to dst, falling back to copy-and-remove when the
// rename crosses filesystem boundaries.
func MoveFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// MoveAll moves a file or directory tree from src to dst with the same
// cross-filesystem fallback as MoveFile.
func MoveAll(src, dst string) error {
	if src == dst {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	info, statErr := os.Stat(src)
	if statErr != nil {
		return statErr
	}
	if !info.IsDir() {
		if err := CopyFileMode(src, dst, info.Mode().Perm()); err != nil {
			return err
		}
		return os.Remove(src)
	}
	if err := copyTree(src, dst); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		return CopyFileMode(path, target, info.Mode().Perm())
	})
}

// SanitizeName normalizes a document name for use as a file or directory
// name. Unicode is NFC-normalized, path separators and other characters
// that break file names are replaced, and surrounding whitespace is
// trimmed.
func SanitizeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", "*", "-", "?", "", "\"", "", "<", "", ">", "", "|", "", "\x00", "")
	name = strings.TrimSpace(replacer.Replace(name))
	return strings.Trim(name, ". ")
}

// UniquePath returns path unchanged when nothing exists there, otherwise
// the first "name (N)" variant that is free, starting at 2.
func UniquePath(path string) (string, error) {
	if free, err := pathFree(path); err != nil {
		return "", err
	} else if free {
		return path, nil
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	return nextFree(dir, stem, ext)
}

// UniqueDir behaves like UniquePath for directories, never splitting an
// extension out of the name.
func UniqueDir(path string) (string, error) {
	if free, err := pathFree(path); err != nil {
		return "", err
	} else if free {
		return path, nil
	}
	return nextFree(filepath.Dir(path), filepath.Base(path), "")
}

func nextFree(dir, stem, ext string) (string, error) {
	const maxAttempts = 10000
	for n := 2; n < maxAttempts; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		free, err := pathFree(candidate)
		if err != nil {
			return "", err
		}
		if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted name slots for %s in %s", stem, dir)
}

func pathFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}
