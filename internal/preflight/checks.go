package preflight

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckConverter verifies the converter binary resolves on PATH.
func CheckConverter(binary string) Result {
	const name = "Converter"
	if binary == "" {
		return Result{Name: name, Detail: "converter binary not configured"}
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found; install marker-pdf and ensure it is on PATH", binary)}
	}
	return Result{Name: name, Passed: true, Detail: resolved}
}

// CheckDiskSpace verifies the filesystem holding path has at least minFreeMiB
// available. A zero minimum passes as long as the filesystem is readable.
func CheckDiskSpace(name, path string, minFreeMiB int64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	freeMiB := int64(stat.Bavail) * stat.Bsize / (1024 * 1024)
	if minFreeMiB > 0 && freeMiB < minFreeMiB {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%d MiB free, %d MiB required)", path, freeMiB, minFreeMiB)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, freeMiB)}
}
