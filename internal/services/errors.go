package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/unix"
)

var (
	// ErrLaunch marks failures to start the external converter (missing or
	// unrunnable executable). No process was created.
	ErrLaunch = errors.New("launch error")
	// ErrConversion marks a converter run that started but exited non-zero.
	ErrConversion = errors.New("conversion error")
	// ErrDownload marks URL acquisition failures; the request never ran.
	ErrDownload = errors.New("download error")
	// ErrFilesystem marks organizer failures to create or move output.
	ErrFilesystem = errors.New("filesystem error")
	// ErrDiskFull marks resource exhaustion on the output volume. The
	// orchestrator pauses instead of failing the remaining queue.
	ErrDiskFull = errors.New("disk full")
	// ErrValidation marks rejected request inputs.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsPauseWorthy reports whether a failure should pause the orchestrator
// rather than fail the request, because every subsequent request would hit
// the same condition.
func IsPauseWorthy(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrDiskFull) || errors.Is(err, unix.ENOSPC)
}

// Reason extracts the human-readable portion of a wrapped failure for
// display next to a request's status. The sentinel prefix is stripped so
// the queue shows "convert: marker exited with code 1" rather than
// "conversion error: convert: ...".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{ErrLaunch, ErrConversion, ErrDownload, ErrFilesystem, ErrDiskFull, ErrValidation, ErrConfiguration, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
