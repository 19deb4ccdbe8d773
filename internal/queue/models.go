package queue

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status represents the lifecycle of a conversion request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// UserCancelReason is the error message set when a user cancels a request.
const UserCancelReason = "Cancelled by user"

// InterruptedReason is the error message set when a previous session died
// with the request still running.
const InterruptedReason = "Interrupted by session end"

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusSucceeded,
	StatusFailed,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is a final outcome.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// SourceKind distinguishes local files from URL downloads.
type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
)

// PageRange limits conversion scope. The zero value means all pages.
// Start and End are inclusive and 1-based.
type PageRange struct {
	Start int
	End   int
}

// All reports whether the range covers the whole document.
func (p PageRange) All() bool {
	return p.Start == 0 && p.End == 0
}

// Validate checks the 1-based inclusive bounds.
func (p PageRange) Validate() error {
	if p.All() {
		return nil
	}
	if p.Start < 1 {
		return fmt.Errorf("page range start must be >= 1, got %d", p.Start)
	}
	if p.End < p.Start {
		return fmt.Errorf("page range end %d precedes start %d", p.End, p.Start)
	}
	return nil
}

// String renders the range for storage and display ("all" or "3-9").
func (p PageRange) String() string {
	if p.All() {
		return "all"
	}
	return strconv.Itoa(p.Start) + "-" + strconv.Itoa(p.End)
}

// ParsePageRange parses "all" or "start-end" with 1-based inclusive bounds.
func ParsePageRange(value string) (PageRange, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == "all" {
		return PageRange{}, nil
	}
	start, end, ok := strings.Cut(trimmed, "-")
	if !ok {
		single, err := strconv.Atoi(start)
		if err != nil {
			return PageRange{}, fmt.Errorf("invalid page range %q", value)
		}
		r := PageRange{Start: single, End: single}
		return r, r.Validate()
	}
	startPage, err := strconv.Atoi(strings.TrimSpace(start))
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid page range start %q", value)
	}
	endPage, err := strconv.Atoi(strings.TrimSpace(end))
	if err != nil {
		return PageRange{}, fmt.Errorf("invalid page range end %q", value)
	}
	r := PageRange{Start: startPage, End: endPage}
	return r, r.Validate()
}

// Request represents one PDF (or URL) submitted for conversion plus its
// chosen output configuration, persisted in SQLite.
type Request struct {
	ID              int64
	Source          string
	SourceKind      SourceKind
	LocalPath       string
	OutputName      string
	OutputDir       string
	Pages           PageRange
	ProjectFolder   bool
	MoveOriginal    bool
	Status          Status
	ErrorMessage    string
	ProgressMessage string
	LogPath         string
	FinalPath       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetFailed marks the request as failed with the given human-readable reason.
func (r *Request) SetFailed(reason string) {
	r.Status = StatusFailed
	r.ErrorMessage = reason
	r.ProgressMessage = reason
}

// SetCancelled marks the request as cancelled without recording an error.
func (r *Request) SetCancelled() {
	r.Status = StatusCancelled
	r.ErrorMessage = ""
	r.ProgressMessage = UserCancelReason
}
