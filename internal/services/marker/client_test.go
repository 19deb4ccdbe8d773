package marker

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"markerq/internal/services"
)

type stubExecutor struct {
	binary string
	args   []string
	lines  []string
	err    error
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	s.binary = binary
	s.args = args
	for _, line := range s.lines {
		if onLine != nil {
			onLine(line)
		}
	}
	return s.err
}

func TestConvertBuildsExpectedArgs(t *testing.T) {
	stub := &stubExecutor{lines: []string{"Loading model", "Saved markdown"}}
	client, err := New("marker_single", 60, WithExecutor(stub))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	outputDir := t.TempDir()
	var seen []string
	err = client.Convert(context.Background(), Invocation{
		SourcePath: "/docs/report.pdf",
		OutputDir:  outputDir,
	}, func(line string) { seen = append(seen, line) })
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if stub.binary != "marker_single" {
		t.Fatalf("binary = %q", stub.binary)
	}
	want := []string{"/docs/report.pdf", "--output_dir", outputDir}
	if len(stub.args) != len(want) {
		t.Fatalf("args = %v, want %v", stub.args, want)
	}
	for i := range want {
		if stub.args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q", i, stub.args[i], want[i])
		}
	}
	if len(seen) != 2 || seen[1] != "Saved markdown" {
		t.Fatalf("unexpected forwarded lines: %v", seen)
	}
}

func TestConvertTranslatesPageRangeToZeroBased(t *testing.T) {
	stub := &stubExecutor{}
	client, err := New("marker_single", 60, WithExecutor(stub))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = client.Convert(context.Background(), Invocation{
		SourcePath: "/docs/report.pdf",
		OutputDir:  t.TempDir(),
		FirstPage:  3,
		LastPage:   9,
	}, nil)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	joined := strings.Join(stub.args, " ")
	if !strings.Contains(joined, "--page_range 2-8") {
		t.Fatalf("expected zero-based page range in args: %v", stub.args)
	}
}

func TestConvertMissingBinaryIsLaunchError(t *testing.T) {
	stub := &stubExecutor{err: exec.ErrNotFound}
	client, err := New("marker_single", 60, WithExecutor(stub))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = client.Convert(context.Background(), Invocation{
		SourcePath: "/docs/report.pdf",
		OutputDir:  t.TempDir(),
	}, nil)
	if !errors.Is(err, services.ErrLaunch) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if !strings.Contains(err.Error(), "marker-pdf") {
		t.Fatalf("expected install guidance in error, got %v", err)
	}
}

func TestConvertFailureIsConversionError(t *testing.T) {
	stub := &stubExecutor{err: errors.New("boom")}
	client, err := New("marker_single", 60, WithExecutor(stub))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = client.Convert(context.Background(), Invocation{
		SourcePath: "/docs/report.pdf",
		OutputDir:  t.TempDir(),
	}, nil)
	if !errors.Is(err, services.ErrConversion) {
		t.Fatalf("expected conversion error, got %v", err)
	}
}

func TestConvertCancelledContextPassesThrough(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubExecutor{err: context.Canceled}
	client, err := New("marker_single", 60, WithExecutor(stub))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = client.Convert(ctx, Invocation{
		SourcePath: "/docs/report.pdf",
		OutputDir:  t.TempDir(),
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, services.ErrConversion) {
		t.Fatalf("cancellation must not be reported as a conversion failure: %v", err)
	}
}

func TestCommandLineQuotesPathsWithSpaces(t *testing.T) {
	client, err := New("marker_single", 60)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	line := client.CommandLine(Invocation{
		SourcePath: "/docs/annual report.pdf",
		OutputDir:  "/out/raw",
		FirstPage:  1,
		LastPage:   5,
	})
	if !strings.Contains(line, `"/docs/annual report.pdf"`) {
		t.Fatalf("expected quoted source path, got %q", line)
	}
	if !strings.Contains(line, "--page_range 0-4") {
		t.Fatalf("expected page range flag, got %q", line)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  ", 60); err == nil {
		t.Fatal("expected error for blank binary")
	}
}
