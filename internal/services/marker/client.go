package marker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"markerq/internal/services"
)

// Invocation describes a single marker_single run. FirstPage and LastPage
// are 1-based and inclusive; zero values mean the whole document.
type Invocation struct {
	SourcePath string
	OutputDir  string
	FirstPage  int
	LastPage   int
}

// Converter defines the behaviour required by the workflow manager.
type Converter interface {
	Convert(ctx context.Context, inv Invocation, onLine func(string)) error
	CommandLine(inv Invocation) string
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps marker_single CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	exec    Executor
}

// New constructs a marker client.
func New(binary string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("marker binary required")
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Convert runs marker_single against the invocation's source document,
// forwarding each output line to onLine as it is produced. The returned
// error distinguishes launch failures (binary missing) from conversion
// failures (non-zero exit) so callers can report them differently.
func (c *Client) Convert(ctx context.Context, inv Invocation, onLine func(string)) error {
	if strings.TrimSpace(inv.SourcePath) == "" {
		return services.Wrap(services.ErrValidation, "convert", "validate invocation", "source path required", nil)
	}
	if strings.TrimSpace(inv.OutputDir) == "" {
		return services.Wrap(services.ErrValidation, "convert", "validate invocation", "output directory required", nil)
	}
	if err := os.MkdirAll(inv.OutputDir, 0o755); err != nil {
		return services.Wrap(services.ErrFilesystem, "convert", "create output directory", "cannot create raw output directory", err)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	err := c.exec.Run(runCtx, c.binary, c.args(inv), onLine)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return c.classify(err)
}

// CommandLine renders the invocation as a shell-style command string for
// echoing into conversion logs.
func (c *Client) CommandLine(inv Invocation) string {
	parts := append([]string{c.binary}, c.args(inv)...)
	for i, part := range parts {
		if strings.ContainsAny(part, " \t") {
			parts[i] = strconv.Quote(part)
		}
	}
	return strings.Join(parts, " ")
}

func (c *Client) args(inv Invocation) []string {
	args := []string{inv.SourcePath, "--output_dir", inv.OutputDir}
	if inv.FirstPage > 0 && inv.LastPage > 0 {
		// marker_single counts pages from zero.
		args = append(args, "--page_range", fmt.Sprintf("%d-%d", inv.FirstPage-1, inv.LastPage-1))
	}
	return args
}

func (c *Client) classify(err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		message := fmt.Sprintf("%s not found; install marker-pdf and ensure it is on PATH", c.binary)
		return services.Wrap(services.ErrLaunch, "convert", "start marker", message, err)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		message := fmt.Sprintf("exit code %d", exitErr.ExitCode())
		return services.Wrap(services.ErrConversion, "convert", "run marker", message, err)
	}
	return services.Wrap(services.ErrConversion, "convert", "run marker", "marker run failed", err)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forward := func(line string) {
		if onLine != nil {
			onLine(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	return cmd.Wait()
}
