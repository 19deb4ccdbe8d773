package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"markerq/internal/config"
)

const userAgent = "markerq/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyBatchStarted(ctx context.Context, count int) error
	NotifyBatchCompleted(ctx context.Context, succeeded, failed, cancelled int, duration time.Duration) error
	NotifyRequestSucceeded(ctx context.Context, name, finalPath string) error
	NotifyRequestFailed(ctx context.Context, name, reason string) error
	NotifyQueuePaused(ctx context.Context, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyBatchStarted(ctx context.Context, count int) error {
	data := payload{
		title:   "markerq - Batch Started",
		message: fmt.Sprintf("Started converting %d queued documents", count),
		tags:    []string{"markerq", "batch", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBatchCompleted(ctx context.Context, succeeded, failed, cancelled int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title, message string
	switch {
	case failed == 0 && cancelled == 0:
		title = "markerq - Batch Complete"
		message = fmt.Sprintf("Converted %d documents in %s", succeeded, durationText)
	default:
		title = "markerq - Batch Complete (with issues)"
		message = fmt.Sprintf("%d succeeded, %d failed, %d cancelled in %s", succeeded, failed, cancelled, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"markerq", "batch", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestSucceeded(ctx context.Context, name, finalPath string) error {
	name = strings.TrimSpace(name)
	message := fmt.Sprintf("Converted: %s", name)
	if finalPath = strings.TrimSpace(finalPath); finalPath != "" {
		message = fmt.Sprintf("%s\nOutput: %s", message, filepath.Base(finalPath))
	}
	data := payload{
		title:   "markerq - Converted",
		message: message,
		tags:    []string{"markerq", "convert", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestFailed(ctx context.Context, name, reason string) error {
	name = strings.TrimSpace(name)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	data := payload{
		title:    "markerq - Conversion Failed",
		message:  fmt.Sprintf("Failed: %s\n%s", name, reason),
		tags:     []string{"markerq", "convert", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueuePaused(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "resource exhaustion"
	}
	data := payload{
		title:    "markerq - Queue Paused",
		message:  fmt.Sprintf("Queue paused: %s", reason),
		tags:     []string{"markerq", "queue", "paused"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "markerq - Test",
		message:  "Notification system test",
		tags:     []string{"markerq", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBatchStarted(context.Context, int) error { return nil }
func (noopService) NotifyBatchCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}
func (noopService) NotifyRequestSucceeded(context.Context, string, string) error { return nil }
func (noopService) NotifyRequestFailed(context.Context, string, string) error    { return nil }
func (noopService) NotifyQueuePaused(context.Context, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
