package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mixdown/internal/config"
)

// Job summarizes a finished mix job for notification text.
type Job struct {
	ID          string
	SourceA     string
	SourceB     string
	Duration    float64
	OutputBytes int
	Elapsed     time.Duration
	ErrorKind   string
}

// Service defines the notification surface exposed to the workflow.
type Service interface {
	NotifyJobCompleted(ctx context.Context, job Job) error
	NotifyJobFailed(ctx context.Context, job Job, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		userAgent:     cfg.Fetch.UserAgent,
		notifySuccess: cfg.Notifications.NotifySuccess,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	userAgent     string
	notifySuccess bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, job Job) error {
	if !n.notifySuccess {
		return nil
	}
	data := payload{
		title: "mixdown - Mix Complete",
		message: fmt.Sprintf("Mixed %s + %s\n%.1fs, %d bytes in %s\nJob %s",
			label(job.SourceA), label(job.SourceB), job.Duration, job.OutputBytes,
			job.Elapsed.Round(time.Millisecond), job.ID),
		tags: []string{"mixdown", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, job Job, err error) error {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Mix failed: %s + %s", label(job.SourceA), label(job.SourceB))
	if job.ErrorKind != "" {
		fmt.Fprintf(&builder, " (%s)", job.ErrorKind)
	}
	if err != nil {
		fmt.Fprintf(&builder, "\n%v", err)
	}
	fmt.Fprintf(&builder, "\nJob %s", job.ID)
	data := payload{
		title:    "mixdown - Error",
		message:  builder.String(),
		tags:     []string{"mixdown", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "mixdown - Test",
		message:  "Notification system test",
		tags:     []string{"mixdown", "test"},
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
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}
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

// label shortens a source URL or path to its last element.
func label(source string) string {
	source = strings.TrimRight(strings.TrimSpace(source), "/")
	if i := strings.LastIndexAny(source, "/\\"); i >= 0 && i < len(source)-1 {
		source = source[i+1:]
	}
	if q := strings.IndexAny(source, "?#"); q > 0 {
		source = source[:q]
	}
	if source == "" {
		return "(unnamed)"
	}
	return source
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, Job) error     { return nil }
func (noopService) NotifyJobFailed(context.Context, Job, error) error { return nil }
func (noopService) TestNotification(context.Context) error            { return nil }
