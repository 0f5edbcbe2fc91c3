// Package notifications pushes episode lifecycle events to ntfy.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podforge/internal/config"
)

const userAgent = "Podforge/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyJobStarted(ctx context.Context, topic string) error
	NotifyEpisodePublished(ctx context.Context, title string, number int, duration time.Duration) error
	NotifyJobFailed(ctx context.Context, err error, contextLabel string) error
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
	endpoint := topic
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://ntfy.sh/" + endpoint
	}

	return &ntfyService{
		endpoint:   endpoint,
		client:     &http.Client{Timeout: timeout},
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	completion bool
	errors     bool
}

func (n *ntfyService) NotifyJobStarted(ctx context.Context, topic string) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "uploaded documents"
	}
	data := payload{
		title:   "Podforge - Generation Started",
		message: fmt.Sprintf("Generating an episode from %s", topic),
		tags:    []string{"podforge", "job", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEpisodePublished(ctx context.Context, title string, number int, duration time.Duration) error {
	if !n.completion {
		return nil
	}
	title = strings.TrimSpace(title)
	data := payload{
		title:    "Podforge - Episode Ready",
		message:  fmt.Sprintf("Episode %d published: %s (%s)", number, title, duration.Round(time.Second)),
		tags:     []string{"podforge", "episode", "published"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Generation failed")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Podforge - Error",
		message:  builder.String(),
		tags:     []string{"podforge", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Podforge - Test",
		message:  "Notification system test",
		tags:     []string{"podforge", "test"},
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

func (noopService) NotifyJobStarted(context.Context, string) error { return nil }

func (noopService) NotifyEpisodePublished(context.Context, string, int, time.Duration) error {
	return nil
}

func (noopService) NotifyJobFailed(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
