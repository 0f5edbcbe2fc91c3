package notifications_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"podforge/internal/config"
	"podforge/internal/notifications"
)

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""

	svc := notifications.NewService(&cfg)
	if err := svc.NotifyEpisodePublished(context.Background(), "T", 1, time.Minute); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
	if err := svc.NotifyJobFailed(context.Background(), errors.New("x"), "synthesis"); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestPublishedNotificationCarriesHeaders(t *testing.T) {
	var gotTitle, gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyEpisodePublished(context.Background(), "Deep Dive", 7, 95*time.Second); err != nil {
		t.Fatalf("NotifyEpisodePublished returned error: %v", err)
	}
	if gotTitle != "Podforge - Episode Ready" {
		t.Fatalf("unexpected title: %q", gotTitle)
	}
	if gotPriority != "high" {
		t.Fatalf("unexpected priority: %q", gotPriority)
	}
}

func TestCompletionNotificationsCanBeDisabled(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completion = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyEpisodePublished(context.Background(), "T", 1, time.Minute); err != nil {
		t.Fatalf("NotifyEpisodePublished returned error: %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no notification, got %d calls", calls)
	}
}

func TestFailureResponseSurfacesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
