package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"podforge/internal/api"
)

func executeCommand(t *testing.T, server string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	if server != "" {
		args = append(args, "--server", server)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEpisodesCommandRendersTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/episodes" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(api.EpisodeListResponse{Episodes: []api.EpisodeView{{
			Number:          1,
			Title:           "Pilot",
			DurationSeconds: 125,
			SizeBytes:       2048,
			PublishedAt:     time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}}})
	}))
	defer server.Close()

	out, err := executeCommand(t, server.URL, "episodes")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	if !strings.Contains(out, "Pilot") || !strings.Contains(out, "2:05") {
		t.Fatalf("unexpected table output:\n%s", out)
	}
}

func TestStatusCommandUnknownJob(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "job not found"})
	}))
	defer server.Close()

	_, err := executeCommand(t, server.URL, "status", "missing")
	if err == nil || !strings.Contains(err.Error(), "job not found") {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGenerateCommandPrintsJobID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(api.SubmitResponse{JobID: "abc-123"})
	}))
	defer server.Close()

	out, err := executeCommand(t, server.URL, "generate", "ocean", "currents")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(out, "abc-123") {
		t.Fatalf("job id missing from output:\n%s", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := executeCommand(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("output should mention %s:\n%s", target, out)
	}

	// Second run without --overwrite must refuse.
	if _, err := executeCommand(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config already exists")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatBytes(512); got != "512 B" {
		t.Fatalf("formatBytes(512) = %q", got)
	}
	if got := formatBytes(1536); got != "1.5 KiB" {
		t.Fatalf("formatBytes(1536) = %q", got)
	}
	if got := formatDuration(65); got != "1:05" {
		t.Fatalf("formatDuration(65) = %q", got)
	}
	if got := formatTimestamp(time.Time{}); got != "-" {
		t.Fatalf("formatTimestamp(zero) = %q", got)
	}
}

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("State", statusOK, "completed", false)
	if !strings.Contains(plain, "[OK] completed") {
		t.Fatalf("unexpected line: %q", plain)
	}
	colored := renderStatusLine("State", statusError, "boom", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected ANSI wrapping: %q", colored)
	}
}
