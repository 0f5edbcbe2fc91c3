package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podforge/internal/logging"
	"podforge/internal/services"
)

func TestPrettyHandlerFormatsComponentAndAttrs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pretty.log")

	logger, err := logging.New(logging.Options{
		Format: "pretty",
		Level:  "info",
		Paths:  []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "assembler")
	logger.Info("episode mixed", logging.String("title", "deep dive"), logging.Int("sections", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "INFO assembler: episode mixed") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, `title="deep dive"`) || !strings.Contains(line, "sections=3") {
		t.Fatalf("expected attrs in line, got %q", line)
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")

	logger, err := logging.New(logging.Options{
		Format: "pretty",
		Level:  "warn",
		Paths:  []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "suppressed") {
		t.Fatalf("expected info suppressed, got %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("expected warn line, got %q", content)
	}
}

func TestJSONHandlerEmitsLowercaseLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{
		Format: "json",
		Level:  "info",
		Paths:  []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Error("bed missing")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"level":"error"`) {
		t.Fatalf("unexpected JSON line: %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "logfmt"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWithContextAddsJobFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "ctx.log")

	logger, err := logging.New(logging.Options{
		Format: "pretty",
		Level:  "info",
		Paths:  []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-42")
	ctx = services.WithStage(ctx, "synthesis")
	logging.WithContext(ctx, logger).Info("utterance rendered")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	if !strings.Contains(line, "job_id=job-42") || !strings.Contains(line, "stage=synthesis") {
		t.Fatalf("expected context fields, got %q", line)
	}
}
