package tts_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"podforge/internal/services"
	"podforge/internal/services/tts"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *tts.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return tts.NewClient(tts.Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, tts.WithRetry(3, time.Millisecond, 5*time.Millisecond))
}

func TestSpeakReturnsAudioBytes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Write([]byte("RIFFfake"))
	})

	audio, err := client.Speak(context.Background(), "Hello there.", "alloy")
	if err != nil {
		t.Fatalf("Speak returned error: %v", err)
	}
	if string(audio) != "RIFFfake" {
		t.Fatalf("unexpected payload: %q", audio)
	}
}

func TestSpeakRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("audio"))
	})

	audio, err := client.Speak(context.Background(), "Retry me.", "alloy")
	if err != nil {
		t.Fatalf("Speak returned error: %v", err)
	}
	if string(audio) != "audio" {
		t.Fatalf("unexpected payload: %q", audio)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestSpeakClassifiesRejectionAsValidation(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unknown voice", http.StatusBadRequest)
	})

	_, err := client.Speak(context.Background(), "Bad voice.", "nope")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries for 4xx, got %d attempts", calls.Load())
	}
}

func TestSpeakClassifiesExhaustionAsExternal(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	_, err := client.Speak(context.Background(), "Down provider.", "alloy")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected external service marker, got %v", err)
	}
}

func TestSpeakRejectsEmptyInputLocally(t *testing.T) {
	client := tts.NewClient(tts.Config{BaseURL: "http://127.0.0.1:1", APIKey: "k", Model: "m"})
	_, err := client.Speak(context.Background(), "   ", "alloy")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSpeakRequiresAPIKey(t *testing.T) {
	client := tts.NewClient(tts.Config{BaseURL: "http://127.0.0.1:1", Model: "m"})
	_, err := client.Speak(context.Background(), "text", "alloy")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
