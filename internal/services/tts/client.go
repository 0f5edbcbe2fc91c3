// Package tts wraps an OpenAI-compatible speech synthesis endpoint.
//
// The client posts to /audio/speech and returns the raw WAV bytes the
// provider produces. Transport failures and throttling are retried with
// exponential backoff; 4xx responses classify as validation errors so callers
// can tell "service unreachable" apart from "invalid input".
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"podforge/internal/services"
)

const (
	defaultHTTPTimeout   = 2 * time.Minute
	defaultRetryAttempts = 3
	defaultRetryBase     = time.Second
	defaultRetryMax      = 10 * time.Second
)

// Config captures the runtime settings required to talk to a speech provider.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	TimeoutSeconds int
}

// Client calls an OpenAI-compatible /audio/speech endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client

	retryAttempts int
	retryBase     time.Duration
	retryMax      time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetry overrides the retry schedule.
func WithRetry(attempts int, base, max time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryBase = base
		c.retryMax = max
	}
}

// NewClient constructs a speech client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient:    &http.Client{Timeout: timeout},
		retryAttempts: defaultRetryAttempts,
		retryBase:     defaultRetryBase,
		retryMax:      defaultRetryMax,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("speech request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Speak renders text with the given voice and returns the provider's WAV
// payload.
func (c *Client) Speak(ctx context.Context, text, voice string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, services.Wrap(services.ErrValidation, "tts", "speak", "empty input text", nil)
	}
	if c.cfg.BaseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "speak", "base url required", nil)
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tts", "speak", "api key required", nil)
	}

	payload := speechRequest{
		Model:          c.cfg.Model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: "wav",
	}

	var lastErr error
	for attempt := 1; attempt <= c.attempts(); attempt++ {
		body, err := c.sendOnce(ctx, payload)
		if err == nil {
			return body, nil
		}
		lastErr = err

		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry {
			return nil, classify(err)
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, services.Wrap(services.ErrTimeout, "tts", "speak", "interrupted during backoff", err)
		}
	}
	return nil, classify(fmt.Errorf("failed after %d attempts: %w", c.attempts(), lastErr))
}

func (c *Client) sendOnce(ctx context.Context, payload speechRequest) ([]byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("speech request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/speech", bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("speech request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech request: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("speech request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: retryAfter}
	}
	if len(body) == 0 {
		return nil, errors.New("speech request: empty audio payload")
	}
	return body, nil
}

func (c *Client) retryDelay(ctx context.Context, err error, attempt int) (time.Duration, bool) {
	if attempt >= c.attempts() || ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			if statusErr.RetryAfter > 0 {
				return c.cap(statusErr.RetryAfter), true
			}
			return c.backoff(attempt), true
		default:
			return 0, false
		}
	}
	// Transport-level errors are worth retrying.
	return c.backoff(attempt), true
}

// classify maps a terminal error onto the shared taxonomy. Client-side HTTP
// statuses mean the request itself was bad; everything else means the
// provider was unreachable or misbehaving.
func classify(err error) error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
		statusErr.StatusCode != http.StatusRequestTimeout && statusErr.StatusCode != http.StatusTooManyRequests {
		return services.Wrap(services.ErrValidation, "tts", "speak", "provider rejected input", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "tts", "speak", "provider timed out", err)
	}
	return services.Wrap(services.ErrExternalService, "tts", "speak", "provider unavailable", err)
}

func (c *Client) attempts() int {
	if c.retryAttempts <= 0 {
		return 1
	}
	return c.retryAttempts
}

func (c *Client) backoff(attempt int) time.Duration {
	delay := c.retryBase
	for i := 1; i < attempt; i++ {
		if delay > c.retryMax/2 {
			return c.retryMax
		}
		delay *= 2
	}
	return c.cap(delay)
}

func (c *Client) cap(delay time.Duration) time.Duration {
	if c.retryMax > 0 && delay > c.retryMax {
		return c.retryMax
	}
	if delay < 0 {
		return 0
	}
	return delay
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}

func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
