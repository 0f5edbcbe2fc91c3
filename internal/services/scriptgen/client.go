// Package scriptgen drafts two-host episode scripts with a chat completion
// model behind an OpenAI-compatible API.
package scriptgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podforge/internal/services"
)

const defaultHTTPTimeout = 3 * time.Minute

// Generator produces an episode script from source material. The pipeline
// depends on this interface so tests can substitute a canned script.
type Generator interface {
	Generate(ctx context.Context, req Request) (Script, error)
}

// Config captures the runtime settings required to talk to the model.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client wraps the chat completion API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient constructs a script generation client.
func NewClient(cfg Config) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			Model:          strings.TrimSpace(cfg.Model),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient overrides the transport, mainly for tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate drafts an episode script for the supplied material. Failures are
// fatal to the calling job, so every error is tagged for classification.
func (c *Client) Generate(ctx context.Context, req Request) (Script, error) {
	var empty Script
	if strings.TrimSpace(req.Material) == "" {
		return empty, services.Wrap(services.ErrValidation, "scriptgen", "generate", "empty source material", nil)
	}
	if c.cfg.APIKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, "scriptgen", "generate", "api key required", nil)
	}
	if req.PrimaryHost == "" || req.SecondaryHost == "" {
		return empty, services.Wrap(services.ErrConfiguration, "scriptgen", "generate", "both speaker tags required", nil)
	}

	payload := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	content, err := c.complete(ctx, payload)
	if err != nil {
		return empty, err
	}

	var parsed Script
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return empty, services.Wrap(services.ErrExternalService, "scriptgen", "generate", "parse script payload", err)
	}
	parsed.Normalize()
	if parsed.Empty() {
		return empty, services.Wrap(services.ErrExternalService, "scriptgen", "generate", "model returned no sections", nil)
	}
	return parsed, nil
}

func (c *Client) complete(ctx context.Context, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("script request: encode body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("script request: new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "scriptgen", "generate", "http error", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "scriptgen", "generate", "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", services.Wrap(services.ErrExternalService, "scriptgen", "generate",
			fmt.Sprintf("http %d", resp.StatusCode), fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", services.Wrap(services.ErrExternalService, "scriptgen", "generate", "decode response", err)
	}
	if completion.Error != nil {
		return "", services.Wrap(services.ErrExternalService, "scriptgen", "generate", "api error",
			fmt.Errorf("%s", strings.TrimSpace(completion.Error.Message)))
	}
	for _, choice := range completion.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", services.Wrap(services.ErrExternalService, "scriptgen", "generate", "empty completion", nil)
}

// DecodeModelJSON decodes JSON from a model response, tolerating code fences
// and stray prose around the object.
func DecodeModelJSON(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return fmt.Errorf("empty payload")
	}
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}

	sanitized := stripCodeFence(trimmed)
	if start := strings.Index(sanitized, "{"); start >= 0 {
		if end := strings.LastIndex(sanitized, "}"); end > start {
			sanitized = sanitized[start : end+1]
		}
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return fmt.Errorf("decode model payload: %w", err)
	}
	return nil
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
