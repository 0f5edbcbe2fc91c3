package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podforge/internal/services"
)

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs a client for the daemon at baseURL. A bare host:port
// is accepted and normalized to http.
func NewClient(baseURL, token string) *Client {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    base,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// Generate submits a topic-only job.
func (c *Client) Generate(ctx context.Context, topic string) (SubmitResponse, error) {
	var out SubmitResponse
	err := c.postJSON(ctx, "/api/generate", GenerateRequest{Topic: topic}, &out)
	return out, err
}

// Upload submits a job built from local source documents plus an optional
// topic hint.
func (c *Client) Upload(ctx context.Context, topic string, paths []string) (SubmitResponse, error) {
	var out SubmitResponse
	if len(paths) == 0 {
		return out, services.Wrap(services.ErrValidation, "api", "upload", "no files given", nil)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if topic = strings.TrimSpace(topic); topic != "" {
		if err := writer.WriteField("topic", topic); err != nil {
			return out, services.Wrap(services.ErrTransient, "api", "upload", "write topic field", err)
		}
	}
	for _, path := range paths {
		if err := appendFilePart(writer, path); err != nil {
			return out, err
		}
	}
	if err := writer.Close(); err != nil {
		return out, services.Wrap(services.ErrTransient, "api", "upload", "finalize form", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", body)
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return out, c.do(req, &out)
}

// Status fetches one job. Unknown ids map to services.ErrNotFound.
func (c *Client) Status(ctx context.Context, id string) (JobView, error) {
	var out JobView
	err := c.getJSON(ctx, "/api/status/"+id, &out)
	return out, err
}

// Jobs lists all jobs known to the daemon, newest first.
func (c *Client) Jobs(ctx context.Context) ([]JobView, error) {
	var out JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// Episodes lists published episodes, newest first.
func (c *Client) Episodes(ctx context.Context) ([]EpisodeView, error) {
	var out EpisodeListResponse
	if err := c.getJSON(ctx, "/api/episodes", &out); err != nil {
		return nil, err
	}
	return out.Episodes, nil
}

// Config fetches the daemon's non-secret configuration.
func (c *Client) Config(ctx context.Context) (ConfigView, error) {
	var out ConfigView
	err := c.getJSON(ctx, "/api/config", &out)
	return out, err
}

// Download streams a completed episode's audio into destPath.
func (c *Client) Download(ctx context.Context, id, destPath string) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/download/"+id, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "api", "download", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return services.Wrap(services.ErrTransient, "api", "download", destPath, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return services.Wrap(services.ErrTransient, "api", "download", "write audio", err)
	}
	return out.Close()
}

func (c *Client) postJSON(ctx context.Context, path string, payload, target any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return services.Wrap(services.ErrValidation, "api", "encode request", path, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, target)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, target)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "api", "request", "daemon address not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "request", path, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, target any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "api", "request",
			"is the daemon running?", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return services.Wrap(services.ErrExternalService, "api", "decode response", req.URL.Path, err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	message := strings.TrimSpace(readErrorMessage(resp.Body))
	if message == "" {
		message = resp.Status
	}
	marker := services.ErrExternalService
	switch {
	case resp.StatusCode == http.StatusNotFound:
		marker = services.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		marker = services.ErrConfiguration
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		marker = services.ErrValidation
	}
	return services.Wrap(marker, "api", "request",
		fmt.Sprintf("daemon returned %d: %s", resp.StatusCode, message), nil)
}

func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 8<<10))
	if err != nil {
		return ""
	}
	var parsed ErrorResponse
	if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	return string(data)
}

func appendFilePart(writer *multipart.Writer, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "api", "upload", path, err)
	}
	defer file.Close()

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return services.Wrap(services.ErrTransient, "api", "upload", "create form part", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return services.Wrap(services.ErrTransient, "api", "upload", "copy file", err)
	}
	return nil
}
