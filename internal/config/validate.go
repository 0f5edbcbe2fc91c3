package config

import (
	"fmt"
	"strings"
)

// Validate ensures all required configuration values are present and
// internally consistent.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.OutputDir == "" {
		problems = append(problems, "paths.output_dir is required")
	}
	if c.Paths.UploadDir == "" {
		problems = append(problems, "paths.upload_dir is required")
	}
	if c.Paths.APIBind == "" {
		problems = append(problems, "paths.api_bind is required")
	}

	if c.Podcast.PrimaryHost == "" {
		problems = append(problems, "podcast.primary_host is required")
	}
	if c.Podcast.SecondaryHost == "" {
		problems = append(problems, "podcast.secondary_host is required")
	}
	if c.Podcast.PrimaryHost != "" && c.Podcast.PrimaryHost == c.Podcast.SecondaryHost {
		problems = append(problems, "podcast.primary_host and podcast.secondary_host must differ")
	}

	if c.TTS.BaseURL == "" {
		problems = append(problems, "tts.base_url is required")
	}
	if c.TTS.Model == "" {
		problems = append(problems, "tts.model is required")
	}
	if c.TTS.TimeoutSeconds <= 0 {
		problems = append(problems, "tts.timeout_seconds must be positive")
	}
	if c.TTS.FallbackBaseURL != "" && c.TTS.FallbackModel == "" {
		problems = append(problems, "tts.fallback_model is required when tts.fallback_base_url is set")
	}

	if c.LLM.TimeoutSeconds <= 0 {
		problems = append(problems, "llm.timeout_seconds must be positive")
	}

	if c.Audio.SampleRate <= 0 {
		problems = append(problems, "audio.sample_rate must be positive")
	}
	if c.Audio.TargetPeak <= 0 || c.Audio.TargetPeak > 1 {
		problems = append(problems, "audio.target_peak must be in (0, 1]")
	}

	if c.Jobs.MaxUploadBytes <= 0 {
		problems = append(problems, "jobs.max_upload_bytes must be positive")
	}
	if len(c.Jobs.AllowedExtensions) == 0 {
		problems = append(problems, "jobs.allowed_extensions must not be empty")
	}
	if c.Jobs.SynthWorkers <= 0 {
		problems = append(problems, "jobs.synth_workers must be positive")
	}
	if c.Jobs.HeartbeatInterval <= 0 {
		problems = append(problems, "jobs.heartbeat_interval must be positive")
	}

	if c.Notifications.NtfyTopic != "" && c.Notifications.RequestTimeout <= 0 {
		problems = append(problems, "notifications.request_timeout must be positive")
	}

	switch c.Logging.Format {
	case "", "pretty", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of pretty, json", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
