// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"podforge/internal/config"
)

// Option mutates the generated test configuration.
type Option func(*config.Config)

// NewConfig returns a configuration rooted in t.TempDir with directories
// created, suitable for exercising components without a real install.
func NewConfig(t *testing.T, opts ...Option) *config.Config {
	t.Helper()

	base := t.TempDir()
	defaults := config.Default()
	cfg := &defaults
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.UploadDir = filepath.Join(base, "uploads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Podcast.Title = "Test Show"
	cfg.Podcast.Author = "Test Author"
	cfg.Podcast.SignOn = ""
	cfg.Podcast.SignOff = ""
	cfg.LLM.APIKey = "test-key"
	cfg.TTS.APIKey = "test-key"
	cfg.Jobs.SynthWorkers = 1

	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}

// WithSignOnOff sets the scripted open and close lines.
func WithSignOnOff(on, off string) Option {
	return func(cfg *config.Config) {
		cfg.Podcast.SignOn = on
		cfg.Podcast.SignOff = off
	}
}

// WithBedTrack points the mixer at a background bed file.
func WithBedTrack(path string) Option {
	return func(cfg *config.Config) {
		cfg.Audio.BedTrack = path
	}
}

// WithSynthWorkers sets the synthesis fan-out.
func WithSynthWorkers(n int) Option {
	return func(cfg *config.Config) {
		cfg.Jobs.SynthWorkers = n
	}
}
