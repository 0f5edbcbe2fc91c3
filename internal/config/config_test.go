package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podforge/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	t.Setenv("PODFORGE_LLM_API_KEY", "llm-env-key")
	t.Setenv("PODFORGE_TTS_API_KEY", "tts-env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, ".local", "share", "podforge", "episodes")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8264" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.LLM.APIKey != "llm-env-key" {
		t.Fatalf("expected LLM key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.TTS.APIKey != "tts-env-key" {
		t.Fatalf("expected TTS key from env, got %q", cfg.TTS.APIKey)
	}
	if cfg.Audio.SampleRate != 24000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Jobs.StrictSynthesis {
		t.Fatal("expected strict synthesis disabled by default")
	}
	if cfg.Podcast.PrimaryHost != "ALEX" || cfg.Podcast.SecondaryHost != "JORDAN" {
		t.Fatalf("unexpected default hosts: %q / %q", cfg.Podcast.PrimaryHost, cfg.Podcast.SecondaryHost)
	}
}

func TestLoadExplicitConfigOverridesAndNormalizes(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PODFORGE_LLM_API_KEY", "")
	t.Setenv("PODFORGE_TTS_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[paths]
output_dir = "~/episodes"

[podcast]
primary_host = "host1"
secondary_host = "host2"

[tts]
api_key = "  tts-key  "
base_url = "https://speech.example.com/v1/"

[llm]
api_key = "llm-key"

[jobs]
allowed_extensions = ["txt", ".MD"]
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != path {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempHome, "episodes") {
		t.Fatalf("expected tilde expansion, got %q", cfg.Paths.OutputDir)
	}
	if cfg.TTS.APIKey != "tts-key" {
		t.Fatalf("expected trimmed API key, got %q", cfg.TTS.APIKey)
	}
	if cfg.TTS.BaseURL != "https://speech.example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.TTS.BaseURL)
	}
	if cfg.Podcast.PrimaryHost != "HOST1" || cfg.Podcast.SecondaryHost != "HOST2" {
		t.Fatalf("expected upper-cased hosts, got %q / %q", cfg.Podcast.PrimaryHost, cfg.Podcast.SecondaryHost)
	}
	want := []string{".txt", ".md"}
	if len(cfg.Jobs.AllowedExtensions) != len(want) {
		t.Fatalf("unexpected extensions: %v", cfg.Jobs.AllowedExtensions)
	}
	for i, ext := range want {
		if cfg.Jobs.AllowedExtensions[i] != ext {
			t.Fatalf("unexpected extensions: %v", cfg.Jobs.AllowedExtensions)
		}
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[podcast]
primary_host = "ALEX"
secondary_host = "alex"

[audio]
target_peak = 1.5

[jobs]
synth_workers = 0
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"must differ", "target_peak", "synth_workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to mention %q, got %v", want, err)
		}
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PODFORGE_LLM_API_KEY", "")
	t.Setenv("PODFORGE_TTS_API_KEY", "")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Paths.APIBind != config.Default().Paths.APIBind {
		t.Fatalf("sample config diverges from defaults: %q", cfg.Paths.APIBind)
	}
}

func TestEnsureDirectoriesCreatesTree(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.UploadDir = filepath.Join(base, "up")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.UploadDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q", dir)
		}
	}
}
