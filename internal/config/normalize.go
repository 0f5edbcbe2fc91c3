package config

import (
	"os"
	"strings"
)

// normalize expands paths, applies environment fallbacks, and trims stray
// whitespace so validation sees canonical values.
func (c *Config) normalize() error {
	var err error
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return err
	}
	if c.Paths.UploadDir, err = expandPath(strings.TrimSpace(c.Paths.UploadDir)); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return err
	}
	if c.Audio.BedTrack = strings.TrimSpace(c.Audio.BedTrack); c.Audio.BedTrack != "" {
		if c.Audio.BedTrack, err = expandPath(c.Audio.BedTrack); err != nil {
			return err
		}
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("PODFORGE_LLM_API_KEY"))
	}
	c.TTS.APIKey = strings.TrimSpace(c.TTS.APIKey)
	if c.TTS.APIKey == "" {
		c.TTS.APIKey = strings.TrimSpace(os.Getenv("PODFORGE_TTS_API_KEY"))
	}
	c.TTS.FallbackAPIKey = strings.TrimSpace(c.TTS.FallbackAPIKey)

	c.TTS.BaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.BaseURL), "/")
	c.TTS.FallbackBaseURL = strings.TrimRight(strings.TrimSpace(c.TTS.FallbackBaseURL), "/")
	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")

	c.Podcast.PrimaryHost = strings.ToUpper(strings.TrimSpace(c.Podcast.PrimaryHost))
	c.Podcast.SecondaryHost = strings.ToUpper(strings.TrimSpace(c.Podcast.SecondaryHost))

	normalized := make([]string, 0, len(c.Jobs.AllowedExtensions))
	for _, ext := range c.Jobs.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	c.Jobs.AllowedExtensions = normalized

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
