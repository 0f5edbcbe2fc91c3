package config

const (
	defaultAPIBind           = "127.0.0.1:8264"
	defaultOutputDir         = "~/.local/share/podforge/episodes"
	defaultUploadDir         = "~/.local/share/podforge/uploads"
	defaultLogDir            = "~/.local/share/podforge/logs"
	defaultTTSBaseURL        = "https://api.openai.com/v1"
	defaultTTSModel          = "gpt-4o-mini-tts"
	defaultPrimaryVoice      = "alloy"
	defaultSecondaryVoice    = "onyx"
	defaultFallbackVoice     = "fable"
	defaultTTSTimeout        = 120
	defaultLLMBaseURL        = "https://openrouter.ai/api/v1"
	defaultLLMModel          = "google/gemini-2.5-flash"
	defaultLLMTimeout        = 180
	defaultSampleRate        = 24000
	defaultTargetPeak        = 0.9
	defaultMaxUploadBytes    = 16 << 20
	defaultSynthWorkers      = 1
	defaultHeartbeatInterval = 5
	defaultNtfyTimeout       = 10
)

// Default returns a Config populated with repository defaults. Paths are left
// in their tilde form; normalize expands them during Load.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			UploadDir: defaultUploadDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Podcast: Podcast{
			Title:         "Podforge Daily",
			Description:   "Conversations assembled from your documents.",
			Author:        "Podforge",
			SignOn:        "Welcome back to the show.",
			SignOff:       "Thanks for listening, see you next time.",
			PrimaryHost:   "ALEX",
			SecondaryHost: "JORDAN",
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			PrimaryVoice:   defaultPrimaryVoice,
			SecondaryVoice: defaultSecondaryVoice,
			FallbackVoice:  defaultFallbackVoice,
			TimeoutSeconds: defaultTTSTimeout,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
			TargetPeak: defaultTargetPeak,
		},
		Jobs: Jobs{
			MaxUploadBytes:    defaultMaxUploadBytes,
			AllowedExtensions: []string{".txt", ".md"},
			SynthWorkers:      defaultSynthWorkers,
			StrictSynthesis:   false,
			HeartbeatInterval: defaultHeartbeatInterval,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			Completion:     true,
			Errors:         true,
		},
		Logging: Logging{
			Format: "pretty",
			Level:  "info",
		},
	}
}
