package main

import (
	"log/slog"
	"time"

	"podforge/internal/assembler"
	"podforge/internal/config"
	"podforge/internal/daemon"
	"podforge/internal/jobs"
	"podforge/internal/library"
	"podforge/internal/notifications"
	"podforge/internal/pipeline"
	"podforge/internal/services/scriptgen"
	"podforge/internal/services/tts"
	"podforge/internal/synth"
)

// bootstrap assembles the daemon's full dependency graph from configuration.
// The returned cleanup closes resources in reverse order.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, func(), error) {
	store, err := library.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = store.Close() }

	primary := tts.NewClient(tts.Config{
		BaseURL:        cfg.TTS.BaseURL,
		APIKey:         cfg.TTS.APIKey,
		Model:          cfg.TTS.Model,
		TimeoutSeconds: cfg.TTS.TimeoutSeconds,
	})
	var fallback synth.Provider
	if cfg.TTS.FallbackBaseURL != "" {
		fallback = tts.NewClient(tts.Config{
			BaseURL:        cfg.TTS.FallbackBaseURL,
			APIKey:         cfg.TTS.FallbackAPIKey,
			Model:          cfg.TTS.FallbackModel,
			TimeoutSeconds: cfg.TTS.TimeoutSeconds,
		})
	}

	synthesizer, err := synth.New(synth.Options{
		Primary: primary,
		PrimaryVoices: synth.Voices{
			Primary:   cfg.TTS.PrimaryVoice,
			Secondary: cfg.TTS.SecondaryVoice,
		},
		Fallback:      fallback,
		FallbackVoice: cfg.TTS.FallbackVoice,
		Strict:        cfg.Jobs.StrictSynthesis,
		SampleRate:    cfg.Audio.SampleRate,
		Logger:        logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	notifier := notifications.NewService(cfg)

	runner, err := pipeline.New(pipeline.Options{
		Config: cfg,
		Generator: scriptgen.NewClient(scriptgen.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}),
		Synthesizer: synthesizer,
		Assembler: assembler.New(assembler.Options{
			BedTrackPath: cfg.Audio.BedTrack,
			TargetPeak:   cfg.Audio.TargetPeak,
			SampleRate:   cfg.Audio.SampleRate,
			Logger:       logger,
		}),
		Library:  store,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	orchestrator, err := jobs.NewOrchestrator(jobs.Options{
		Runner:            runner,
		HeartbeatInterval: time.Duration(cfg.Jobs.HeartbeatInterval) * time.Second,
		Logger:            logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	d, err := daemon.New(daemon.Options{
		Config:       cfg,
		Orchestrator: orchestrator,
		Library:      store,
		Logger:       logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return d, cleanup, nil
}
