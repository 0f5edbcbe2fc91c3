// Package synth turns one utterance at a time into a decoded audio clip.
//
// Synthesis runs a degradation chain: the primary provider with the speaker's
// configured voice, then an optional fallback provider with its default
// voice, then a fixed one second of silence. A single bad line costs a brief
// gap instead of the whole episode. Strict mode disables the silence step for
// deployments that would rather fail the job.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"podforge/internal/audio"
	"podforge/internal/logging"
	"podforge/internal/script"
	"podforge/internal/services"
)

// PlaceholderDuration is the length of the silent clip substituted when every
// provider fails for an utterance.
const PlaceholderDuration = time.Second

// Provider renders text to raw WAV bytes.
type Provider interface {
	Speak(ctx context.Context, text, voice string) ([]byte, error)
}

// Voices maps the two speakers onto primary-provider voice IDs.
type Voices struct {
	Primary   string
	Secondary string
}

// Options configures a Synthesizer.
type Options struct {
	Primary       Provider
	PrimaryVoices Voices
	// Fallback may be nil when no second provider is configured.
	Fallback      Provider
	FallbackVoice string
	// Strict turns total synthesis failure for an utterance into an error
	// instead of a silent placeholder.
	Strict     bool
	SampleRate int
	Logger     *slog.Logger
}

// Synthesizer converts utterances into clips at a uniform sample rate.
type Synthesizer struct {
	opts   Options
	logger *slog.Logger
}

// New constructs a Synthesizer. Primary must be non-nil.
func New(opts Options) (*Synthesizer, error) {
	if opts.Primary == nil {
		return nil, services.Wrap(services.ErrConfiguration, "synthesis", "new", "primary provider required", nil)
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.DefaultSampleRate
	}
	return &Synthesizer{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "synthesizer"),
	}, nil
}

// Synthesize renders one utterance. The returned clip is always at the
// configured sample rate. It fails only in strict mode, and then only after
// every provider has failed.
func (s *Synthesizer) Synthesize(ctx context.Context, u script.Utterance) (audio.Clip, error) {
	log := logging.WithContext(ctx, s.logger)

	clip, primaryErr := s.render(ctx, s.opts.Primary, u.Text, s.voiceFor(u.Speaker))
	if primaryErr == nil {
		return clip, nil
	}
	log.Warn("primary provider failed",
		logging.Int("ordinal", u.Ordinal),
		logging.String("speaker", string(u.Speaker)),
		logging.Error(primaryErr))

	if s.opts.Fallback != nil {
		clip, fallbackErr := s.render(ctx, s.opts.Fallback, u.Text, s.opts.FallbackVoice)
		if fallbackErr == nil {
			return clip, nil
		}
		log.Warn("fallback provider failed",
			logging.Int("ordinal", u.Ordinal),
			logging.Error(fallbackErr))
	}

	if s.opts.Strict {
		return audio.Clip{}, services.Wrap(services.ErrExternalService, "synthesis", "speak",
			fmt.Sprintf("all providers failed for ordinal %d", u.Ordinal), primaryErr)
	}

	log.Warn("substituting silence for utterance", logging.Int("ordinal", u.Ordinal))
	return audio.Silence(PlaceholderDuration, s.opts.SampleRate), nil
}

// SynthesizeAll renders a batch of utterances in order.
func (s *Synthesizer) SynthesizeAll(ctx context.Context, utterances []script.Utterance) ([]audio.Clip, error) {
	clips := make([]audio.Clip, 0, len(utterances))
	for _, u := range utterances {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clip, err := s.Synthesize(ctx, u)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

func (s *Synthesizer) voiceFor(speaker script.Speaker) string {
	if speaker == script.SpeakerSecondary {
		return s.opts.PrimaryVoices.Secondary
	}
	return s.opts.PrimaryVoices.Primary
}

// render calls the provider and decodes its payload. The payload is staged
// through a temp file so a long episode never accumulates raw provider output
// in memory or on disk; the file is removed once the clip is decoded.
func (s *Synthesizer) render(ctx context.Context, provider Provider, text, voice string) (audio.Clip, error) {
	raw, err := provider.Speak(ctx, text, voice)
	if err != nil {
		return audio.Clip{}, err
	}

	tmp, err := os.CreateTemp("", "podforge-utterance-*.wav")
	if err != nil {
		return audio.Clip{}, fmt.Errorf("stage utterance audio: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return audio.Clip{}, fmt.Errorf("stage utterance audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return audio.Clip{}, fmt.Errorf("stage utterance audio: %w", err)
	}

	clip, err := audio.ReadWAVFile(tmp.Name())
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decode provider audio: %w", err)
	}
	return clip.Resample(s.opts.SampleRate), nil
}
