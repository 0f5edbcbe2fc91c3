package synth_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"podforge/internal/audio"
	"podforge/internal/script"
	"podforge/internal/synth"
)

type stubProvider struct {
	err    error
	voices []string
	clip   audio.Clip
}

func (p *stubProvider) Speak(_ context.Context, _ string, voice string) ([]byte, error) {
	p.voices = append(p.voices, voice)
	if p.err != nil {
		return nil, p.err
	}
	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, p.clip); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toneClip(n int) audio.Clip {
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 1000
	}
	return audio.Clip{SampleRate: audio.DefaultSampleRate, Samples: samples}
}

var utterance = script.Utterance{Speaker: script.SpeakerPrimary, Text: "Hello.", Ordinal: 0}

func TestSynthesizeUsesSpeakerVoice(t *testing.T) {
	primary := &stubProvider{clip: toneClip(240)}
	s, err := synth.New(synth.Options{
		Primary:       primary,
		PrimaryVoices: synth.Voices{Primary: "alloy", Secondary: "onyx"},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := s.Synthesize(context.Background(), utterance); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	second := script.Utterance{Speaker: script.SpeakerSecondary, Text: "Hi.", Ordinal: 1}
	if _, err := s.Synthesize(context.Background(), second); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}

	if len(primary.voices) != 2 || primary.voices[0] != "alloy" || primary.voices[1] != "onyx" {
		t.Fatalf("unexpected voices: %v", primary.voices)
	}
}

func TestSynthesizeFallsBackToSecondProvider(t *testing.T) {
	primary := &stubProvider{err: errors.New("primary down")}
	fallback := &stubProvider{clip: toneClip(480)}
	s, err := synth.New(synth.Options{
		Primary:       primary,
		PrimaryVoices: synth.Voices{Primary: "alloy", Secondary: "onyx"},
		Fallback:      fallback,
		FallbackVoice: "fable",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	clip, err := s.Synthesize(context.Background(), utterance)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(clip.Samples) != 480 {
		t.Fatalf("expected fallback clip, got %d samples", len(clip.Samples))
	}
	if len(fallback.voices) != 1 || fallback.voices[0] != "fable" {
		t.Fatalf("expected fallback voice, got %v", fallback.voices)
	}
}

func TestSynthesizeSubstitutesSilenceWhenAllProvidersFail(t *testing.T) {
	s, err := synth.New(synth.Options{
		Primary:       &stubProvider{err: errors.New("down")},
		Fallback:      &stubProvider{err: errors.New("also down")},
		FallbackVoice: "fable",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	clip, err := s.Synthesize(context.Background(), utterance)
	if err != nil {
		t.Fatalf("expected placeholder, got error: %v", err)
	}
	if got := clip.Duration(); got != time.Second {
		t.Fatalf("expected 1s placeholder, got %v", got)
	}
	if clip.Peak() != 0 {
		t.Fatal("placeholder must be silent")
	}
}

func TestSynthesizeStrictModeFailsInstead(t *testing.T) {
	s, err := synth.New(synth.Options{
		Primary: &stubProvider{err: errors.New("down")},
		Strict:  true,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if _, err := s.Synthesize(context.Background(), utterance); err == nil {
		t.Fatal("expected error in strict mode")
	}
}

func TestSynthesizeResamplesProviderOutput(t *testing.T) {
	// Provider speaks at 48 kHz; the pipeline runs at 24 kHz.
	primary := &stubProvider{clip: audio.Clip{SampleRate: 48000, Samples: make([]int16, 4800)}}
	s, err := synth.New(synth.Options{
		Primary:    primary,
		SampleRate: audio.DefaultSampleRate,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	clip, err := s.Synthesize(context.Background(), utterance)
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if clip.SampleRate != audio.DefaultSampleRate {
		t.Fatalf("unexpected rate: %d", clip.SampleRate)
	}
	if len(clip.Samples) != 2400 {
		t.Fatalf("unexpected sample count: %d", len(clip.Samples))
	}
}

func TestSynthesizeAllPreservesOrder(t *testing.T) {
	primary := &stubProvider{clip: toneClip(100)}
	s, err := synth.New(synth.Options{Primary: primary})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	utterances := []script.Utterance{
		{Speaker: script.SpeakerPrimary, Text: "One.", Ordinal: 0},
		{Speaker: script.SpeakerSecondary, Text: "Two.", Ordinal: 1},
		{Speaker: script.SpeakerPrimary, Text: "Three.", Ordinal: 2},
	}
	clips, err := s.SynthesizeAll(context.Background(), utterances)
	if err != nil {
		t.Fatalf("SynthesizeAll returned error: %v", err)
	}
	if len(clips) != 3 {
		t.Fatalf("expected 3 clips, got %d", len(clips))
	}
}
