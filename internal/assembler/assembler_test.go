package assembler_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"podforge/internal/assembler"
	"podforge/internal/audio"
)

func toneClip(d time.Duration) audio.Clip {
	n := int(float64(audio.DefaultSampleRate) * d.Seconds())
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 8000
	}
	return audio.Clip{SampleRate: audio.DefaultSampleRate, Samples: samples}
}

func TestAssembleVoiceDurationAccountsForGaps(t *testing.T) {
	a := assembler.New(assembler.Options{TargetPeak: 0.9})

	sections := []assembler.Section{
		{Name: "intro", Turns: []assembler.Turn{
			{Ordinal: 0, Clip: toneClip(time.Second)},
			{Ordinal: 1, Clip: toneClip(time.Second)},
		}},
		{Name: "outro", Turns: []assembler.Turn{
			{Ordinal: 0, Clip: toneClip(2 * time.Second)},
		}},
	}

	voice, err := a.AssembleVoice(sections)
	if err != nil {
		t.Fatalf("AssembleVoice returned error: %v", err)
	}
	// 1s + 500ms + 1s + 300ms + 2s.
	want := 4*time.Second + 800*time.Millisecond
	if got := voice.Duration(); got != want {
		t.Fatalf("duration = %v, want %v", got, want)
	}
}

func TestAssembleVoiceReinterleavesByOrdinal(t *testing.T) {
	a := assembler.New(assembler.Options{TargetPeak: 1.0})

	first := audio.Clip{SampleRate: 1000, Samples: []int16{10, 10}}
	second := audio.Clip{SampleRate: 1000, Samples: []int16{20, 20}}
	// Turns arrive speaker-batched, out of conversational order.
	sections := []assembler.Section{
		{Turns: []assembler.Turn{
			{Ordinal: 1, Clip: second},
			{Ordinal: 0, Clip: first},
		}},
	}

	voice, err := a.AssembleVoice(sections)
	if err != nil {
		t.Fatalf("AssembleVoice returned error: %v", err)
	}
	// Normalization scales 20 -> full scale, 10 -> half.
	if voice.Samples[0] >= voice.Samples[len(voice.Samples)-1] {
		t.Fatalf("expected ordinal 0 clip first: %v", voice.Samples)
	}
}

func TestAssembleVoiceNormalizesPeak(t *testing.T) {
	a := assembler.New(assembler.Options{TargetPeak: 0.5})

	sections := []assembler.Section{
		{Turns: []assembler.Turn{{Ordinal: 0, Clip: toneClip(100 * time.Millisecond)}}},
	}
	voice, err := a.AssembleVoice(sections)
	if err != nil {
		t.Fatalf("AssembleVoice returned error: %v", err)
	}
	target := 0.5
	wantPeak := int16(target * 32767)
	if got := voice.Peak(); got < wantPeak-1 || got > wantPeak+1 {
		t.Fatalf("peak = %d, want about %d", got, wantPeak)
	}
}

func TestAssembleVoiceRejectsEmptySections(t *testing.T) {
	a := assembler.New(assembler.Options{})
	if _, err := a.AssembleVoice(nil); err == nil {
		t.Fatal("expected error for empty sections")
	}
}

func TestPrebuiltSectionPassesThrough(t *testing.T) {
	a := assembler.New(assembler.Options{TargetPeak: 1.0})
	sting := toneClip(250 * time.Millisecond)

	sections := []assembler.Section{
		{Name: "sting", Prebuilt: &sting},
		{Turns: []assembler.Turn{{Ordinal: 0, Clip: toneClip(time.Second)}}},
	}
	voice, err := a.AssembleVoice(sections)
	if err != nil {
		t.Fatalf("AssembleVoice returned error: %v", err)
	}
	want := 250*time.Millisecond + 300*time.Millisecond + time.Second
	if got := voice.Duration(); got != want {
		t.Fatalf("duration = %v, want %v", got, want)
	}
}

func TestMissingBedReturnsVoiceUnchanged(t *testing.T) {
	a := assembler.New(assembler.Options{
		BedTrackPath: filepath.Join(t.TempDir(), "nope.wav"),
		TargetPeak:   0.9,
	})

	sections := []assembler.Section{
		{Turns: []assembler.Turn{{Ordinal: 0, Clip: toneClip(time.Second)}}},
	}
	withBedPath, err := a.Assemble(context.Background(), sections)
	if err != nil {
		t.Fatalf("Assemble returned error: %v", err)
	}
	voiceOnly, err := a.AssembleVoice(sections)
	if err != nil {
		t.Fatalf("AssembleVoice returned error: %v", err)
	}
	if len(withBedPath.Samples) != len(voiceOnly.Samples) {
		t.Fatalf("lengths differ: %d vs %d", len(withBedPath.Samples), len(voiceOnly.Samples))
	}
	for i := range voiceOnly.Samples {
		if withBedPath.Samples[i] != voiceOnly.Samples[i] {
			t.Fatalf("sample %d differs with missing bed", i)
		}
	}
}

func TestBedMixKeepsVoiceDuration(t *testing.T) {
	bedPath := filepath.Join(t.TempDir(), "bed.wav")
	bed := toneClip(300 * time.Millisecond)
	if err := audio.WriteWAVFile(bedPath, bed); err != nil {
		t.Fatalf("write bed: %v", err)
	}

	a := assembler.New(assembler.Options{BedTrackPath: bedPath, TargetPeak: 0.9})
	sections := []assembler.Section{
		{Turns: []assembler.Turn{
			{Ordinal: 0, Clip: toneClip(time.Second)},
			{Ordinal: 1, Clip: toneClip(time.Second)},
		}},
	}

	voice, err := a.AssembleVoice(sections)
	if err != nil {
		t.Fatalf("AssembleVoice returned error: %v", err)
	}
	mixed, err := a.MixBed(context.Background(), voice)
	if err != nil {
		t.Fatalf("MixBed returned error: %v", err)
	}
	if mixed.Duration() != voice.Duration() {
		t.Fatalf("bed changed duration: %v vs %v", mixed.Duration(), voice.Duration())
	}
}
