// Package assembler mixes synthesized clips into the final episode track.
//
// Assembly happens in fixed order: rebuild each section by ordinal with a
// 500 ms turn gap, join sections with a 300 ms gap, peak-normalize the voice
// track, then optionally loop a background bed underneath it at -18 dB and
// normalize the mix again. A missing bed file downgrades to a voice-only
// episode rather than failing.
package assembler

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"time"

	"podforge/internal/audio"
	"podforge/internal/logging"
	"podforge/internal/services"
)

const (
	// TurnGap separates consecutive utterances inside a section.
	TurnGap = 500 * time.Millisecond
	// SectionGap separates consecutive sections.
	SectionGap = 300 * time.Millisecond
	// BedDuckDB is the fixed attenuation applied to the bed under the voice.
	BedDuckDB = -18.0
)

// Turn pairs a synthesized clip with its script ordinal so per-speaker
// batching upstream cannot scramble conversational order.
type Turn struct {
	Ordinal int
	Clip    audio.Clip
}

// Section is one editorial unit: either a list of turns or a single
// pre-built clip (intro sting, pre-recorded segment).
type Section struct {
	Name     string
	Turns    []Turn
	Prebuilt *audio.Clip
}

// Options configures an Assembler.
type Options struct {
	// BedTrackPath points at an optional WAV bed. Empty or missing paths
	// disable bed mixing.
	BedTrackPath string
	TargetPeak   float64
	SampleRate   int
	Logger       *slog.Logger
}

// Assembler builds episode mixdowns.
type Assembler struct {
	opts   Options
	logger *slog.Logger
}

// New constructs an Assembler.
func New(opts Options) *Assembler {
	if opts.TargetPeak <= 0 || opts.TargetPeak > 1 {
		opts.TargetPeak = 0.9
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = audio.DefaultSampleRate
	}
	return &Assembler{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "assembler"),
	}
}

// Assemble produces the final mixdown for the given sections in order.
func (a *Assembler) Assemble(ctx context.Context, sections []Section) (audio.Clip, error) {
	voice, err := a.AssembleVoice(sections)
	if err != nil {
		return audio.Clip{}, err
	}
	return a.MixBed(ctx, voice)
}

// AssembleVoice rebuilds and joins the sections into the normalized voice
// track, without any bed.
func (a *Assembler) AssembleVoice(sections []Section) (audio.Clip, error) {
	if len(sections) == 0 {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "assembly", "assemble", "no sections", nil)
	}

	rebuilt := make([]audio.Clip, 0, len(sections))
	for _, section := range sections {
		clip, err := a.rebuildSection(section)
		if err != nil {
			return audio.Clip{}, err
		}
		rebuilt = append(rebuilt, clip)
	}

	joined, err := audio.Concat(SectionGap, rebuilt...)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "assembly", "concat sections", "", err)
	}

	normalized, err := joined.Normalize(a.opts.TargetPeak)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrConfiguration, "assembly", "normalize", "", err)
	}
	return normalized, nil
}

// rebuildSection re-interleaves a section's turns strictly by ordinal. A
// prebuilt clip passes through after resampling to the pipeline rate.
func (a *Assembler) rebuildSection(section Section) (audio.Clip, error) {
	if section.Prebuilt != nil {
		return section.Prebuilt.Resample(a.opts.SampleRate), nil
	}

	turns := make([]Turn, len(section.Turns))
	copy(turns, section.Turns)
	sort.SliceStable(turns, func(i, j int) bool { return turns[i].Ordinal < turns[j].Ordinal })

	clips := make([]audio.Clip, 0, len(turns))
	for _, turn := range turns {
		clips = append(clips, turn.Clip)
	}
	joined, err := audio.Concat(TurnGap, clips...)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "assembly", "rebuild section", section.Name, err)
	}
	return joined, nil
}

// MixBed overlays the configured bed under the voice track. No configured or
// readable bed means the voice track is returned untouched.
func (a *Assembler) MixBed(ctx context.Context, voice audio.Clip) (audio.Clip, error) {
	log := logging.WithContext(ctx, a.logger)

	if a.opts.BedTrackPath == "" {
		return voice, nil
	}
	if _, err := os.Stat(a.opts.BedTrackPath); err != nil {
		log.Warn("bed track missing, mixing voice only",
			logging.String("path", a.opts.BedTrackPath),
			logging.Error(err))
		return voice, nil
	}
	bed, err := audio.ReadWAVFile(a.opts.BedTrackPath)
	if err != nil {
		log.Warn("bed track unreadable, mixing voice only",
			logging.String("path", a.opts.BedTrackPath),
			logging.Error(err))
		return voice, nil
	}
	if bed.Empty() || voice.Empty() {
		return voice, nil
	}

	bed = bed.Resample(voice.SampleRate).LoopTo(len(voice.Samples)).WithGain(BedDuckDB)
	mixed, err := audio.Overlay(voice, bed)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrValidation, "assembly", "overlay bed", "", err)
	}
	normalized, err := mixed.Normalize(a.opts.TargetPeak)
	if err != nil {
		return audio.Clip{}, services.Wrap(services.ErrConfiguration, "assembly", "normalize mix", "", err)
	}
	log.Info("bed mixed under voice track",
		logging.Duration("episode", normalized.Duration()))
	return normalized, nil
}
