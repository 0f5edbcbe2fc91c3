package audio

import (
	"errors"
	"math"
	"time"
)

// DefaultSampleRate is the pipeline-wide PCM sample rate. Provider output and
// bed tracks are resampled to it on ingest.
const DefaultSampleRate = 24000

const maxSample = 32767

// Clip is a run of 16-bit signed mono PCM samples.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// Silence returns a clip of the given duration containing only zero samples.
func Silence(d time.Duration, sampleRate int) Clip {
	if d < 0 {
		d = 0
	}
	n := int(float64(sampleRate) * d.Seconds())
	return Clip{SampleRate: sampleRate, Samples: make([]int16, n)}
}

// Duration reports the playback length of the clip.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(c.SampleRate) * float64(time.Second))
}

// Empty reports whether the clip carries no samples.
func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// Peak returns the largest absolute sample value in the clip.
func (c Clip) Peak() int16 {
	var peak int16
	for _, s := range c.Samples {
		if s == math.MinInt16 {
			return maxSample
		}
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

// Normalize scales the clip so its peak sits at target of full scale. Target
// must be in (0, 1]. Silent clips are returned unchanged.
func (c Clip) Normalize(target float64) (Clip, error) {
	if target <= 0 || target > 1 {
		return Clip{}, errors.New("normalize target must be in (0, 1]")
	}
	peak := c.Peak()
	if peak == 0 {
		return c, nil
	}
	scale := target * maxSample / float64(peak)
	return c.scaled(scale), nil
}

// WithGain applies a gain in decibels. Negative values attenuate.
func (c Clip) WithGain(db float64) Clip {
	return c.scaled(math.Pow(10, db/20))
}

func (c Clip) scaled(scale float64) Clip {
	out := make([]int16, len(c.Samples))
	for i, s := range c.Samples {
		out[i] = clampSample(float64(s) * scale)
	}
	return Clip{SampleRate: c.SampleRate, Samples: out}
}

// Concat joins clips end to end, inserting gap of silence between consecutive
// non-initial clips. All clips must share a sample rate.
func Concat(gap time.Duration, clips ...Clip) (Clip, error) {
	var out Clip
	for _, clip := range clips {
		if clip.SampleRate <= 0 {
			continue
		}
		if out.SampleRate == 0 {
			out.SampleRate = clip.SampleRate
		} else if clip.SampleRate != out.SampleRate {
			return Clip{}, errors.New("concat requires a uniform sample rate")
		}
		if len(out.Samples) > 0 && gap > 0 {
			out.Samples = append(out.Samples, Silence(gap, out.SampleRate).Samples...)
		}
		out.Samples = append(out.Samples, clip.Samples...)
	}
	return out, nil
}

// Overlay mixes layer over base sample by sample with clamping. The result has
// the length of base; any excess layer samples are dropped.
func Overlay(base, layer Clip) (Clip, error) {
	if base.SampleRate != layer.SampleRate {
		return Clip{}, errors.New("overlay requires matching sample rates")
	}
	out := make([]int16, len(base.Samples))
	copy(out, base.Samples)
	n := len(layer.Samples)
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		mixed := int32(out[i]) + int32(layer.Samples[i])
		if mixed > maxSample {
			mixed = maxSample
		} else if mixed < math.MinInt16 {
			mixed = math.MinInt16
		}
		out[i] = int16(mixed)
	}
	return Clip{SampleRate: base.SampleRate, Samples: out}, nil
}

// LoopTo repeats the clip until it covers at least n samples, then truncates
// to exactly n. An empty clip loops to silence.
func (c Clip) LoopTo(n int) Clip {
	if n <= 0 {
		return Clip{SampleRate: c.SampleRate}
	}
	out := make([]int16, 0, n)
	if len(c.Samples) == 0 {
		return Clip{SampleRate: c.SampleRate, Samples: make([]int16, n)}
	}
	for len(out) < n {
		out = append(out, c.Samples...)
	}
	return Clip{SampleRate: c.SampleRate, Samples: out[:n]}
}

// Resample converts the clip to the requested rate using linear
// interpolation. Good enough for speech and bed material.
func (c Clip) Resample(rate int) Clip {
	if rate <= 0 || c.SampleRate == rate {
		return c
	}
	if len(c.Samples) == 0 {
		return Clip{SampleRate: rate}
	}
	ratio := float64(rate) / float64(c.SampleRate)
	n := int(float64(len(c.Samples)) * ratio)
	out := make([]int16, n)
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(c.Samples)-1 {
			out[i] = c.Samples[len(c.Samples)-1]
			continue
		}
		frac := pos - float64(idx)
		val := float64(c.Samples[idx])*(1-frac) + float64(c.Samples[idx+1])*frac
		out[i] = clampSample(val)
	}
	return Clip{SampleRate: rate, Samples: out}
}

func clampSample(v float64) int16 {
	if v > maxSample {
		return maxSample
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(math.Round(v))
}
