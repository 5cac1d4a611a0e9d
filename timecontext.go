package bounce

import (
	"fmt"
	"math"
)

// TimeContext holds the fixed parameters under which one render pass occurs:
// tempo, time signature and sample rate. Symbolic bar time (a fractional
// number of bars, bar 0 = start) is converted to absolute sample indices and
// back through it. Tempo changes mid-render are not supported.
type TimeContext struct {
	BPM         float64 `yaml:"bpm"`
	BeatsPerBar int     `yaml:"beatsperbar"`
	BeatUnit    int     `yaml:"beatunit"` // denominator of the time signature: 4 = quarter note beat
	SampleRate  int     `yaml:"samplerate"`
}

// DefaultTimeContext is 120 BPM, 4/4, 44100 Hz.
var DefaultTimeContext = TimeContext{BPM: 120, BeatsPerBar: 4, BeatUnit: 4, SampleRate: 44100}

func (c TimeContext) Validate() error {
	if c.BPM <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTempo, c.BPM)
	}
	if c.BeatsPerBar <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTimeSignature, c.BeatsPerBar)
	}
	if c.BeatUnit <= 0 {
		return fmt.Errorf("%w: beat unit %v", ErrInvalidTimeSignature, c.BeatUnit)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.SampleRate)
	}
	return nil
}

// SamplesPerBeat returns sampleRate * 60 / tempo, as a float so no rounding
// accumulates before the final conversion.
func (c TimeContext) SamplesPerBeat() float64 {
	return float64(c.SampleRate) * 60 / c.BPM
}

func (c TimeContext) SamplesPerBar() float64 {
	return c.SamplesPerBeat() * float64(c.BeatsPerBar)
}

// Samples converts a bar time to the nearest absolute sample index.
func (c TimeContext) Samples(bars float64) int {
	return int(math.Round(bars * c.SamplesPerBar()))
}

// Bars is the exact algebraic inverse of Samples: it recovers the bar time of
// a sample index. Round-tripping an index through Bars and Samples is exact.
func (c TimeContext) Bars(sample int) float64 {
	return float64(sample) / c.SamplesPerBar()
}
