package bounce

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"
	"gopkg.in/yaml.v3"
)

// Waveform selects the oscillator shape of a Synthesizer.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
)

var waveformNames = [...]string{"sine", "square", "saw", "triangle"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return fmt.Sprintf("waveform(%d)", int(w))
	}
	return waveformNames[w]
}

func (w Waveform) MarshalYAML() (any, error) {
	if w < 0 || int(w) >= len(waveformNames) {
		return nil, fmt.Errorf("unknown waveform %d", int(w))
	}
	return waveformNames[w], nil
}

func (w *Waveform) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	for i, n := range waveformNames {
		if n == name {
			*w = Waveform(i)
			return nil
		}
	}
	return fmt.Errorf("unknown waveform %q", name)
}

// Envelope is an ADSR amplitude shape. Attack, Decay and Release are
// durations in seconds; Sustain is the level held between decay and release,
// in [0,1]. When a note is shorter than attack+decay+release, the three
// segments are compressed proportionally and the sustain plateau is dropped,
// so the envelope never overflows the note.
type Envelope struct {
	Attack  float32 `yaml:"attack"`
	Decay   float32 `yaml:"decay"`
	Sustain float32 `yaml:"sustain"`
	Release float32 `yaml:"release"`
}

func (e Envelope) validate() error {
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		return fmt.Errorf("envelope durations should be >= 0: %+v", e)
	}
	if e.Sustain < 0 || e.Sustain > 1 {
		return fmt.Errorf("envelope sustain should be within 0-1: %v", e.Sustain)
	}
	return nil
}

// curve renders the envelope into n samples at the given rate.
func (e Envelope) curve(n, sampleRate int) AudioBuffer {
	ret := make(AudioBuffer, n)
	att := int(math32.Round(e.Attack * float32(sampleRate)))
	dec := int(math32.Round(e.Decay * float32(sampleRate)))
	rel := int(math32.Round(e.Release * float32(sampleRate)))
	if total := att + dec + rel; total > n && total > 0 {
		scale := float32(n) / float32(total)
		att = int(float32(att) * scale)
		rel = int(float32(rel) * scale)
		dec = n - att - rel
	}
	i := 0
	for j := 0; j < att; j, i = j+1, i+1 {
		ret[i] = float32(j) / float32(att)
	}
	for j := 0; j < dec && i < n; j, i = j+1, i+1 {
		ret[i] = 1 - (1-e.Sustain)*float32(j)/float32(dec)
	}
	sustainEnd := n - rel
	for ; i < sustainEnd; i++ {
		ret[i] = e.Sustain
	}
	for j := 0; i < n; j, i = j+1, i+1 {
		ret[i] = e.Sustain * (1 - float32(j)/float32(rel))
	}
	return ret
}

// SynthParams is the immutable configuration of a Synthesizer: which waveform
// to generate and the envelope to shape it with.
type SynthParams struct {
	Wave Waveform `yaml:"wave"`
	Env  Envelope `yaml:"envelope"`
}

// Synthesizer procedurally generates notes: a phase-accumulator oscillator at
// the pitch's fundamental frequency, normalized to [-1,1], multiplied
// pointwise by the ADSR curve.
type Synthesizer struct {
	Params SynthParams
}

func NewSynthesizer(params SynthParams) (*Synthesizer, error) {
	if params.Wave < 0 || int(params.Wave) >= len(waveformNames) {
		return nil, fmt.Errorf("unknown waveform %d", int(params.Wave))
	}
	if err := params.Env.validate(); err != nil {
		return nil, err
	}
	return &Synthesizer{Params: params}, nil
}

// GetSound implements SoundGenerator.
func (s *Synthesizer) GetSound(pitch Pitch, durationSamples, sampleRate int) (AudioBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if durationSamples < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeDuration, durationSamples)
	}
	buf := make(AudioBuffer, durationSamples)
	if durationSamples == 0 {
		return buf, nil
	}
	phaseInc := float32(pitch.Frequency() / float64(sampleRate))
	var phase float32
	for i := range buf {
		buf[i] = oscillate(s.Params.Wave, phase)
		phase += phaseInc
		phase -= math32.Floor(phase)
	}
	vek32.Mul_Inplace(buf, s.Params.Env.curve(durationSamples, sampleRate))
	return buf, nil
}

// oscillate evaluates one waveform cycle at phase in [0,1).
func oscillate(w Waveform, phase float32) float32 {
	switch w {
	case Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case Saw:
		return 2*phase - 1
	case Triangle:
		return 1 - 4*math32.Abs(phase-0.5)
	default:
		return math32.Sin(2 * math32.Pi * phase)
	}
}
