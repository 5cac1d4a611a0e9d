package bounce

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// AudioSample is the canonical source of truth for sample-based sound
// generation: a mono buffer of recorded audio plus the rate it was recorded
// at. Data and rate are fixed at construction and never mutated afterwards,
// so the same sample may back any number of concurrently rendering
// SampleSources.
type AudioSample struct {
	Name       string
	Data       AudioBuffer
	SampleRate int

	// Root is the pitch the recording is tagged with, when known. A rooted
	// sample is pitch-shifted toward the requested note; an unrooted one
	// always plays at its recorded pitch.
	Root    Pitch
	HasRoot bool
}

// NewAudioSample wraps raw interleaved sample data handed over by a loader.
// The core holds buffers in mono, so multi-channel input must be downmixed at
// construction by passing toMono; the downmix averages the channels and is
// not re-derivable afterwards.
func NewAudioSample(raw []float32, sampleRate, channels int, toMono bool, name string) (*AudioSample, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if channels < 1 || len(raw)%channels != 0 {
		return nil, fmt.Errorf("%w: %v channels, %v samples", ErrChannelCount, channels, len(raw))
	}
	if channels > 1 && !toMono {
		return nil, fmt.Errorf("%w: %v-channel data requires a mono downmix", ErrChannelCount, channels)
	}
	var data AudioBuffer
	if channels == 1 {
		data = AudioBuffer(raw).Copy()
	} else {
		data = make(AudioBuffer, len(raw)/channels)
		for i := range data {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += raw[i*channels+c]
			}
			data[i] = sum / float32(channels)
		}
	}
	return &AudioSample{Name: name, Data: data, SampleRate: sampleRate}, nil
}

// SetRoot tags the sample with the pitch it was recorded at, enabling pitch
// shifting in SampleSource.
func (s *AudioSample) SetRoot(p Pitch) {
	s.Root, s.HasRoot = p, true
}

// SampleSource plays back a stored AudioSample, resampling it to the
// requested output rate and, for rooted samples, pitch-shifting it toward the
// requested note by adjusting the playback ratio. Resampling goes through a
// polyphase bandlimited resampler.
type SampleSource struct {
	sample *AudioSample
}

func NewSampleSource(sample *AudioSample) *SampleSource {
	return &SampleSource{sample: sample}
}

// Sample returns the wrapped AudioSample.
func (s *SampleSource) Sample() *AudioSample { return s.sample }

// GetSound implements SoundGenerator. The output is the resampled recording,
// truncated or zero-padded to exactly durationSamples.
func (s *SampleSource) GetSound(pitch Pitch, durationSamples, sampleRate int) (AudioBuffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	if durationSamples < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeDuration, durationSamples)
	}
	if s.sample == nil || len(s.sample.Data) == 0 {
		return nil, ErrSampleRateMismatch
	}
	// A rooted sample is sped up by the frequency ratio between the requested
	// and the recorded pitch; speeding up by f is the same as resampling from
	// a source rate f times higher.
	inputRate := float64(s.sample.SampleRate)
	if s.sample.HasRoot {
		inputRate *= pitch.Frequency() / s.sample.Root.Frequency()
	}
	out := make(AudioBuffer, durationSamples)
	if inputRate == float64(sampleRate) {
		copy(out, s.sample.Data)
		return out, nil
	}
	resampled, err := resampleBuffer(s.sample.Data, inputRate, float64(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("resampling %q: %w", s.sample.Name, err)
	}
	copy(out, resampled)
	return out, nil
}

func resampleBuffer(data AudioBuffer, inputRate, outputRate float64) (AudioBuffer, error) {
	r, err := resampling.New(&resampling.Config{
		InputRate:  inputRate,
		OutputRate: outputRate,
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, err
	}
	input := make([]float64, len(data))
	for i, v := range data {
		input[i] = float64(v)
	}
	processed, err := r.Process(input)
	if err != nil {
		return nil, err
	}
	flushed, err := r.Flush()
	if err != nil {
		return nil, err
	}
	ret := make(AudioBuffer, 0, len(processed)+len(flushed))
	for _, v := range processed {
		ret = append(ret, float32(v))
	}
	for _, v := range flushed {
		ret = append(ret, float32(v))
	}
	return ret, nil
}
