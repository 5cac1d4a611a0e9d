package bounce

import "sync"

// Wavetable memoizes the buffers another SoundGenerator produces, keyed by
// pitch, duration and sample rate. Repeated notes, the common case in drum
// patterns, are generated once and served from the cache afterwards. It
// implements SoundGenerator itself, so it can be bound to a track in place of
// the generator it wraps.
//
// Cached buffers are canonical and never handed out directly; GetSound
// returns a copy, because callers may scale the result in place.
type Wavetable struct {
	generator SoundGenerator

	mu    sync.Mutex
	cache map[wavetableKey]AudioBuffer
}

type wavetableKey struct {
	pitch      Pitch
	duration   int
	sampleRate int
}

func NewWavetable(generator SoundGenerator) *Wavetable {
	return &Wavetable{generator: generator, cache: make(map[wavetableKey]AudioBuffer)}
}

// GetSound implements SoundGenerator.
func (w *Wavetable) GetSound(pitch Pitch, durationSamples, sampleRate int) (AudioBuffer, error) {
	key := wavetableKey{pitch: pitch, duration: durationSamples, sampleRate: sampleRate}
	w.mu.Lock()
	defer w.mu.Unlock()
	if buf, ok := w.cache[key]; ok {
		return buf.Copy(), nil
	}
	buf, err := w.generator.GetSound(pitch, durationSamples, sampleRate)
	if err != nil {
		return nil, err
	}
	w.cache[key] = buf
	return buf.Copy(), nil
}
