// Package bounce renders symbolic musical events into sample-accurate audio
// buffers. Notes placed on a timeline reference either recorded samples or
// procedural synthesis; the renderer resolves musical bar time into physical
// sample time, invokes a sound generator per note and mixes everything
// additively into per-track and master buffers.
//
// File format decoding, MIDI and real-time playback are deliberately outside
// this package: loaders hand it pre-decoded sample data and pre-parsed note
// lists, and it hands back plain float32 buffers.
package bounce

import "errors"

// AudioBuffer is a slice of mono float32 samples. The sample rate is not part
// of the buffer; it travels explicitly with every call that produces or
// consumes one. Buffers returned by a SoundGenerator are owned by the caller.
type AudioBuffer []float32

// Copy makes a deep copy of the buffer.
func (b AudioBuffer) Copy() AudioBuffer {
	ret := make(AudioBuffer, len(b))
	copy(ret, b)
	return ret
}

// SoundGenerator produces the audio for a single note. GetSound returns a
// buffer of exactly durationSamples samples at sampleRate; the note's pitch
// selects the frequency (synthesizers) or the playback ratio (samples).
//
// Implementations are pure functions of their configuration and the call
// arguments, so a single generator may be invoked from multiple goroutines.
type SoundGenerator interface {
	GetSound(pitch Pitch, durationSamples, sampleRate int) (AudioBuffer, error)
}

// Errors reported by the package. All of them are raised synchronously at the
// point of the offending input; a render either fully succeeds or fails with
// one of these before producing output.
var (
	ErrInvalidPitchName     = errors.New("pitch name does not match <letter>[#|b]<octave>")
	ErrPitchOutOfRange      = errors.New("pitch should be within 0-127")
	ErrInvalidTempo         = errors.New("tempo should be > 0")
	ErrInvalidTimeSignature = errors.New("time signature should have > 0 beats per bar")
	ErrInvalidSampleRate    = errors.New("sample rate should be > 0")
	ErrSampleRateMismatch   = errors.New("sample has no data to resample")
	ErrEmptyGenerator       = errors.New("track has notes but no sound generator")
	ErrNegativeDuration     = errors.New("note duration should be >= 0")
	ErrNegativeStart        = errors.New("note start should be >= 0")
	ErrVelocityOutOfRange   = errors.New("note velocity should be within 0-1")
	ErrChannelCount         = errors.New("invalid channel count")
	ErrUnknownTrack         = errors.New("note refers to an unknown track")
)
