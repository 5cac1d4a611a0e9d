package bounce

import (
	"fmt"
	"math"
	"strconv"
)

// Pitch is an integer scale position in the 0-127 convention, middle C = 60.
// The frequency of a pitch is derived, never stored.
type Pitch byte

const (
	PitchMax Pitch = 127 // highest supported pitch (G9)
	MiddleC  Pitch = 60  // C4
	PitchA4  Pitch = 69  // concert A, 440 Hz
)

// note name of each pitch class, sharps as the canonical accidental
var pitchClassNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClassOffsets = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// NewPitch validates an integer note number into a Pitch.
func NewPitch(note int) (Pitch, error) {
	if note < 0 || note > int(PitchMax) {
		return 0, fmt.Errorf("%w: %v", ErrPitchOutOfRange, note)
	}
	return Pitch(note), nil
}

// ParsePitch parses a note name of the form <letter>[#|b]<octave>, e.g. "C4",
// "A#3" or "Db-1". Octave 4 starts at middle C, so ParsePitch("C4") == 60.
func ParsePitch(name string) (Pitch, error) {
	if len(name) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPitchName, name)
	}
	class, ok := pitchClassOffsets[name[0]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPitchName, name)
	}
	rest := name[1:]
	switch rest[0] {
	case '#':
		class++
		rest = rest[1:]
	case 'b':
		class--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPitchName, name)
	}
	note := (octave+1)*12 + class
	if note < 0 || note > int(PitchMax) {
		return 0, fmt.Errorf("%w: %q", ErrPitchOutOfRange, name)
	}
	return Pitch(note), nil
}

// ResolvePitch normalizes the flexible note identifiers accepted at the
// package boundary (integer note numbers, note name strings or Pitch values)
// into a Pitch. Everything internal works on the canonical integer form.
func ResolvePitch(note any) (Pitch, error) {
	switch n := note.(type) {
	case Pitch:
		return n, nil
	case int:
		return NewPitch(n)
	case string:
		return ParsePitch(n)
	}
	return 0, fmt.Errorf("%w: %v (%T)", ErrInvalidPitchName, note, note)
}

// Frequency returns the fundamental frequency of the pitch in Hz, in equal
// temperament tuned to A4 = 440 Hz.
func (p Pitch) Frequency() float64 {
	return 440 * math.Exp2((float64(p)-float64(PitchA4))/12)
}

// Name returns the canonical name of the pitch, using sharps for the black
// keys: Name(60) == "C4". ParsePitch(p.Name()) round-trips for every pitch.
func (p Pitch) Name() string {
	return fmt.Sprintf("%s%d", pitchClassNames[p%12], int(p)/12-1)
}

func (p Pitch) String() string {
	return p.Name()
}
