package bounce

import "fmt"

// NoteEvent is one scheduled instruction: play (or stop) a pitch on a track
// at a given time with a given velocity. Start and Duration are in bars
// unless TimeWise is set, in which case they are sample counts and bypass the
// bar-time conversion entirely.
//
// A note either carries its duration directly, or is the on half of an
// on/off pair: an On event with zero duration is closed by the nearest
// subsequent off event on the same track and pitch.
type NoteEvent struct {
	TrackID  int     `yaml:"track"`
	Pitch    Pitch   `yaml:"pitch"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"`
	Velocity float64 `yaml:"velocity"`
	TimeWise bool    `yaml:"timewise,omitempty"`
	On       bool    `yaml:"on"`
}

// NewNoteEvent validates a note at construction, so a malformed event fails
// here instead of corrupting a later render. The note identifier may be an
// integer, a name such as "C4", or a Pitch.
func NewNoteEvent(trackID int, note any, start, duration, velocity float64, timeWise, on bool) (NoteEvent, error) {
	pitch, err := ResolvePitch(note)
	if err != nil {
		return NoteEvent{}, err
	}
	if duration < 0 {
		return NoteEvent{}, fmt.Errorf("%w: %v", ErrNegativeDuration, duration)
	}
	if velocity < 0 || velocity > 1 {
		return NoteEvent{}, fmt.Errorf("%w: %v", ErrVelocityOutOfRange, velocity)
	}
	if start < 0 {
		return NoteEvent{}, fmt.Errorf("%w: %v", ErrNegativeStart, start)
	}
	return NoteEvent{
		TrackID:  trackID,
		Pitch:    pitch,
		Start:    start,
		Duration: duration,
		Velocity: velocity,
		TimeWise: timeWise,
		On:       on,
	}, nil
}

// Validate re-checks the invariants NewNoteEvent establishes, for events
// built or deserialized as plain struct literals.
func (e NoteEvent) Validate() error {
	if e.Duration < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDuration, e.Duration)
	}
	if e.Velocity < 0 || e.Velocity > 1 {
		return fmt.Errorf("%w: %v", ErrVelocityOutOfRange, e.Velocity)
	}
	if e.Start < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeStart, e.Start)
	}
	return nil
}

func (e NoteEvent) String() string {
	kind := "off"
	if e.On {
		kind = "on"
	}
	return fmt.Sprintf("track %d %s %s @%v dur %v vel %v", e.TrackID, e.Pitch, kind, e.Start, e.Duration, e.Velocity)
}
