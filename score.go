package bounce

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Score is a full arrangement: the time context of the render pass plus the
// tracks placed on it. It is the unit of (de)serialization; a score whose
// tracks use synthesized instruments round-trips through YAML.
type Score struct {
	Time   TimeContext `yaml:"time"`
	Tracks []*Track    `yaml:"tracks"`
}

func NewScore(ctx TimeContext) *Score {
	return &Score{Time: ctx}
}

// AddTrack appends a new track bound to the generator, allocating the
// smallest non-colliding track ID.
func (s *Score) AddTrack(generator SoundGenerator, name string) *Track {
	id := len(s.Tracks)
	for s.TrackByID(id) != nil {
		id++
	}
	t := NewTrack(id, generator, name)
	s.Tracks = append(s.Tracks, t)
	return t
}

// TrackByID returns the track with the given ID, or nil.
func (s *Score) TrackByID(id int) *Track {
	for _, t := range s.Tracks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// AddNote routes the event to the track its TrackID names.
func (s *Score) AddNote(e NoteEvent) error {
	t := s.TrackByID(e.TrackID)
	if t == nil {
		return fmt.Errorf("%w: %v", ErrUnknownTrack, e.TrackID)
	}
	t.AddNote(e)
	return nil
}

// AddNotes routes a batch of events; it fails on the first event naming an
// unknown track.
func (s *Score) AddNotes(events []NoteEvent) error {
	for _, e := range events {
		if err := s.AddNote(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *Score) Validate() error {
	if err := s.Time.Validate(); err != nil {
		return err
	}
	seen := make(map[int]bool)
	for _, t := range s.Tracks {
		if seen[t.ID] {
			return fmt.Errorf("duplicate track ID %v", t.ID)
		}
		seen[t.ID] = true
		if err := t.Validate(); err != nil {
			return fmt.Errorf("track %d: %w", t.ID, err)
		}
	}
	return nil
}

// Copy makes a deep copy of the score.
func (s *Score) Copy() Score {
	tracks := make([]*Track, len(s.Tracks))
	for i, t := range s.Tracks {
		c := t.Copy()
		tracks[i] = &c
	}
	return Score{Time: s.Time, Tracks: tracks}
}

// Render renders the master mix of the whole score.
func (s *Score) Render() (AudioBuffer, error) {
	return RenderAll(s.Tracks, s.Time)
}

// RenderWindow renders the master mix and returns only the slice between the
// two bar times, zero-padded when the window extends past the last note.
func (s *Score) RenderWindow(startBar, endBar float64) (AudioBuffer, error) {
	if endBar < startBar {
		return nil, errors.New("render window end should be >= start")
	}
	master, err := s.Render()
	if err != nil {
		return nil, err
	}
	start := s.Time.Samples(startBar)
	end := s.Time.Samples(endBar)
	out := make(AudioBuffer, end-start)
	if start < len(master) {
		copy(out, master[start:])
	}
	return out, nil
}

// ParseScore unmarshals and validates a YAML score.
func ParseScore(data []byte) (*Score, error) {
	var s Score
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing score: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("parsing score: %w", err)
	}
	return &s, nil
}

// trackYAML is the wire form of a Track. Only synthesized generators are
// serializable; sample data comes from loaders, not score files.
type trackYAML struct {
	ID    int          `yaml:"id"`
	Name  string       `yaml:"name,omitempty"`
	Synth *SynthParams `yaml:"synth,omitempty"`
	Notes []noteYAML   `yaml:"notes,omitempty"`
}

type noteYAML struct {
	Pitch    any     `yaml:"pitch"`
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration,omitempty"`
	Velocity float64 `yaml:"velocity"`
	TimeWise bool    `yaml:"timewise,omitempty"`
	// nil means an on-event; scores rarely contain explicit offs
	On *bool `yaml:"on,omitempty"`
}

func (t *Track) MarshalYAML() (any, error) {
	ret := trackYAML{ID: t.ID, Name: t.Name}
	switch g := t.Generator.(type) {
	case nil:
	case *Synthesizer:
		params := g.Params
		ret.Synth = &params
	default:
		return nil, fmt.Errorf("track %d: generator %T is not serializable", t.ID, t.Generator)
	}
	for _, e := range t.Events {
		n := noteYAML{
			Pitch:    e.Pitch.Name(),
			Start:    e.Start,
			Duration: e.Duration,
			Velocity: e.Velocity,
			TimeWise: e.TimeWise,
		}
		if !e.On {
			off := false
			n.On = &off
		}
		ret.Notes = append(ret.Notes, n)
	}
	return ret, nil
}

func (t *Track) UnmarshalYAML(value *yaml.Node) error {
	var raw trackYAML
	if err := value.Decode(&raw); err != nil {
		return err
	}
	t.ID, t.Name, t.Generator, t.Events = raw.ID, raw.Name, nil, nil
	if raw.Synth != nil {
		synth, err := NewSynthesizer(*raw.Synth)
		if err != nil {
			return fmt.Errorf("track %d: %w", raw.ID, err)
		}
		t.Generator = synth
	}
	for _, n := range raw.Notes {
		on := n.On == nil || *n.On
		e, err := NewNoteEvent(raw.ID, n.Pitch, n.Start, n.Duration, n.Velocity, n.TimeWise, on)
		if err != nil {
			return fmt.Errorf("track %d: %w", raw.ID, err)
		}
		t.AddNote(e)
	}
	return nil
}
