package bounce

import "sort"

// Track is an ordered collection of NoteEvents bound to one SoundGenerator.
// Events are kept ordered by start time, ties broken by insertion order; a
// render pass never mutates the track, so rendering is a pure function of
// its current state.
type Track struct {
	ID        int
	Name      string
	Generator SoundGenerator
	Events    []NoteEvent
}

func NewTrack(id int, generator SoundGenerator, name string) *Track {
	return &Track{ID: id, Name: name, Generator: generator}
}

// AddNote inserts the event into its start-time position, after any event
// with an equal start so insertion order is preserved.
func (t *Track) AddNote(e NoteEvent) {
	e.TrackID = t.ID
	i := sort.Search(len(t.Events), func(i int) bool { return t.Events[i].Start > e.Start })
	t.Events = append(t.Events, NoteEvent{})
	copy(t.Events[i+1:], t.Events[i:])
	t.Events[i] = e
}

// AddNotes appends a batch of events, each into its sorted position.
func (t *Track) AddNotes(events []NoteEvent) {
	for _, e := range events {
		t.AddNote(e)
	}
}

// Validate checks the events and that a track with notes has a generator to
// play them with.
func (t *Track) Validate() error {
	if len(t.Events) > 0 && t.Generator == nil {
		return ErrEmptyGenerator
	}
	for _, e := range t.Events {
		if err := e.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Copy makes a deep copy of the track. The generator is shared: generators
// are pure, so the copy can render concurrently with the original.
func (t *Track) Copy() Track {
	events := make([]NoteEvent, len(t.Events))
	copy(events, t.Events)
	return Track{ID: t.ID, Name: t.Name, Generator: t.Generator, Events: events}
}
