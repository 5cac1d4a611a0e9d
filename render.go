package bounce

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/viterin/vek/vek32"
)

// Renderer resolves note events into sample-domain start/length pairs,
// invokes each track's SoundGenerator per note and accumulates the results
// additively. Overlapping notes sum linearly; no clipping or limiting is
// applied, so a hot mix may exceed [-1,1] and taming it is the caller's
// business.
//
// Workers sets how many tracks are rendered concurrently in RenderAll; zero
// means GOMAXPROCS. The output is bit-identical regardless of Workers,
// because generators are pure and the master sum always runs in ascending
// track-ID order.
type Renderer struct {
	Workers int
}

// Render renders a single track under the given time context.
func Render(track *Track, ctx TimeContext) (AudioBuffer, error) {
	return Renderer{}.Render(track, ctx)
}

// RenderAll renders every track and sums them into a master mix.
func RenderAll(tracks []*Track, ctx TimeContext) (AudioBuffer, error) {
	return Renderer{}.RenderAll(tracks, ctx)
}

// spanNote is a note event resolved into the sample domain.
type spanNote struct {
	pitch    Pitch
	start    int // absolute sample index
	length   int // samples
	velocity float64
}

func (r Renderer) Render(track *Track, ctx TimeContext) (AudioBuffer, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if err := track.Validate(); err != nil {
		return nil, err
	}
	notes, err := resolveNotes(track, ctx)
	if err != nil {
		return nil, err
	}
	length := 0
	for _, n := range notes {
		length = max(length, n.start+n.length)
	}
	out := make(AudioBuffer, length)
	for _, n := range notes {
		if n.length == 0 {
			continue
		}
		sound, err := track.Generator.GetSound(n.pitch, n.length, ctx.SampleRate)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", track.ID, err)
		}
		if len(sound) != n.length {
			return nil, fmt.Errorf("track %d: generator returned %d samples, expected %d", track.ID, len(sound), n.length)
		}
		vek32.MulNumber_Inplace(sound, float32(n.velocity))
		vek32.Add_Inplace(out[n.start:n.start+n.length], sound)
	}
	return out, nil
}

func (r Renderer) RenderAll(tracks []*Track, ctx TimeContext) (AudioBuffer, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	buffers := make([]AudioBuffer, len(tracks))
	errs := make([]error, len(tracks))
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, len(tracks))
	if workers <= 1 {
		for i, t := range tracks {
			buffers[i], errs[i] = r.Render(t, ctx)
		}
	} else {
		indices := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range indices {
					buffers[i], errs[i] = r.Render(tracks[i], ctx)
				}
			}()
		}
		for i := range tracks {
			indices <- i
		}
		close(indices)
		wg.Wait()
	}
	// The mix order is ascending track ID so that floating point accumulation
	// is the same no matter how the tracks were scheduled above.
	order := make([]int, len(tracks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return tracks[order[a]].ID < tracks[order[b]].ID })
	for _, i := range order {
		if errs[i] != nil {
			return nil, errs[i]
		}
	}
	length := 0
	for _, b := range buffers {
		length = max(length, len(b))
	}
	master := make(AudioBuffer, length)
	for _, i := range order {
		if len(buffers[i]) > 0 {
			vek32.Add_Inplace(master[:len(buffers[i])], buffers[i])
		}
	}
	return master, nil
}

// resolvedEvent is a NoteEvent whose start has been converted to an absolute
// sample index, so bar-time and time-wise events order against each other.
type resolvedEvent struct {
	NoteEvent
	start int
}

// resolveNotes turns the track's events into sample-domain notes. Every start
// is converted to an absolute sample index first, then events are ordered by
// it (stable, so equal starts keep insertion order) and on/off pairs are
// closed: each zero-duration on-event takes the nearest subsequent off-event
// on the same pitch, and an unmatched one extends to the end of the track's
// last known event.
func resolveNotes(track *Track, ctx TimeContext) ([]spanNote, error) {
	events := make([]resolvedEvent, len(track.Events))
	for i, e := range track.Events {
		events[i] = resolvedEvent{NoteEvent: e, start: eventStart(e, ctx)}
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].start < events[b].start })

	trackEnd := 0
	for _, e := range events {
		end := e.start
		if e.On && e.Duration > 0 {
			end = eventEnd(e.NoteEvent, ctx)
		}
		trackEnd = max(trackEnd, end)
	}

	// pitches that have off-events at all; a zero-duration on-event pairs
	// only against these, otherwise it is a plain zero-length note
	offPitches := make(map[Pitch]bool)
	for _, e := range events {
		if !e.On {
			offPitches[e.Pitch] = true
		}
	}

	notes := make([]spanNote, 0, len(events))
	offUsed := make([]bool, len(events))
	for i, e := range events {
		if !e.On {
			continue
		}
		n := spanNote{pitch: e.Pitch, start: e.start, velocity: e.Velocity}
		switch {
		case e.Duration > 0:
			n.length = eventEnd(e.NoteEvent, ctx) - e.start
		case offPitches[e.Pitch]:
			// nearest subsequent unconsumed off on the same pitch; an
			// unmatched on-event extends to the end of the last known event
			n.length = trackEnd - e.start
			for j := i + 1; j < len(events); j++ {
				if !events[j].On && !offUsed[j] && events[j].Pitch == e.Pitch {
					offUsed[j] = true
					n.length = events[j].start - e.start
					break
				}
			}
		}
		n.length = max(n.length, 0)
		notes = append(notes, n)
	}
	return notes, nil
}

// eventStart resolves the event's start to an absolute sample index.
func eventStart(e NoteEvent, ctx TimeContext) int {
	if e.TimeWise {
		return int(math.Round(e.Start))
	}
	return ctx.Samples(e.Start)
}

// eventEnd resolves start+duration in the symbolic domain before rounding,
// so note lengths do not drift against the bar grid.
func eventEnd(e NoteEvent, ctx TimeContext) int {
	if e.TimeWise {
		return int(math.Round(e.Start + e.Duration))
	}
	return ctx.Samples(e.Start + e.Duration)
}
