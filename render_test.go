package bounce_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/bounceaudio/bounce"
)

var testCtx = bounce.TimeContext{BPM: 120, BeatsPerBar: 4, BeatUnit: 4, SampleRate: 44100}

// dcGenerator returns a constant level, which makes mixing arithmetic easy to
// check by eye.
type dcGenerator struct {
	level float32
}

func (g dcGenerator) GetSound(pitch bounce.Pitch, durationSamples, sampleRate int) (bounce.AudioBuffer, error) {
	buf := make(bounce.AudioBuffer, durationSamples)
	for i := range buf {
		buf[i] = g.level
	}
	return buf, nil
}

func sineTrack(t *testing.T, id int) *bounce.Track {
	t.Helper()
	synth, err := bounce.NewSynthesizer(bounce.SynthParams{Wave: bounce.Sine, Env: flatEnv})
	if err != nil {
		t.Fatalf("NewSynthesizer failed: %v", err)
	}
	return bounce.NewTrack(id, synth, "sine")
}

func mustNote(t *testing.T, trackID int, note any, start, duration, velocity float64) bounce.NoteEvent {
	t.Helper()
	e, err := bounce.NewNoteEvent(trackID, note, start, duration, velocity, false, true)
	if err != nil {
		t.Fatalf("NewNoteEvent failed: %v", err)
	}
	return e
}

func TestRenderOneBarSine(t *testing.T) {
	track := sineTrack(t, 0)
	track.AddNote(mustNote(t, 0, "A4", 0, 1, 1))
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(buf) != 88200 {
		t.Fatalf("got %v samples, want 44100 * 60/120 * 4 = 88200", len(buf))
	}
	if buf[0] != 0 || buf[1] <= 0 || buf[50] <= 0 || buf[51] >= 0 {
		t.Errorf("zero crossings inconsistent with a 440 Hz sine: %v %v %v %v", buf[0], buf[1], buf[50], buf[51])
	}
}

func TestRenderDeterminism(t *testing.T) {
	track := sineTrack(t, 0)
	track.AddNotes([]bounce.NoteEvent{
		mustNote(t, 0, "A4", 0, 0.5, 1),
		mustNote(t, 0, "C4", 0.25, 0.5, 0.7),
		mustNote(t, 0, "E4", 0.5, 1, 0.3),
	})
	first, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	second, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two renders of the same track differ")
	}
}

func TestRenderOverlapAdditivity(t *testing.T) {
	notes := []bounce.NoteEvent{
		mustNote(t, 0, "A4", 0, 0.5, 0.8),
		mustNote(t, 0, "A4", 0.25, 0.5, 0.6),
	}
	solo := make([]bounce.AudioBuffer, len(notes))
	for i, n := range notes {
		track := sineTrack(t, 0)
		track.AddNote(n)
		var err error
		solo[i], err = bounce.Render(track, testCtx)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}
	}
	both := sineTrack(t, 0)
	both.AddNotes(notes)
	mixed, err := bounce.Render(both, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(mixed) != len(solo[1]) {
		t.Fatalf("mixed length %v, want %v", len(mixed), len(solo[1]))
	}
	for i := range mixed {
		var want float32
		for _, s := range solo {
			if i < len(s) {
				want += s[i]
			}
		}
		if mixed[i] != want {
			t.Fatalf("sample %d: mixed %v, want pointwise sum %v", i, mixed[i], want)
		}
	}
}

func TestRenderZeroDurationNote(t *testing.T) {
	track := bounce.NewTrack(0, dcGenerator{level: 1}, "dc")
	track.AddNote(mustNote(t, 0, "C4", 0.25, 0, 1))
	track.AddNote(mustNote(t, 0, "E4", 0, 0.5, 1))
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(buf) != testCtx.Samples(0.5) {
		t.Fatalf("zero-duration note changed buffer length: %v", len(buf))
	}
	// only the half-bar DC note may contribute
	for i, v := range buf {
		if v != 1 {
			t.Fatalf("sample %d = %v, want 1", i, v)
		}
	}
}

func TestRenderEmptyTrack(t *testing.T) {
	track := bounce.NewTrack(0, nil, "empty")
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(buf) != 0 {
		t.Errorf("empty track rendered %v samples", len(buf))
	}
}

func TestRenderEmptyGenerator(t *testing.T) {
	track := bounce.NewTrack(0, nil, "no generator")
	track.AddNote(mustNote(t, 0, "C4", 0, 1, 1))
	if _, err := bounce.Render(track, testCtx); !errors.Is(err, bounce.ErrEmptyGenerator) {
		t.Errorf("got %v, want ErrEmptyGenerator", err)
	}
}

func TestRenderOnOffPairing(t *testing.T) {
	track := bounce.NewTrack(0, dcGenerator{level: 1}, "dc")
	on, err := bounce.NewNoteEvent(0, "C4", 0, 0, 1, false, true)
	if err != nil {
		t.Fatalf("NewNoteEvent failed: %v", err)
	}
	off, err := bounce.NewNoteEvent(0, "C4", 0.5, 0, 1, false, false)
	if err != nil {
		t.Fatalf("NewNoteEvent failed: %v", err)
	}
	track.AddNotes([]bounce.NoteEvent{on, off})
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := testCtx.Samples(0.5)
	if len(buf) != want {
		t.Fatalf("paired note length = %v, want %v", len(buf), want)
	}
	for i, v := range buf {
		if v != 1 {
			t.Fatalf("sample %d = %v, want 1", i, v)
		}
	}
}

func TestRenderMixedTimebasePairing(t *testing.T) {
	track := bounce.NewTrack(0, dcGenerator{level: 1}, "dc")
	// a time-wise on at sample 10 must close at the bar-time off at bar 0.5,
	// even though 10 > 0.5 when the raw start fields are compared
	on, err := bounce.NewNoteEvent(0, "C4", 10, 0, 1, true, true)
	if err != nil {
		t.Fatalf("NewNoteEvent failed: %v", err)
	}
	off, err := bounce.NewNoteEvent(0, "C4", 0.5, 0, 1, false, false)
	if err != nil {
		t.Fatalf("NewNoteEvent failed: %v", err)
	}
	tail := mustNote(t, 0, "D4", 0.75, 0.25, 1)
	track.AddNotes([]bounce.NoteEvent{on, off, tail})
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	half := testCtx.Samples(0.5)
	threeQuarters := testCtx.Samples(0.75)
	if len(buf) != testCtx.Samples(1.0) {
		t.Fatalf("buffer length = %v, want %v", len(buf), testCtx.Samples(1.0))
	}
	if buf[9] != 0 || buf[10] != 1 || buf[half-1] != 1 {
		t.Error("time-wise on should sound over [10, half bar)")
	}
	if buf[half] != 0 || buf[threeQuarters-1] != 0 {
		t.Error("bar-time off should stop the time-wise on at half bar")
	}
	if buf[threeQuarters] != 1 || buf[len(buf)-1] != 1 {
		t.Error("only the final note should sound in the last quarter bar")
	}
}

func TestRenderUnmatchedOnExtends(t *testing.T) {
	track := bounce.NewTrack(0, dcGenerator{level: 1}, "dc")
	firstOn, _ := bounce.NewNoteEvent(0, "C4", 0, 0, 1, false, true)
	off, _ := bounce.NewNoteEvent(0, "C4", 0.25, 0, 1, false, false)
	secondOn, _ := bounce.NewNoteEvent(0, "C4", 0.5, 0, 1, false, true)
	tail := mustNote(t, 0, "D4", 0.75, 0.25, 1)
	track.AddNotes([]bounce.NoteEvent{firstOn, off, secondOn, tail})
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// the second on-event has no off left, so it extends to the end of the
	// track's last event at bar 1.0
	if len(buf) != testCtx.Samples(1.0) {
		t.Fatalf("buffer length = %v, want %v", len(buf), testCtx.Samples(1.0))
	}
	quarter := testCtx.Samples(0.25)
	half := testCtx.Samples(0.5)
	threeQuarters := testCtx.Samples(0.75)
	if buf[0] != 1 || buf[quarter-1] != 1 {
		t.Error("paired note should sound over the first quarter bar")
	}
	if buf[quarter] != 0 || buf[half-1] != 0 {
		t.Error("nothing should sound between the off and the second on")
	}
	if buf[half] != 1 || buf[threeQuarters-1] != 1 {
		t.Error("unmatched on should sustain from bar 0.5")
	}
	if buf[threeQuarters] != 2 {
		t.Error("unmatched on should overlap the final note")
	}
	if buf[len(buf)-1] != 2 {
		t.Error("unmatched on should extend to the end of the last event")
	}
}

func TestRenderTimeWise(t *testing.T) {
	track := bounce.NewTrack(0, dcGenerator{level: 1}, "dc")
	e, err := bounce.NewNoteEvent(0, "C4", 100, 50, 1, true, true)
	if err != nil {
		t.Fatalf("NewNoteEvent failed: %v", err)
	}
	track.AddNote(e)
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(buf) != 150 {
		t.Fatalf("time-wise note: buffer length %v, want 150", len(buf))
	}
	if buf[99] != 0 || buf[100] != 1 || buf[149] != 1 {
		t.Errorf("time-wise note should span samples [100, 150)")
	}
}

func TestRenderAllMasterMix(t *testing.T) {
	long := bounce.NewTrack(1, dcGenerator{level: 0.25}, "long")
	long.AddNote(mustNote(t, 1, "C4", 0, 1, 1))
	short := bounce.NewTrack(0, dcGenerator{level: 0.5}, "short")
	short.AddNote(mustNote(t, 0, "C4", 0, 0.5, 1))
	// deliberately out of ID order; the mix must not care
	master, err := bounce.RenderAll([]*bounce.Track{long, short}, testCtx)
	if err != nil {
		t.Fatalf("RenderAll failed: %v", err)
	}
	if len(master) != testCtx.Samples(1.0) {
		t.Fatalf("master length = %v, want longest track %v", len(master), testCtx.Samples(1.0))
	}
	half := testCtx.Samples(0.5)
	if master[0] != 0.75 {
		t.Errorf("master[0] = %v, want 0.75", master[0])
	}
	if master[half] != 0.25 {
		t.Errorf("master after the short track ends = %v, want 0.25 (zero padding)", master[half])
	}
}

func TestRenderAllParallelDeterminism(t *testing.T) {
	tracks := make([]*bounce.Track, 8)
	for i := range tracks {
		tracks[i] = sineTrack(t, i)
		tracks[i].AddNote(mustNote(t, i, int(bounce.MiddleC)+i, 0, 1+float64(i)*0.125, 1/float64(i+1)))
	}
	serial, err := bounce.Renderer{Workers: 1}.RenderAll(tracks, testCtx)
	if err != nil {
		t.Fatalf("serial RenderAll failed: %v", err)
	}
	for _, workers := range []int{2, 4, 8} {
		parallel, err := bounce.Renderer{Workers: workers}.RenderAll(tracks, testCtx)
		if err != nil {
			t.Fatalf("parallel RenderAll failed: %v", err)
		}
		if !reflect.DeepEqual(serial, parallel) {
			t.Fatalf("output with %v workers differs from serial output", workers)
		}
	}
}

func TestRenderVelocityScaling(t *testing.T) {
	track := bounce.NewTrack(0, dcGenerator{level: 1}, "dc")
	track.AddNote(mustNote(t, 0, "C4", 0, 0.25, 0.5))
	buf, err := bounce.Render(track, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf[0] != 0.5 {
		t.Errorf("velocity-scaled sample = %v, want 0.5", buf[0])
	}
}

func TestRenderInvalidContext(t *testing.T) {
	track := sineTrack(t, 0)
	bad := testCtx
	bad.BPM = 0
	if _, err := bounce.Render(track, bad); !errors.Is(err, bounce.ErrInvalidTempo) {
		t.Errorf("got %v, want ErrInvalidTempo", err)
	}
}

func TestScoreRenderWindow(t *testing.T) {
	score := bounce.NewScore(testCtx)
	track := score.AddTrack(dcGenerator{level: 1}, "dc")
	track.AddNote(mustNote(t, track.ID, "C4", 0, 1, 1))
	window, err := score.RenderWindow(0.5, 2)
	if err != nil {
		t.Fatalf("RenderWindow failed: %v", err)
	}
	if len(window) != testCtx.Samples(2)-testCtx.Samples(0.5) {
		t.Fatalf("window length = %v", len(window))
	}
	half := testCtx.Samples(0.5)
	if window[0] != 1 || window[half-1] != 1 {
		t.Error("window should open mid-note")
	}
	if window[half] != 0 || window[len(window)-1] != 0 {
		t.Error("window should be zero padded past the last note")
	}
	if _, err := score.RenderWindow(2, 1); err == nil {
		t.Error("inverted window should have failed")
	}
}

func TestRenderWavetableMatchesGenerator(t *testing.T) {
	synth, err := bounce.NewSynthesizer(bounce.SynthParams{Wave: bounce.Saw, Env: flatEnv})
	if err != nil {
		t.Fatalf("NewSynthesizer failed: %v", err)
	}
	notes := []bounce.NoteEvent{
		mustNote(t, 0, "C4", 0, 0.25, 1),
		mustNote(t, 0, "C4", 0.5, 0.25, 0.5),
		mustNote(t, 0, "E4", 0.25, 0.25, 1),
	}
	direct := bounce.NewTrack(0, synth, "direct")
	direct.AddNotes(notes)
	cached := bounce.NewTrack(0, bounce.NewWavetable(synth), "cached")
	cached.AddNotes(notes)
	a, err := bounce.Render(direct, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	b, err := bounce.Render(cached, testCtx)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("wavetable-backed render differs from direct render")
	}
}
