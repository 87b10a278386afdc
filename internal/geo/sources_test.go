package geo

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type recorder struct {
	positions chan Position
	errors    chan error
}

func newRecorder() *recorder {
	return &recorder{positions: make(chan Position, 16), errors: make(chan error, 4)}
}

func (r *recorder) onPosition(p Position) { r.positions <- p }
func (r *recorder) onError(err error)     { r.errors <- err }

func TestFileSourceFollowsAppendedFixes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.jsonl")
	if err := os.WriteFile(path, []byte(`{"lat": 1, "lon": 1}`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewFileSource(path)
	rec := newRecorder()
	id, err := src.Watch(WatchOptions{Timeout: 5 * time.Second}, rec.onPosition, rec.onError)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer src.ClearWatch(id)

	// Give the follower time to seek past the cached fix.
	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	f.WriteString("not json\n")
	f.WriteString(`{"lat": 37.33, "lon": -121.88, "accuracy": 4, "time": "2026-10-14T09:30:00Z"}` + "\n")

	select {
	case p := <-rec.positions:
		if p.Latitude != 37.33 || p.Longitude != -121.88 {
			t.Fatalf("unexpected fix %+v", p)
		}
		if p.Accuracy == nil || *p.Accuracy != 4 {
			t.Fatalf("expected accuracy 4, got %v", p.Accuracy)
		}
	case err := <-rec.errors:
		t.Fatalf("unexpected error %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for appended fix")
	}
}

func TestFileSourceMissingFileIsUnavailable(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "nope.jsonl"))
	rec := newRecorder()
	src.Watch(DefaultWatchOptions, rec.onPosition, rec.onError)

	select {
	case err := <-rec.errors:
		if kind := Classify(err).Kind; kind != KindPositionUnavailable {
			t.Fatalf("expected position-unavailable, got %s", kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected an error for a missing file")
	}
}

func TestFileSourceTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.jsonl")
	os.WriteFile(path, nil, 0o644)

	src := NewFileSource(path)
	rec := newRecorder()
	src.Watch(WatchOptions{Timeout: 50 * time.Millisecond}, rec.onPosition, rec.onError)

	select {
	case err := <-rec.errors:
		if kind := Classify(err).Kind; kind != KindTimeout {
			t.Fatalf("expected timeout, got %s", kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected timeout error")
	}
}

func TestReplaySourcePlaysTrackThenFails(t *testing.T) {
	src, err := ParseReplay([]byte(`
points:
  - {lat: 1.0, lon: 2.0, accuracy: 3, after: 1ms}
  - {lat: 1.1, lon: 2.1, after: 1ms}
  - {error: permission-denied, after: 1ms}
`))
	if err != nil {
		t.Fatalf("ParseReplay failed: %v", err)
	}

	rec := newRecorder()
	src.Watch(DefaultWatchOptions, rec.onPosition, rec.onError)

	for i, want := range []float64{1.0, 1.1} {
		select {
		case p := <-rec.positions:
			if p.Latitude != want {
				t.Fatalf("point %d: expected lat %g, got %g", i, want, p.Latitude)
			}
		case <-time.After(time.Second):
			t.Fatalf("point %d never arrived", i)
		}
	}
	select {
	case err := <-rec.errors:
		if kind := Classify(err).Kind; kind != KindPermissionDenied {
			t.Fatalf("expected permission-denied, got %s", kind)
		}
	case <-time.After(time.Second):
		t.Fatal("expected replayed error")
	}
}

func TestReplaySourceGapLongerThanTimeout(t *testing.T) {
	src, err := ParseReplay([]byte("points:\n  - {lat: 1, lon: 1, after: 1h}\n"))
	if err != nil {
		t.Fatal(err)
	}
	rec := newRecorder()
	src.Watch(WatchOptions{Timeout: 10 * time.Millisecond}, rec.onPosition, rec.onError)

	select {
	case err := <-rec.errors:
		if kind := Classify(err).Kind; kind != KindTimeout {
			t.Fatalf("expected timeout, got %s", kind)
		}
	case <-rec.positions:
		t.Fatal("fix should not arrive before the timeout")
	case <-time.After(time.Second):
		t.Fatal("expected timeout error")
	}
}

func TestReplaySourceClearWatchStopsPlayback(t *testing.T) {
	src, _ := ParseReplay([]byte("loop: true\npoints:\n  - {lat: 1, lon: 1, after: 5ms}\n"))
	rec := newRecorder()
	id, _ := src.Watch(DefaultWatchOptions, rec.onPosition, rec.onError)
	<-rec.positions
	src.ClearWatch(id)

	// Drain anything already in flight, then expect silence.
	time.Sleep(20 * time.Millisecond)
	for len(rec.positions) > 0 {
		<-rec.positions
	}
	select {
	case <-rec.positions:
		t.Fatal("playback continued after ClearWatch")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseReplayRejectsEmptyTrack(t *testing.T) {
	if _, err := ParseReplay([]byte("points: []\n")); err == nil {
		t.Fatal("expected error for empty track")
	}
}
