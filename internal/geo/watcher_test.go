package geo

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"tripcrew/internal/models"
)

// fakeSource records registrations and lets the test drive callbacks
type fakeSource struct {
	mu       sync.Mutex
	next     WatchID
	active   map[WatchID]bool
	cleared  []WatchID
	opts     WatchOptions
	watches  int
	onPos    func(Position)
	onErr    func(error)
	watchErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{active: make(map[WatchID]bool)}
}

func (f *fakeSource) Watch(opts WatchOptions, onPosition func(Position), onError func(error)) (WatchID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchErr != nil {
		return 0, f.watchErr
	}
	f.next++
	f.watches++
	f.active[f.next] = true
	f.opts = opts
	f.onPos = onPosition
	f.onErr = onError
	return f.next, nil
}

func (f *fakeSource) ClearWatch(id WatchID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, id)
	f.cleared = append(f.cleared, id)
}

func (f *fakeSource) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func TestWatcherRequestsHighAccuracyNoCache(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src)
	if _, err := w.Start(func(models.LocationSample) {}, func(*PositionError) {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !src.opts.EnableHighAccuracy || src.opts.Timeout != 10*time.Second || src.opts.MaximumAge != 0 {
		t.Fatalf("unexpected watch options %+v", src.opts)
	}
}

func TestWatcherNormalizesSamples(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src)
	fixed := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	var got []models.LocationSample
	w.Start(func(s models.LocationSample) { got = append(got, s) }, func(*PositionError) {})

	acc := 7.5
	src.onPos(Position{Latitude: 1.5, Longitude: 2.5, Accuracy: &acc})
	acc = 99 // mutating the source's value must not leak into the sample

	if len(got) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(got))
	}
	s := got[0]
	if s.Latitude != 1.5 || s.Longitude != 2.5 {
		t.Errorf("unexpected coordinates %+v", s)
	}
	if s.Accuracy == nil || *s.Accuracy != 7.5 {
		t.Errorf("expected accuracy 7.5, got %v", s.Accuracy)
	}
	if !s.CapturedAt.Equal(fixed) {
		t.Errorf("expected zero timestamp to fall back to now, got %s", s.CapturedAt)
	}
}

func TestWatcherStartIsIdempotent(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src)
	h1, _ := w.Start(func(models.LocationSample) {}, func(*PositionError) {})
	h2, _ := w.Start(func(models.LocationSample) {}, func(*PositionError) {})
	if h1 != h2 {
		t.Fatalf("expected same handle, got %d and %d", h1, h2)
	}
	if src.watches != 1 {
		t.Fatalf("expected a single registration, got %d", src.watches)
	}

	w.Stop(h1)
	w.Stop(h1)
	if src.activeCount() != 0 || len(src.cleared) != 1 {
		t.Fatalf("expected exactly one clear, got cleared=%v", src.cleared)
	}

	h3, _ := w.Start(func(models.LocationSample) {}, func(*PositionError) {})
	if h3 == h1 {
		t.Fatal("a new activation must get a new handle")
	}
	w.Stop(h1) // stale
	if !w.IsTracking() {
		t.Fatal("stale Stop must not stop the new activation")
	}
}

func TestWatcherPermissionDeniedStopsTracking(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src)

	var errs []*PositionError
	w.Start(func(models.LocationSample) {}, func(pe *PositionError) { errs = append(errs, pe) })

	src.onErr(NewPositionError(KindPermissionDenied, errors.New("user denied")))
	src.onErr(NewPositionError(KindPermissionDenied, errors.New("user denied again")))

	if w.IsTracking() {
		t.Fatal("expected tracking to stop on error")
	}
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error surfaced, got %d", len(errs))
	}
	if errs[0].Kind != KindPermissionDenied {
		t.Errorf("expected permission-denied, got %s", errs[0].Kind)
	}
	if src.activeCount() != 0 {
		t.Fatal("watch registration should be cleared")
	}
}

func TestWatcherDropsSamplesAfterStop(t *testing.T) {
	src := newFakeSource()
	w := NewWatcher(src)
	var n int
	h, _ := w.Start(func(models.LocationSample) { n++ }, func(*PositionError) {})
	w.Stop(h)
	src.onPos(Position{Latitude: 1, Longitude: 1})
	if n != 0 {
		t.Fatalf("expected no samples after stop, got %d", n)
	}
}

func TestWatcherUnsupported(t *testing.T) {
	w := NewWatcher(nil)
	if _, err := w.Start(nil, nil); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestWatcherRegistrationFailure(t *testing.T) {
	src := newFakeSource()
	src.watchErr = errors.New("boom")
	w := NewWatcher(src)
	if _, err := w.Start(func(models.LocationSample) {}, func(*PositionError) {}); err == nil {
		t.Fatal("expected registration error")
	}
	if w.IsTracking() {
		t.Fatal("failed registration must leave the watcher idle")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"permission", os.ErrPermission, KindPermissionDenied},
		{"missing", &os.PathError{Op: "open", Path: "/x", Err: os.ErrNotExist}, KindPositionUnavailable},
		{"deadline", os.ErrDeadlineExceeded, KindTimeout},
		{"explicit", NewPositionError(KindTimeout, nil), KindTimeout},
		{"unknown kind", NewPositionError("satellites-angry", nil), KindUnknown},
		{"other", errors.New("???"), KindUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err).Kind; got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestErrorMessagesAreDistinct(t *testing.T) {
	seen := map[string]ErrorKind{}
	for _, kind := range []ErrorKind{KindPermissionDenied, KindPositionUnavailable, KindTimeout, KindUnknown} {
		msg := NewPositionError(kind, nil).Message()
		if other, dup := seen[msg]; dup {
			t.Fatalf("%s and %s share a message", kind, other)
		}
		seen[msg] = kind
	}
}
