package geo

import (
	"log"
	"sync"
	"time"

	"tripcrew/internal/models"
)

// Handle identifies one activation of a Watcher. Zero is never a valid handle.
type Handle uint64

// Watcher turns a Source into a LocationSample stream with at most one
// active registration.
type Watcher struct {
	source Source
	opts   WatchOptions
	now    func() time.Time

	mu         sync.Mutex
	next       Handle
	active     Handle
	watchID    WatchID
	registered bool
}

func NewWatcher(source Source) *Watcher {
	return &Watcher{source: source, opts: DefaultWatchOptions, now: time.Now}
}

// Start registers a continuous watch. When already tracking it returns the
// live handle without registering again.
func (w *Watcher) Start(onSample func(models.LocationSample), onError func(*PositionError)) (Handle, error) {
	if w.source == nil {
		return 0, ErrUnsupported
	}

	w.mu.Lock()
	if w.active != 0 {
		h := w.active
		w.mu.Unlock()
		return h, nil
	}
	w.next++
	h := w.next
	w.active = h
	w.registered = false
	w.mu.Unlock()

	id, err := w.source.Watch(w.opts,
		func(p Position) {
			if !w.isActive(h) {
				return
			}
			onSample(w.normalize(p))
		},
		func(err error) {
			pe := Classify(err)
			if !w.deactivate(h) {
				return
			}
			log.Printf("❌ Geolocation error (%s): %v", pe.Kind, pe.Err)
			onError(pe)
		},
	)
	if err != nil {
		w.mu.Lock()
		if w.active == h {
			w.active = 0
		}
		w.mu.Unlock()
		return 0, err
	}

	w.mu.Lock()
	if w.active != h {
		// Stopped or failed while registering
		w.mu.Unlock()
		w.source.ClearWatch(id)
		return h, nil
	}
	w.watchID = id
	w.registered = true
	w.mu.Unlock()
	return h, nil
}

// Stop clears the watch for h immediately. Stale handles are ignored.
func (w *Watcher) Stop(h Handle) {
	w.deactivate(h)
}

func (w *Watcher) IsTracking() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active != 0
}

func (w *Watcher) isActive(h Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return h != 0 && w.active == h
}

// deactivate invalidates h and clears its registration; false when h was not active
func (w *Watcher) deactivate(h Handle) bool {
	w.mu.Lock()
	if h == 0 || w.active != h {
		w.mu.Unlock()
		return false
	}
	w.active = 0
	id, registered := w.watchID, w.registered
	w.registered = false
	w.mu.Unlock()

	if registered {
		w.source.ClearWatch(id)
	}
	return true
}

func (w *Watcher) normalize(p Position) models.LocationSample {
	captured := p.Timestamp
	if captured.IsZero() {
		captured = w.now()
	}
	var accuracy *float64
	if p.Accuracy != nil {
		a := *p.Accuracy
		accuracy = &a
	}
	return models.LocationSample{
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Accuracy:   accuracy,
		CapturedAt: captured,
	}
}
