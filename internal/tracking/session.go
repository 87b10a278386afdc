package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"tripcrew/internal/apiclient"
	"tripcrew/internal/geo"
	"tripcrew/internal/models"
	"tripcrew/internal/notify"
)

// LocationReporter is satisfied by *Reporter
type LocationReporter interface {
	Report(ctx context.Context, tripID int64, sample models.LocationSample) (*models.RouteStatus, error)
}

// Alerts is satisfied by *notify.Dispatcher
type Alerts interface {
	Notify(ctx context.Context, title, body string) bool
	Toast(t notify.Toast)
}

// SessionOptions tunes a Session. Zero values pick the defaults.
type SessionOptions struct {
	// RealertInterval is how long a persisting deviation stays quiet before
	// alerting again.
	RealertInterval time.Duration
	Now             func() time.Time
}

const defaultRealertInterval = 2 * time.Minute

// anyGeneration marks state updates that do not belong to a tracking run
const anyGeneration = 0

// Session owns the tracking flow for one trip: watcher samples go to the
// reporter, replies are evaluated, deviations raise alerts.
type Session struct {
	ID     string
	TripID int64

	watcher  *geo.Watcher
	reporter LocationReporter
	alerts   Alerts
	realert  time.Duration
	now      func() time.Time

	mu         sync.Mutex
	active     bool
	generation uint64
	handle     geo.Handle
	deviation  *models.DeviationState
	lastAlert  time.Time

	inflight sync.WaitGroup
}

func NewSession(tripID int64, watcher *geo.Watcher, reporter LocationReporter, alerts Alerts, opts SessionOptions) *Session {
	if opts.RealertInterval <= 0 {
		opts.RealertInterval = defaultRealertInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		ID:       uuid.NewString(),
		TripID:   tripID,
		watcher:  watcher,
		reporter: reporter,
		alerts:   alerts,
		realert:  opts.RealertInterval,
		now:      opts.Now,
	}
}

// Start begins tracking. Calling Start on an active session is a no-op.
// ctx scopes the outbound reports, not the watch itself; use Stop for that.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	h, err := s.watcher.Start(
		func(sample models.LocationSample) { s.onSample(ctx, gen, sample) },
		func(pe *geo.PositionError) { s.onWatchError(gen, pe) },
	)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.active = false
		}
		s.mu.Unlock()
		if errors.Is(err, geo.ErrUnsupported) {
			s.alerts.Toast(notify.Toast{
				Level:   notify.LevelWarning,
				Title:   "Location unavailable",
				Message: "Location tracking is not supported on this device.",
			})
		}
		return fmt.Errorf("start tracking: %w", err)
	}

	s.mu.Lock()
	s.handle = h
	s.mu.Unlock()
	log.Printf("📍 Tracking session %s started for trip %d", s.ID, s.TripID)
	return nil
}

// Stop clears the watch immediately. Reports already in flight finish, but
// their results are discarded.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.generation++
	h := s.handle
	s.handle = 0
	s.mu.Unlock()

	s.watcher.Stop(h)
	log.Printf("🔴 Tracking session %s stopped for trip %d", s.ID, s.TripID)
}

// IsTracking reports whether the session is active
func (s *Session) IsTracking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Deviation returns a copy of the current state, nil when on route
func (s *Session) Deviation() *models.DeviationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deviation == nil {
		return nil
	}
	d := *s.deviation
	return &d
}

// Wait blocks until every in-flight report has returned
func (s *Session) Wait() {
	s.inflight.Wait()
}

// ApplyRealtime folds a server-pushed deviation into the session state.
// The last write wins against polled reports; there is no sequencing.
func (s *Session) ApplyRealtime(ctx context.Context, message string, distanceKm float64) {
	s.apply(ctx, anyGeneration, &models.RouteStatus{IsOnRoute: false, DistanceFromRouteKm: distanceKm}, message)
}

func (s *Session) live(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.generation == gen
}

func (s *Session) onSample(ctx context.Context, gen uint64, sample models.LocationSample) {
	if !s.live(gen) {
		return
	}
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		status, err := s.reporter.Report(ctx, s.TripID, sample)
		if !s.live(gen) {
			log.Printf("⚠️  Discarding location report result from stopped session %s", s.ID)
			return
		}
		if err != nil {
			log.Printf("❌ %v", err)
			s.alerts.Toast(notify.Toast{
				Level:   notify.LevelError,
				Title:   "Location update failed",
				Message: apiclient.Message(err),
			})
			return
		}
		s.apply(ctx, gen, status, "")
	}()
}

func (s *Session) onWatchError(gen uint64, pe *geo.PositionError) {
	s.mu.Lock()
	if !s.active || s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.handle = 0
	s.mu.Unlock()

	s.alerts.Toast(notify.Toast{
		Level:   notify.LevelError,
		Title:   "Location tracking stopped",
		Message: pe.Message(),
	})
}

// apply folds a status into the deviation state. A report result is dropped
// unless gen is still the live run when the state is written.
func (s *Session) apply(ctx context.Context, gen uint64, status *models.RouteStatus, message string) {
	now := s.now()

	s.mu.Lock()
	if gen != anyGeneration && (!s.active || s.generation != gen) {
		s.mu.Unlock()
		log.Printf("⚠️  Discarding location report result from stopped session %s", s.ID)
		return
	}
	prev := s.deviation
	next := Evaluate(prev, status)
	s.deviation = next
	alert := next != nil && (prev == nil || now.Sub(s.lastAlert) >= s.realert)
	if alert {
		s.lastAlert = now
	}
	cleared := prev != nil && next == nil
	s.mu.Unlock()

	switch {
	case alert:
		if message == "" {
			message = fmt.Sprintf("You are %.2f km away from the planned route.", next.DistanceKm)
		}
		log.Printf("⚠️  Route deviation on trip %d: %.2f km", s.TripID, next.DistanceKm)
		s.alerts.Notify(ctx, "Route deviation", message)
	case cleared:
		log.Printf("✅ Back on route for trip %d", s.TripID)
		s.alerts.Toast(notify.Toast{
			Level:   notify.LevelSuccess,
			Title:   "Back on route",
			Message: "You are back on the planned route.",
		})
	}
}
