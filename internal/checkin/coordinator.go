// Package checkin reconciles the user's own readiness with the group roster
// and confirms the trip once every member is ready.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"tripcrew/internal/apiclient"
	"tripcrew/internal/models"
	"tripcrew/internal/notify"
)

var ErrInvalidStatus = errors.New("invalid check-in status")

// State is the viewing user's position in the check-in flow
type State int

const (
	NotCheckedIn State = iota
	CheckedIn
)

func (s State) String() string {
	if s == CheckedIn {
		return "checked-in"
	}
	return "not-checked-in"
}

// Roster is what the viewing user may see of the group
type Roster struct {
	Access     models.AccessLevel
	Entries    []models.CheckInStatus // Every member for owners, only self for members
	ReadyCount int
	Total      int
}

// Options configures a Coordinator. Access is only a starting point; the
// level reported by the backend replaces it on the first refresh.
type Options struct {
	TripID int64
	UserID int64
	Access models.AccessLevel

	// OnTripRefreshed runs after the one-time trip refresh that follows the
	// group becoming ready.
	OnTripRefreshed func(models.TripInfo)
}

type Coordinator struct {
	api     API
	toaster notify.Toaster
	opts    Options

	mu        sync.Mutex
	access    models.AccessLevel
	mine      *models.CheckInStatus
	statuses  []models.CheckInStatus
	trip      *models.TripInfo
	summary   *groupSummary
	refreshed bool
}

// groupSummary is the backend's verdict over the whole group, used when the
// roster it returns is filtered to the caller
type groupSummary struct {
	readyCount int
	allReady   bool
}

func NewCoordinator(api API, toaster notify.Toaster, opts Options) *Coordinator {
	if toaster == nil {
		toaster = notify.LogToaster{}
	}
	if opts.Access == "" {
		opts.Access = models.AccessMember
	}
	return &Coordinator{api: api, toaster: toaster, opts: opts, access: opts.Access}
}

// Load fetches the user's own check-in and the group roster
func (c *Coordinator) Load(ctx context.Context) error {
	mine, err := c.api.FetchMine(ctx, c.opts.TripID, c.opts.UserID)
	if err != nil {
		return fmt.Errorf("load own check-in: %w", err)
	}
	c.mu.Lock()
	c.mine = mine
	c.mu.Unlock()

	_, err = c.Refresh(ctx)
	return err
}

// Refresh refetches the roster and reports group readiness. The first time
// the group is ready while the trip is planning, the trip is refreshed.
func (c *Coordinator) Refresh(ctx context.Context) (bool, error) {
	resp, err := c.api.FetchStatuses(ctx, c.opts.TripID)
	if err != nil {
		return false, fmt.Errorf("fetch check-in status: %w", err)
	}

	statuses := Dedupe(resp.CheckInStatuses)

	c.mu.Lock()
	c.statuses = statuses
	c.summary = nil
	if resp.AccessLevel != "" {
		c.access = resp.AccessLevel
		c.summary = &groupSummary{readyCount: resp.ReadyCount, allReady: resp.AllReady}
	}
	if resp.TripInfo != nil {
		info := *resp.TripInfo
		c.trip = &info
	}
	for i := range statuses {
		if statuses[i].UserID == c.opts.UserID {
			own := statuses[i]
			c.mine = &own
		}
	}
	ready := c.groupReadyLocked()
	planning := c.trip != nil && c.trip.Status == models.TripPlanning
	c.mu.Unlock()

	if ready && planning {
		c.refreshTrip(ctx)
	}
	return ready, nil
}

// Submit posts the user's status. Local state changes only after the server
// accepts it.
func (c *Coordinator) Submit(ctx context.Context, status models.CheckInState, notes string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	c.mu.Lock()
	known := c.trip != nil
	c.mu.Unlock()
	if !known {
		// Needed to tell whether the trip was planning before this submit
		if info, err := c.api.FetchTrip(ctx, c.opts.TripID); err == nil {
			c.mu.Lock()
			c.trip = info
			c.mu.Unlock()
		} else {
			log.Printf("⚠️  Failed to fetch trip %d before check-in: %v", c.opts.TripID, err)
		}
	}

	sub := models.CheckInSubmission{Status: status}
	if notes != "" {
		sub.Notes = &notes
	}

	resp, err := c.api.Submit(ctx, c.opts.TripID, sub)
	if err != nil {
		log.Printf("❌ Check-in submit failed for trip %d: %v", c.opts.TripID, err)
		c.toaster.Toast(notify.Toast{Level: notify.LevelError, Title: "Check-in failed", Message: apiclient.Message(err)})
		return err
	}

	saved := resp.CheckInStatus
	if saved.UserID == 0 {
		saved.UserID = c.opts.UserID
	}

	c.mu.Lock()
	if c.summary != nil {
		c.summary.readyCount += readyDelta(c.mine, saved)
		c.summary.allReady = resp.AllReady
	}
	c.mine = &saved
	c.upsertLocked(saved)
	wasPlanning := c.trip != nil && c.trip.Status == models.TripPlanning
	c.mu.Unlock()

	log.Printf("✅ Checked in as %s for trip %d", saved.Status, c.opts.TripID)

	if resp.AllReady && wasPlanning && c.refreshTrip(ctx) {
		c.toaster.Toast(notify.Toast{Level: notify.LevelSuccess, Title: "Trip confirmed", Message: "Everyone is ready. The trip is confirmed."})
		return nil
	}
	c.toaster.Toast(notify.Toast{Level: notify.LevelSuccess, Title: "Check-in status updated", Message: fmt.Sprintf("Your status is now %s.", saved.Status)})
	return nil
}

// State returns the flow state and a copy of the user's own check-in
func (c *Coordinator) State() (State, *models.CheckInStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mine == nil {
		return NotCheckedIn, nil
	}
	own := *c.mine
	return CheckedIn, &own
}

// Trip returns the last known trip summary
func (c *Coordinator) Trip() *models.TripInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trip == nil {
		return nil
	}
	info := *c.trip
	return &info
}

// GroupReady evaluates readiness over the last fetched roster
func (c *Coordinator) GroupReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.groupReadyLocked()
}

// Roster applies the visibility rule for the caller's access level
func (c *Coordinator) Roster() Roster {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Roster{
		Access:     c.access,
		ReadyCount: ReadyCount(c.statuses),
		Total:      c.memberCountLocked(),
	}
	if c.summary != nil {
		r.ReadyCount = c.summary.readyCount
	}
	if r.Total == 0 {
		r.Total = len(c.statuses)
	}
	if c.access == models.AccessOwner {
		r.Entries = append([]models.CheckInStatus(nil), c.statuses...)
		return r
	}
	if c.mine != nil {
		r.Entries = []models.CheckInStatus{*c.mine}
	}
	return r
}

func (c *Coordinator) groupReadyLocked() bool {
	if c.summary != nil {
		return c.summary.allReady
	}
	return ComputeGroupReadiness(c.statuses, c.memberCountLocked())
}

// memberCountLocked is 0 while the trip's size is unknown, which keeps the
// group not ready
func (c *Coordinator) memberCountLocked() int {
	if c.trip != nil && c.trip.MemberCount > 0 {
		return c.trip.MemberCount
	}
	return 0
}

func readyDelta(prev *models.CheckInStatus, next models.CheckInStatus) int {
	was := prev != nil && prev.Status == models.CheckInReady
	is := next.Status == models.CheckInReady
	switch {
	case is && !was:
		return 1
	case was && !is:
		return -1
	}
	return 0
}

func (c *Coordinator) upsertLocked(s models.CheckInStatus) {
	for i := range c.statuses {
		if c.statuses[i].UserID == s.UserID {
			c.statuses[i] = s
			return
		}
	}
	c.statuses = append(c.statuses, s)
}

// refreshTrip runs at most once per Coordinator. It reports whether this
// call was the one that ran it.
func (c *Coordinator) refreshTrip(ctx context.Context) bool {
	c.mu.Lock()
	if c.refreshed {
		c.mu.Unlock()
		return false
	}
	c.refreshed = true
	c.mu.Unlock()

	info, err := c.api.FetchTrip(ctx, c.opts.TripID)
	if err != nil {
		log.Printf("❌ Failed to refresh trip %d: %v", c.opts.TripID, err)
		return true
	}

	c.mu.Lock()
	c.trip = info
	c.mu.Unlock()
	log.Printf("✅ Trip %d is now %s", c.opts.TripID, info.Status)

	if c.opts.OnTripRefreshed != nil {
		c.opts.OnTripRefreshed(*info)
	}
	return true
}
