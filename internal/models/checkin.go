package models

import "time"

// CheckInState is a member's self-reported readiness
type CheckInState string

const (
	CheckInReady    CheckInState = "ready"
	CheckInNotReady CheckInState = "not-ready"
	CheckInDelayed  CheckInState = "delayed"
)

// Valid reports whether s is one of the known readiness values
func (s CheckInState) Valid() bool {
	switch s {
	case CheckInReady, CheckInNotReady, CheckInDelayed:
		return true
	}
	return false
}

// CheckInStatus is one member's check-in for a trip. One per (trip, user).
type CheckInStatus struct {
	UserID      int64        `json:"userId"`
	Status      CheckInState `json:"status"`
	Notes       *string      `json:"notes,omitempty"`
	CheckedInAt *time.Time   `json:"checkedInAt,omitempty"`
}

// CheckInSubmission is the body of POST /api/trips/{tripId}/check-ins
type CheckInSubmission struct {
	Status CheckInState `json:"status"`
	Notes  *string      `json:"notes,omitempty"`
}

// CheckInSubmitResponse echoes the stored check-in plus the group verdict
type CheckInSubmitResponse struct {
	CheckInStatus
	AllReady bool `json:"allReady,omitempty"`
}

// CheckInStatusResponse is returned by GET /api/trips/{tripId}/check-in-status.
// Owners receive every member's entry; members receive only their own, with
// ReadyCount and AllReady summarizing the whole group.
type CheckInStatusResponse struct {
	CheckInStatuses []CheckInStatus `json:"checkInStatuses"`
	TripInfo        *TripInfo       `json:"tripInfo,omitempty"`
	AccessLevel     AccessLevel     `json:"accessLevel,omitempty"` // The caller's role
	ReadyCount      int             `json:"readyCount"`
	AllReady        bool            `json:"allReady"`
}

// CheckIn is the check_ins row
type CheckIn struct {
	TripID      int64   `db:"trip_id"`
	UserID      int64   `db:"user_id"`
	Status      string  `db:"status"`
	Notes       *string `db:"notes"`
	CheckedInAt int64   `db:"checked_in_at"` // Unix timestamp
	UpdatedAt   int64   `db:"updated_at"`
}

// ToCheckInStatus converts a CheckIn row to the wire shape
func (c *CheckIn) ToCheckInStatus() CheckInStatus {
	t := time.Unix(c.CheckedInAt, 0).UTC()
	return CheckInStatus{
		UserID:      c.UserID,
		Status:      CheckInState(c.Status),
		Notes:       c.Notes,
		CheckedInAt: &t,
	}
}
