package models

// TripStatus is the lifecycle state of a trip
type TripStatus string

const (
	TripPlanning   TripStatus = "planning"
	TripConfirmed  TripStatus = "confirmed"
	TripInProgress TripStatus = "in-progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

// AccessLevel is a member's role within a trip group
type AccessLevel string

const (
	AccessOwner  AccessLevel = "owner"
	AccessMember AccessLevel = "member"
)

// Trip is the trips row
type Trip struct {
	ID            int64   `json:"id" db:"id"`
	Name          string  `json:"name" db:"name"`
	Status        string  `json:"status" db:"status"`
	OwnerID       int64   `json:"owner_id" db:"owner_id"`
	StartLocation *string `json:"start_location,omitempty" db:"start_location"`
	EndLocation   *string `json:"end_location,omitempty" db:"end_location"`
	StartDate     *int64  `json:"start_date,omitempty" db:"start_date"` // Unix timestamp
	MemberCount   int     `json:"member_count" db:"member_count"`
	CreatedAt     int64   `json:"created_at" db:"created_at"`
	UpdatedAt     int64   `json:"updated_at" db:"updated_at"`
}

// TripInfo is the trip summary the check-in flow needs
type TripInfo struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name,omitempty"`
	Status      TripStatus `json:"status"`
	MemberCount int        `json:"memberCount"`
}

// ToTripInfo converts a Trip row to its summary
func (t *Trip) ToTripInfo() TripInfo {
	return TripInfo{
		ID:          t.ID,
		Name:        t.Name,
		Status:      TripStatus(t.Status),
		MemberCount: t.MemberCount,
	}
}

// RoutePoint is one vertex of a trip's planned route polyline
type RoutePoint struct {
	TripID    int64   `json:"trip_id" db:"trip_id"`
	Seq       int     `json:"seq" db:"seq"`
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}
