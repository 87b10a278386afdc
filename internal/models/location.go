package models

import "time"

// LocationSample is a single position fix captured by the device
type LocationSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"` // Meters
	CapturedAt time.Time `json:"capturedAt"`
}

// RouteStatus is the backend's verdict on how far a sample is from the planned route
type RouteStatus struct {
	IsOnRoute           bool    `json:"isOnRoute"`
	DistanceFromRouteKm float64 `json:"distanceFromRoute"`
}

// DeviationState is the tracking session's current off-route condition.
// A nil *DeviationState means the device is on route (or nothing is known yet).
type DeviationState struct {
	IsDeviated bool    `json:"isDeviated"`
	DistanceKm float64 `json:"distanceKm"`
}

// LocationReport is the body of POST /api/trips/{tripId}/location
type LocationReport struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	CapturedAt time.Time `json:"capturedAt,omitempty"`
}

// LocationReportResponse is returned by the location endpoint.
// RouteStatus is omitted when the trip has no planned route.
type LocationReportResponse struct {
	RouteStatus *RouteStatus `json:"routeStatus,omitempty"`
}

// TripLocation is a stored location report (trip_locations table)
type TripLocation struct {
	ID                  int64    `json:"id" db:"id"`
	TripID              int64    `json:"trip_id" db:"trip_id"`
	UserID              int64    `json:"user_id" db:"user_id"`
	Latitude            float64  `json:"latitude" db:"latitude"`
	Longitude           float64  `json:"longitude" db:"longitude"`
	Accuracy            *float64 `json:"accuracy,omitempty" db:"accuracy"`
	CapturedAt          int64    `json:"captured_at" db:"captured_at"` // Client-side timestamp
	IsOnRoute           *bool    `json:"is_on_route,omitempty" db:"is_on_route"`
	DistanceFromRouteKm *float64 `json:"distance_from_route_km,omitempty" db:"distance_from_route_km"`
	CreatedAt           int64    `json:"created_at" db:"created_at"` // Server-side timestamp
}
