package models

// MessageTypeRouteDeviation is pushed to a member when their device leaves the route
const MessageTypeRouteDeviation = "route-deviation"

// RouteDeviationMessage is the WebSocket payload for MessageTypeRouteDeviation
type RouteDeviationMessage struct {
	Type              string  `json:"type"`
	TripID            int64   `json:"tripId"`
	Message           string  `json:"message"`
	DistanceFromRoute float64 `json:"distanceFromRoute"`
}
