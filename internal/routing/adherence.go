package routing

import (
	"context"
	"fmt"

	"tripcrew/internal/models"
)

// DefaultThresholdKm is how far from the route a position may be and still
// count as on route
const DefaultThresholdKm = 0.5

// RouteLoader reads a trip's planned route in sequence order
type RouteLoader interface {
	RoutePoints(ctx context.Context, tripID int64) ([]models.RoutePoint, error)
}

// Adherence decides whether a position is on a trip's planned route
type Adherence struct {
	loader      RouteLoader
	cache       *RouteCache
	thresholdKm float64
}

func NewAdherence(loader RouteLoader, cache *RouteCache, thresholdKm float64) *Adherence {
	if thresholdKm <= 0 {
		thresholdKm = DefaultThresholdKm
	}
	return &Adherence{loader: loader, cache: cache, thresholdKm: thresholdKm}
}

// Evaluate returns nil when the trip has no planned route
func (a *Adherence) Evaluate(ctx context.Context, tripID int64, lat, lon float64) (*models.RouteStatus, error) {
	route, err := a.route(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if len(route) == 0 {
		return nil, nil
	}

	distance := DistanceToRoute(LatLng{Latitude: lat, Longitude: lon}, route)
	return &models.RouteStatus{
		IsOnRoute:           distance <= a.thresholdKm,
		DistanceFromRouteKm: distance,
	}, nil
}

func (a *Adherence) route(ctx context.Context, tripID int64) ([]LatLng, error) {
	if a.cache != nil {
		if route, ok := a.cache.Get(tripID); ok {
			return route, nil
		}
	}

	points, err := a.loader.RoutePoints(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to load route for trip %d: %w", tripID, err)
	}

	route := make([]LatLng, len(points))
	for i, p := range points {
		route[i] = LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	if a.cache != nil {
		a.cache.Set(tripID, route)
	}
	return route, nil
}
