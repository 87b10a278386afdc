package tracking

import "tripcrew/internal/models"

// Evaluate folds one RouteStatus into the previous DeviationState.
// A missing status leaves prev untouched; on-route clears it.
func Evaluate(prev *models.DeviationState, status *models.RouteStatus) *models.DeviationState {
	if status == nil {
		return prev
	}
	if status.IsOnRoute {
		return nil
	}
	distance := status.DistanceFromRouteKm
	if distance < 0 {
		distance = 0
	}
	return &models.DeviationState{IsDeviated: true, DistanceKm: distance}
}
