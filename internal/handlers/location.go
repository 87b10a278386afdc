package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"tripcrew/internal/models"
	"tripcrew/pkg/utils"
)

// ReportLocation stores a sample, scores it against the planned route and
// pushes a route-deviation message to the reporter when off route
func ReportLocation(store Store, routes RouteEvaluator, pusher Pusher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := memberContext(w, r, store)
		if !ok {
			return
		}
		tripID := caller.TripID

		var req models.LocationReport
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
			utils.RespondError(w, http.StatusBadRequest, "Coordinates out of range")
			return
		}

		capturedAt := req.CapturedAt
		if capturedAt.IsZero() {
			capturedAt = time.Now()
		}

		status, err := routes.Evaluate(r.Context(), tripID, req.Latitude, req.Longitude)
		if err != nil {
			// The sample is still worth keeping without a verdict
			log.Printf("⚠️  Route evaluation failed for trip %d: %v", tripID, err)
			status = nil
		}

		loc := &models.TripLocation{
			TripID:     tripID,
			UserID:     caller.UserID,
			Latitude:   req.Latitude,
			Longitude:  req.Longitude,
			Accuracy:   req.Accuracy,
			CapturedAt: capturedAt.Unix(),
		}
		if status != nil {
			onRoute, distance := status.IsOnRoute, status.DistanceFromRouteKm
			loc.IsOnRoute = &onRoute
			loc.DistanceFromRouteKm = &distance
		}

		if err := store.InsertLocation(r.Context(), loc); err != nil {
			log.Printf("❌ Error saving location: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save location")
			return
		}

		log.Printf("📍 Location from user %d on trip %d: %.6f, %.6f", caller.UserID, tripID, req.Latitude, req.Longitude)

		if status != nil && !status.IsOnRoute && pusher != nil {
			msg := models.RouteDeviationMessage{
				Type:              models.MessageTypeRouteDeviation,
				TripID:            tripID,
				Message:           fmt.Sprintf("You are %.2f km away from the planned route.", status.DistanceFromRouteKm),
				DistanceFromRoute: status.DistanceFromRouteKm,
			}
			if err := pusher.BroadcastToUser(r.Context(), caller.UserID, msg); err != nil {
				log.Printf("⚠️  Failed to push route deviation: %v", err)
			}
		}

		utils.RespondJSON(w, http.StatusOK, models.LocationReportResponse{RouteStatus: status})
	}
}
