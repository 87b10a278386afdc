package handlers

import (
	"errors"
	"log"
	"net/http"

	"tripcrew/internal/database"
	"tripcrew/internal/routing"
	"tripcrew/pkg/utils"
)

// GetTrip returns the trip summary
func GetTrip(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := memberContext(w, r, store)
		if !ok {
			return
		}
		tripID := caller.TripID

		trip, err := store.GetTrip(r.Context(), tripID)
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Trip not found")
			return
		}
		if err != nil {
			log.Printf("❌ Failed to fetch trip %d: %v", tripID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch trip")
			return
		}

		utils.RespondJSON(w, http.StatusOK, trip.ToTripInfo())
	}
}

// Health reports liveness plus route cache statistics
func Health(cache *routing.RouteCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		if cache != nil {
			body["route_cache"] = cache.GetStats()
		}
		utils.RespondJSON(w, http.StatusOK, body)
	}
}
