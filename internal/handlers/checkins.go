package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"tripcrew/internal/checkin"
	"tripcrew/internal/database"
	"tripcrew/internal/models"
	"tripcrew/pkg/utils"
)

// GetCheckInStatus returns the roster plus the trip summary. Owners see every
// member's check-in; members see only their own plus the group counts.
func GetCheckInStatus(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := memberContext(w, r, store)
		if !ok {
			return
		}
		tripID := caller.TripID

		rows, err := store.ListCheckIns(r.Context(), tripID)
		if err != nil {
			log.Printf("❌ Failed to list check-ins for trip %d: %v", tripID, err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch check-in status")
			return
		}

		statuses := make([]models.CheckInStatus, len(rows))
		for i := range rows {
			statuses[i] = rows[i].ToCheckInStatus()
		}

		resp := models.CheckInStatusResponse{
			AccessLevel: caller.Access,
			ReadyCount:  checkin.ReadyCount(statuses),
		}
		if trip, err := store.GetTrip(r.Context(), tripID); err == nil {
			info := trip.ToTripInfo()
			resp.TripInfo = &info
			resp.AllReady = checkin.ComputeGroupReadiness(statuses, trip.MemberCount)
		} else {
			log.Printf("⚠️  Failed to load trip %d for check-in status: %v", tripID, err)
		}

		resp.CheckInStatuses = visibleTo(caller, statuses)
		utils.RespondJSON(w, http.StatusOK, resp)
	}
}

// visibleTo drops other members' entries unless the caller owns the trip
func visibleTo(caller member, statuses []models.CheckInStatus) []models.CheckInStatus {
	if caller.Access == models.AccessOwner {
		return statuses
	}
	own := []models.CheckInStatus{}
	for _, s := range statuses {
		if s.UserID == caller.UserID {
			own = append(own, s)
		}
	}
	return own
}

// GetUserCheckIn returns one member's check-in, 404 when they have none.
// Members may only read their own.
func GetUserCheckIn(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := memberContext(w, r, store)
		if !ok {
			return
		}
		tripID := caller.TripID

		userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid user ID")
			return
		}
		if userID != caller.UserID && caller.Access != models.AccessOwner {
			utils.RespondError(w, http.StatusForbidden, "Only the trip owner can view other members' check-ins")
			return
		}

		c, err := store.GetCheckIn(r.Context(), tripID, userID)
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "Check-in not found")
			return
		}
		if err != nil {
			log.Printf("❌ Failed to fetch check-in: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to fetch check-in")
			return
		}

		utils.RespondJSON(w, http.StatusOK, c.ToCheckInStatus())
	}
}

// SubmitCheckIn upserts the caller's check-in and confirms a planning trip
// once every member is ready
func SubmitCheckIn(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := memberContext(w, r, store)
		if !ok {
			return
		}
		tripID := caller.TripID

		var req models.CheckInSubmission
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if !req.Status.Valid() {
			utils.RespondError(w, http.StatusBadRequest, "Status must be one of ready, not-ready, delayed")
			return
		}
		if req.Notes != nil {
			trimmed := strings.TrimSpace(*req.Notes)
			if trimmed == "" {
				req.Notes = nil
			} else {
				req.Notes = &trimmed
			}
		}

		c := &models.CheckIn{
			TripID: tripID,
			UserID: caller.UserID,
			Status: string(req.Status),
			Notes:  req.Notes,
		}
		if err := store.UpsertCheckIn(r.Context(), c); err != nil {
			log.Printf("❌ Failed to save check-in: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, "Failed to save check-in")
			return
		}

		resp := models.CheckInSubmitResponse{CheckInStatus: c.ToCheckInStatus()}

		trip, err := store.GetTrip(r.Context(), tripID)
		if err != nil {
			log.Printf("⚠️  Failed to load trip %d after check-in: %v", tripID, err)
			utils.RespondJSON(w, http.StatusOK, resp)
			return
		}
		rows, err := store.ListCheckIns(r.Context(), tripID)
		if err != nil {
			log.Printf("⚠️  Failed to list check-ins after submit: %v", err)
			utils.RespondJSON(w, http.StatusOK, resp)
			return
		}

		statuses := make([]models.CheckInStatus, len(rows))
		for i := range rows {
			statuses[i] = rows[i].ToCheckInStatus()
		}
		resp.AllReady = checkin.ComputeGroupReadiness(statuses, trip.MemberCount)

		if resp.AllReady {
			confirmed, err := store.ConfirmIfPlanning(r.Context(), tripID)
			if err != nil {
				log.Printf("❌ Failed to confirm trip %d: %v", tripID, err)
			} else if confirmed {
				log.Printf("✅ Trip %d confirmed: all %d members ready", tripID, trip.MemberCount)
			}
		}

		log.Printf("✅ User %d checked in as %s on trip %d", caller.UserID, req.Status, tripID)
		utils.RespondJSON(w, http.StatusOK, resp)
	}
}
