package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tripcrew/internal/database"
	"tripcrew/internal/middleware"
	"tripcrew/internal/models"
	"tripcrew/pkg/utils"
)

// Store is the persistence the trip handlers need. *database.Store satisfies it.
type Store interface {
	GetTrip(ctx context.Context, tripID int64) (*models.Trip, error)
	MemberAccess(ctx context.Context, tripID, userID int64) (models.AccessLevel, error)
	InsertLocation(ctx context.Context, loc *models.TripLocation) error
	ListCheckIns(ctx context.Context, tripID int64) ([]models.CheckIn, error)
	GetCheckIn(ctx context.Context, tripID, userID int64) (*models.CheckIn, error)
	UpsertCheckIn(ctx context.Context, c *models.CheckIn) error
	ConfirmIfPlanning(ctx context.Context, tripID int64) (bool, error)
}

// Pusher sends a realtime message to one user. *websocket.Hub satisfies it.
type Pusher interface {
	BroadcastToUser(ctx context.Context, userID int64, data interface{}) error
}

// RouteEvaluator scores a position against the planned route. *routing.Adherence satisfies it.
type RouteEvaluator interface {
	Evaluate(ctx context.Context, tripID int64, lat, lon float64) (*models.RouteStatus, error)
}

// member is the authenticated caller within one trip
type member struct {
	UserID int64
	TripID int64
	Access models.AccessLevel
}

// memberContext resolves the caller and trip id, and checks membership.
// It writes the error response and returns ok=false on failure.
func memberContext(w http.ResponseWriter, r *http.Request, store Store) (member, bool) {
	userClaims, ok := middleware.GetUserFromContext(r)
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return member{}, false
	}

	tripID, err := strconv.ParseInt(chi.URLParam(r, "tripId"), 10, 64)
	if err != nil || tripID <= 0 {
		utils.RespondError(w, http.StatusBadRequest, "Invalid trip ID")
		return member{}, false
	}

	access, err := store.MemberAccess(r.Context(), tripID, userClaims.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			utils.RespondError(w, http.StatusForbidden, "You are not a member of this trip")
			return member{}, false
		}
		log.Printf("❌ Membership lookup failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Failed to verify trip membership")
		return member{}, false
	}
	return member{UserID: userClaims.UserID, TripID: tripID, Access: access}, true
}
