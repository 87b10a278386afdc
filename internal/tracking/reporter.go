package tracking

import (
	"context"
	"fmt"
	"net/http"

	"tripcrew/internal/apiclient"
	"tripcrew/internal/models"
)

// NetworkError wraps any failure to deliver a location report or read its reply
type NetworkError struct {
	TripID int64
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("failed to report location for trip %d: %v", e.TripID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Reporter posts samples to POST /api/trips/{tripId}/location
type Reporter struct {
	api *apiclient.Client
}

func NewReporter(api *apiclient.Client) *Reporter {
	return &Reporter{api: api}
}

// Report returns the backend's RouteStatus, or nil when the reply carried none
func (r *Reporter) Report(ctx context.Context, tripID int64, sample models.LocationSample) (*models.RouteStatus, error) {
	body := models.LocationReport{
		Latitude:   sample.Latitude,
		Longitude:  sample.Longitude,
		Accuracy:   sample.Accuracy,
		CapturedAt: sample.CapturedAt,
	}

	var resp models.LocationReportResponse
	path := fmt.Sprintf("/api/trips/%d/location", tripID)
	if err := r.api.Do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, &NetworkError{TripID: tripID, Err: err}
	}
	return resp.RouteStatus, nil
}
