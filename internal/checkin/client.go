package checkin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tripcrew/internal/apiclient"
	"tripcrew/internal/models"
)

// API is the check-in slice of the trip backend. *Client satisfies it.
type API interface {
	FetchStatuses(ctx context.Context, tripID int64) (*models.CheckInStatusResponse, error)
	FetchMine(ctx context.Context, tripID, userID int64) (*models.CheckInStatus, error)
	Submit(ctx context.Context, tripID int64, sub models.CheckInSubmission) (*models.CheckInSubmitResponse, error)
	FetchTrip(ctx context.Context, tripID int64) (*models.TripInfo, error)
}

type Client struct {
	api *apiclient.Client
}

func NewClient(api *apiclient.Client) *Client {
	return &Client{api: api}
}

// FetchStatuses calls GET /api/trips/{tripId}/check-in-status
func (c *Client) FetchStatuses(ctx context.Context, tripID int64) (*models.CheckInStatusResponse, error) {
	var resp models.CheckInStatusResponse
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/trips/%d/check-in-status", tripID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchMine returns nil, nil when the user has not checked in yet
func (c *Client) FetchMine(ctx context.Context, tripID, userID int64) (*models.CheckInStatus, error) {
	var status models.CheckInStatus
	err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/trips/%d/check-ins/user/%d", tripID, userID), nil, &status)
	if errors.Is(err, apiclient.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Submit calls POST /api/trips/{tripId}/check-ins
func (c *Client) Submit(ctx context.Context, tripID int64, sub models.CheckInSubmission) (*models.CheckInSubmitResponse, error) {
	var resp models.CheckInSubmitResponse
	if err := c.api.Do(ctx, http.MethodPost, fmt.Sprintf("/api/trips/%d/check-ins", tripID), sub, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FetchTrip calls GET /api/trips/{tripId}
func (c *Client) FetchTrip(ctx context.Context, tripID int64) (*models.TripInfo, error) {
	var info models.TripInfo
	if err := c.api.Do(ctx, http.MethodGet, fmt.Sprintf("/api/trips/%d", tripID), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
