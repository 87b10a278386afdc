package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tripcrew/internal/apiclient"
	"tripcrew/internal/models"
)

func TestReporterPostsSample(t *testing.T) {
	var got models.LocationReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/trips/7/location" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"routeStatus":{"isOnRoute":false,"distanceFromRoute":1.4}}`))
	}))
	defer srv.Close()

	acc := 12.0
	sample := models.LocationSample{Latitude: 40.1, Longitude: -74.2, Accuracy: &acc, CapturedAt: time.Unix(1700000000, 0).UTC()}
	status, err := NewReporter(apiclient.New(srv.URL, "secret", srv.Client())).Report(context.Background(), 7, sample)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if status == nil || status.IsOnRoute || status.DistanceFromRouteKm != 1.4 {
		t.Fatalf("unexpected status %+v", status)
	}
	if got.Latitude != 40.1 || got.Longitude != -74.2 || got.Accuracy == nil || *got.Accuracy != 12 {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestReporterWithoutRouteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	status, err := NewReporter(apiclient.New(srv.URL, "", srv.Client())).Report(context.Background(), 1, models.LocationSample{})
	if err != nil || status != nil {
		t.Fatalf("expected nil status without error, got %+v %v", status, err)
	}
}

func TestReporterWrapsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"error":"not a member of this trip"}`))
	}))
	defer srv.Close()

	_, err := NewReporter(apiclient.New(srv.URL, "", srv.Client())).Report(context.Background(), 3, models.LocationSample{})
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.TripID != 3 {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if msg := apiclient.Message(err); msg != "not a member of this trip" {
		t.Fatalf("expected server message verbatim, got %q", msg)
	}
}
