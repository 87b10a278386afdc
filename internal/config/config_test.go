package config

import (
	"testing"
	"time"
)

func TestLoadAgentDefaults(t *testing.T) {
	t.Setenv("TRIPCREW_API_URL", "")
	t.Setenv("TRIPCREW_CHECKIN_POLL_SECONDS", "")

	cfg := LoadAgent()
	if cfg.APIURL != "http://localhost:8080" {
		t.Errorf("expected default API URL, got %q", cfg.APIURL)
	}
	if cfg.CheckInPoll != 15*time.Second {
		t.Errorf("expected 15s poll, got %s", cfg.CheckInPoll)
	}
	if cfg.Access != "member" {
		t.Errorf("expected member access, got %q", cfg.Access)
	}
}

func TestLoadAgentOverrides(t *testing.T) {
	t.Setenv("TRIPCREW_TRIP_ID", "42")
	t.Setenv("TRIPCREW_USER_ID", "7")
	t.Setenv("TRIPCREW_REALERT_SECONDS", "30")

	cfg := LoadAgent()
	if cfg.TripID != 42 || cfg.UserID != 7 {
		t.Errorf("expected trip 42 user 7, got trip %d user %d", cfg.TripID, cfg.UserID)
	}
	if cfg.RealertInterval != 30*time.Second {
		t.Errorf("expected 30s realert, got %s", cfg.RealertInterval)
	}
}

func TestLoadServerInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("ROUTE_DEVIATION_THRESHOLD_KM", "far")
	t.Setenv("SEED_DEMO", "yes-please")

	cfg := LoadServer()
	if cfg.DeviationThresholdKm != 0.5 {
		t.Errorf("expected fallback 0.5, got %g", cfg.DeviationThresholdKm)
	}
	if cfg.SeedDemo {
		t.Error("expected SeedDemo fallback false")
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
}
