package checkin

import (
	"testing"

	"tripcrew/internal/models"
)

func st(id int64, s models.CheckInState) models.CheckInStatus {
	return models.CheckInStatus{UserID: id, Status: s}
}

func TestComputeGroupReadiness(t *testing.T) {
	tests := []struct {
		name     string
		statuses []models.CheckInStatus
		members  int
		want     bool
	}{
		{"duplicates collapse", []models.CheckInStatus{st(1, models.CheckInReady), st(1, models.CheckInReady), st(2, models.CheckInReady)}, 2, true},
		{"one not ready", []models.CheckInStatus{st(1, models.CheckInReady), st(2, models.CheckInNotReady)}, 2, false},
		{"missing member", []models.CheckInStatus{st(1, models.CheckInReady)}, 2, false},
		{"last duplicate wins", []models.CheckInStatus{st(1, models.CheckInReady), st(2, models.CheckInReady), st(1, models.CheckInDelayed)}, 2, false},
		{"last duplicate wins ready", []models.CheckInStatus{st(1, models.CheckInDelayed), st(2, models.CheckInReady), st(1, models.CheckInReady)}, 2, true},
		{"empty group", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeGroupReadiness(tt.statuses, tt.members); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDedupeKeepsFirstSeenOrder(t *testing.T) {
	got := Dedupe([]models.CheckInStatus{st(3, models.CheckInReady), st(1, models.CheckInReady), st(3, models.CheckInDelayed)})
	if len(got) != 2 || got[0].UserID != 3 || got[0].Status != models.CheckInDelayed || got[1].UserID != 1 {
		t.Fatalf("unexpected dedupe result %+v", got)
	}
}
