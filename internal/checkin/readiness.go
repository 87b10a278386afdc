package checkin

import "tripcrew/internal/models"

// Dedupe collapses statuses to one entry per user. The last occurrence of a
// user wins; the result keeps first-seen order.
func Dedupe(statuses []models.CheckInStatus) []models.CheckInStatus {
	byUser := make(map[int64]models.CheckInStatus, len(statuses))
	order := make([]int64, 0, len(statuses))
	for _, s := range statuses {
		if _, seen := byUser[s.UserID]; !seen {
			order = append(order, s.UserID)
		}
		byUser[s.UserID] = s
	}

	out := make([]models.CheckInStatus, 0, len(order))
	for _, id := range order {
		out = append(out, byUser[id])
	}
	return out
}

// ComputeGroupReadiness is true iff, after de-duplication, there is one
// status per member and every one is ready.
func ComputeGroupReadiness(statuses []models.CheckInStatus, memberCount int) bool {
	unique := Dedupe(statuses)
	if memberCount <= 0 || len(unique) != memberCount {
		return false
	}
	return ReadyCount(unique) == len(unique)
}

// ReadyCount counts ready entries. Callers pass de-duplicated statuses.
func ReadyCount(statuses []models.CheckInStatus) int {
	n := 0
	for _, s := range statuses {
		if s.Status == models.CheckInReady {
			n++
		}
	}
	return n
}
