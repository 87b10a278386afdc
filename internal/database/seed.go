package database

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"tripcrew/internal/models"
)

// SeedDemoTrip creates a planning trip with three members and a short
// planned route along the San Jose waterfront trail
func SeedDemoTrip(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM trips"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Trips already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding demo trip...")

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	users := []models.User{
		{Email: "owner@tripcrew.dev", Name: "Riley Owner"},
		{Email: "sam@tripcrew.dev", Name: "Sam Member"},
		{Email: "jo@tripcrew.dev", Name: "Jo Member"},
	}

	for i := range users {
		rows, err := tx.NamedQuery(`INSERT INTO users (email, name) VALUES (:email, :name) RETURNING id`, &users[i])
		if err != nil {
			return err
		}
		if rows.Next() {
			err = rows.Scan(&users[i].ID)
		}
		rows.Close()
		if err != nil {
			return err
		}
		log.Printf("  ✓ Created user %d: %s", users[i].ID, users[i].Email)
	}

	var tripID int64
	err = tx.QueryRowx(`
		INSERT INTO trips (name, status, owner_id, start_location, end_location)
		VALUES ('Guadalupe River ride', 'planning', $1, 'Arena Green', 'Alviso Marina')
		RETURNING id
	`, users[0].ID).Scan(&tripID)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	for i, user := range users {
		member := models.TripMember{
			TripID:      tripID,
			UserID:      user.ID,
			AccessLevel: string(models.AccessMember),
			JoinedAt:    now,
		}
		if i == 0 {
			member.AccessLevel = string(models.AccessOwner)
		}
		if _, err := tx.NamedExec(`
			INSERT INTO trip_members (trip_id, user_id, access_level, joined_at)
			VALUES (:trip_id, :user_id, :access_level, :joined_at)
		`, member); err != nil {
			return err
		}
	}

	route := [][2]float64{
		{37.3340, -121.9010},
		{37.3480, -121.9060},
		{37.3660, -121.9150},
		{37.3850, -121.9330},
		{37.4040, -121.9480},
		{37.4300, -121.9720},
	}
	for seq, p := range route {
		if _, err := tx.Exec(
			`INSERT INTO trip_route_points (trip_id, seq, latitude, longitude) VALUES ($1, $2, $3, $4)`,
			tripID, seq, p[0], p[1],
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Printf("✓ Seeded trip %d with %d members and %d route points", tripID, len(users), len(route))
	return nil
}
