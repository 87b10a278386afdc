package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Println("🔌 DATABASE CONNECTION ATTEMPT")
	log.Printf("   📍 Database URL length: %d characters", len(dbURL))
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT sqlx.Connect()")
		log.Printf("   Error message: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Println("❌ DATABASE CONNECTION FAILED AT Ping()")
		log.Printf("   Error message: %v", err)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ DATABASE CONNECTION SUCCESSFUL")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create trips table
		`CREATE TABLE IF NOT EXISTS trips (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'planning'
				CHECK(status IN ('planning', 'confirmed', 'in-progress', 'completed', 'cancelled')),
			owner_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			start_location TEXT,
			end_location TEXT,
			start_date BIGINT,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create trip_members table
		`CREATE TABLE IF NOT EXISTS trip_members (
			trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			access_level TEXT NOT NULL DEFAULT 'member' CHECK(access_level IN ('owner', 'member')),
			joined_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			PRIMARY KEY (trip_id, user_id)
		)`,

		// Planned route polyline, one row per vertex
		`CREATE TABLE IF NOT EXISTS trip_route_points (
			trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			seq INT NOT NULL,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (trip_id, seq)
		)`,

		// Location reports
		`CREATE TABLE IF NOT EXISTS trip_locations (
			id BIGSERIAL PRIMARY KEY,
			trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			latitude DOUBLE PRECISION NOT NULL,
			longitude DOUBLE PRECISION NOT NULL,
			accuracy DOUBLE PRECISION,
			captured_at BIGINT NOT NULL,
			is_on_route BOOLEAN,
			distance_from_route_km DOUBLE PRECISION,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trip_locations_trip_user ON trip_locations(trip_id, user_id, created_at DESC)`,

		// One check-in per (trip, user)
		`CREATE TABLE IF NOT EXISTS check_ins (
			trip_id BIGINT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status TEXT NOT NULL CHECK(status IN ('ready', 'not-ready', 'delayed')),
			notes TEXT,
			checked_in_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			PRIMARY KEY (trip_id, user_id)
		)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	log.Println("✓ Database migrations completed")
	return nil
}
