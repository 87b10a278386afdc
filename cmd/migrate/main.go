package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"tripcrew/internal/config"
	"tripcrew/internal/database"
	"tripcrew/internal/middleware"
)

func main() {
	seed := flag.Bool("seed", false, "seed the demo trip after migrating")
	tokenFor := flag.Int64("token-for", 0, "print a bearer token for this user id and exit")
	tokenTTL := flag.Duration("token-ttl", 30*24*time.Hour, "lifetime of -token-for tokens")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.LoadServer()

	if *tokenFor != 0 {
		if cfg.JWTSecret == "" {
			log.Fatal("APP_JWT_SECRET environment variable not set")
		}
		token, err := middleware.IssueToken(cfg.JWTSecret, *tokenFor, "", *tokenTTL)
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	if *seed || cfg.SeedDemo {
		if err := database.SeedDemoTrip(db); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	var summary struct {
		Trips     int `db:"trips"`
		Members   int `db:"members"`
		CheckIns  int `db:"check_ins"`
		Locations int `db:"locations"`
	}
	err = db.Get(&summary, `
		SELECT
			(SELECT COUNT(*) FROM trips) AS trips,
			(SELECT COUNT(*) FROM trip_members) AS members,
			(SELECT COUNT(*) FROM check_ins) AS check_ins,
			(SELECT COUNT(*) FROM trip_locations) AS locations
	`)
	if err != nil {
		log.Fatalf("Failed to query summary: %v", err)
	}

	fmt.Println("\n============================================================")
	fmt.Println("MIGRATION SUMMARY")
	fmt.Println("============================================================")
	fmt.Printf("Trips:             %d\n", summary.Trips)
	fmt.Printf("Trip members:      %d\n", summary.Members)
	fmt.Printf("Check-ins:         %d\n", summary.CheckIns)
	fmt.Printf("Location reports:  %d\n", summary.Locations)
	fmt.Println("============================================================")
}
