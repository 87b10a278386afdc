package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Agent configures cmd/tracker
type Agent struct {
	APIURL            string
	WSURL             string
	Token             string
	UserID            int64
	TripID            int64
	Access            string
	PositionsFile     string
	ReplayFile        string
	PrefsDB           string
	CheckInPoll       time.Duration
	RealertInterval   time.Duration
	FirebaseCredsB64  string
	FirebaseCredsFile string
	DeviceToken       string
	AudioSink         string
}

// Server configures cmd/server and cmd/migrate
type Server struct {
	DatabaseURL          string
	Port                 string
	JWTSecret            string
	RedisURL             string
	CORSOrigin           string
	DeviationThresholdKm float64
	RouteCacheTTL        time.Duration
	SeedDemo             bool
}

// LoadDotEnv loads .env when present; missing files are not an error
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}
}

func LoadAgent() Agent {
	return Agent{
		APIURL:            getenv("TRIPCREW_API_URL", "http://localhost:8080"),
		WSURL:             getenv("TRIPCREW_WS_URL", "ws://localhost:8080/ws"),
		Token:             getenv("TRIPCREW_TOKEN", ""),
		UserID:            getenvInt64("TRIPCREW_USER_ID", 0),
		TripID:            getenvInt64("TRIPCREW_TRIP_ID", 0),
		Access:            getenv("TRIPCREW_ACCESS", "member"),
		PositionsFile:     getenv("TRIPCREW_POSITIONS_FILE", ""),
		ReplayFile:        getenv("TRIPCREW_REPLAY_FILE", ""),
		PrefsDB:           getenv("TRIPCREW_PREFS_DB", "./tripcrew-prefs.db"),
		CheckInPoll:       time.Duration(getenvInt64("TRIPCREW_CHECKIN_POLL_SECONDS", 15)) * time.Second,
		RealertInterval:   time.Duration(getenvInt64("TRIPCREW_REALERT_SECONDS", 120)) * time.Second,
		FirebaseCredsB64:  getenv("FIREBASE_CREDENTIALS_BASE64", ""),
		FirebaseCredsFile: getenv("FIREBASE_CREDENTIALS_FILE", ""),
		DeviceToken:       getenv("TRIPCREW_DEVICE_TOKEN", ""),
		AudioSink:         getenv("TRIPCREW_AUDIO_SINK", ""),
	}
}

func LoadServer() Server {
	return Server{
		DatabaseURL:          getenv("DATABASE_URL", ""),
		Port:                 getenv("PORT", "8080"),
		JWTSecret:            getenv("APP_JWT_SECRET", ""),
		RedisURL:             getenv("REDIS_URL", ""),
		CORSOrigin:           getenv("CORS_ORIGIN", "*"),
		DeviationThresholdKm: getenvFloat("ROUTE_DEVIATION_THRESHOLD_KM", 0.5),
		RouteCacheTTL:        time.Duration(getenvInt64("ROUTE_CACHE_TTL_MINUTES", 60)) * time.Minute,
		SeedDemo:             getenvBool("SEED_DEMO", false),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, value, fallback)
		return fallback
	}
	return parsed
}

func getenvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %g", key, value, fallback)
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
