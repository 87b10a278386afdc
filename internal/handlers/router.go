package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"tripcrew/internal/middleware"
	"tripcrew/internal/routing"
)

// RouterConfig wires the trip backend's routes
type RouterConfig struct {
	Store       Store
	Routes      RouteEvaluator
	Pusher      Pusher
	RouteCache  *routing.RouteCache
	WebSocket   http.Handler
	JWTSecret   string
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", Health(cfg.RouteCache))

	if cfg.WebSocket != nil {
		r.Handle("/ws", cfg.WebSocket)
	}

	r.Route("/api/trips/{tripId}", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Get("/", GetTrip(cfg.Store))
		r.Post("/location", ReportLocation(cfg.Store, cfg.Routes, cfg.Pusher))
		r.Get("/check-in-status", GetCheckInStatus(cfg.Store))
		r.Get("/check-ins/user/{userId}", GetUserCheckIn(cfg.Store))
		r.Post("/check-ins", SubmitCheckIn(cfg.Store))
	})

	return r
}
