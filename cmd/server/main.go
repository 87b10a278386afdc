package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tripcrew/internal/config"
	"tripcrew/internal/database"
	"tripcrew/internal/handlers"
	"tripcrew/internal/routing"
	"tripcrew/internal/websocket"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 TRIPCREW BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	config.LoadDotEnv()
	cfg := config.LoadServer()

	if cfg.DatabaseURL == "" {
		log.Fatal("❌ FATAL ERROR: DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("❌ FATAL ERROR: APP_JWT_SECRET environment variable is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatalf("❌ FATAL ERROR: Database migrations failed: %v", err)
	}

	if cfg.SeedDemo {
		if err := database.SeedDemoTrip(db); err != nil {
			log.Fatalf("❌ FATAL ERROR: Demo seeding failed: %v", err)
		}
	}

	store := database.NewStore(db)
	cache := routing.NewRouteCache(1000, cfg.RouteCacheTTL)

	wsHub := websocket.NewHub()
	if cfg.RedisURL != "" {
		fanout, err := websocket.NewRedisFanout(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis fan-out disabled: %v", err)
		} else {
			defer fanout.Close()
			if _, err := fanout.Subscribe(ctx, wsHub); err != nil {
				log.Printf("⚠️  Redis fan-out disabled: %v", err)
			} else {
				wsHub.SetFanout(fanout)
			}
		}
	}
	go wsHub.Run()
	defer wsHub.Stop()
	log.Println("✅ WebSocket hub started")

	router := handlers.NewRouter(handlers.RouterConfig{
		Store:       store,
		Routes:      routing.NewAdherence(store, cache, cfg.DeviationThresholdKm),
		Pusher:      wsHub,
		RouteCache:  cache,
		WebSocket:   websocket.HandleWebSocket(wsHub, cfg.JWTSecret),
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: strings.Split(cfg.CORSOrigin, ","),
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("✅ Server listening on :%s (deviation threshold %.2f km)", cfg.Port, cfg.DeviationThresholdKm)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Println("🛑 Server stopped")
}
