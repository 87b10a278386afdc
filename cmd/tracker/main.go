package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tripcrew/internal/apiclient"
	"tripcrew/internal/checkin"
	"tripcrew/internal/config"
	"tripcrew/internal/geo"
	"tripcrew/internal/models"
	"tripcrew/internal/notify"
	"tripcrew/internal/realtime"
	"tripcrew/internal/schedule"
	"tripcrew/internal/tracking"
)

func main() {
	alerts := flag.String("alerts", "", "turn route alerts on or off before tracking")
	status := flag.String("checkin", "", "submit a check-in status: ready, not-ready or delayed")
	notes := flag.String("notes", "", "notes for -checkin")
	flag.Parse()

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 TRIPCREW TRACKER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	config.LoadDotEnv()
	cfg := config.LoadAgent()
	if cfg.TripID == 0 || cfg.UserID == 0 {
		log.Fatal("❌ TRIPCREW_TRIP_ID and TRIPCREW_USER_ID are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher, closePrefs := newDispatcher(ctx, cfg)
	defer closePrefs()

	switch *alerts {
	case "":
	case "on":
		if err := dispatcher.Toggle(ctx, true); err != nil {
			log.Printf("⚠️  Route alerts not enabled: %v", err)
		}
	case "off":
		dispatcher.Toggle(ctx, false)
	default:
		log.Fatalf("❌ -alerts must be on or off, got %q", *alerts)
	}

	api := apiclient.New(cfg.APIURL, cfg.Token, nil)
	session := tracking.NewSession(cfg.TripID, geo.NewWatcher(newSource(cfg)), tracking.NewReporter(api), dispatcher,
		tracking.SessionOptions{RealertInterval: cfg.RealertInterval})

	bridge := realtime.NewBridge(realtime.Options{URL: cfg.WSURL, Token: cfg.Token, TripID: cfg.TripID}, func(ev realtime.Event) {
		session.ApplyRealtime(ctx, ev.Message, ev.DistanceFromRouteKm)
	})
	unsubscribe, err := bridge.Subscribe(ctx, cfg.UserID)
	if err != nil {
		log.Printf("⚠️  Realtime events unavailable: %v", err)
		unsubscribe = func() {}
	}
	defer unsubscribe()

	coordinator := checkin.NewCoordinator(checkin.NewClient(api), dispatcher, checkin.Options{
		TripID: cfg.TripID,
		UserID: cfg.UserID,
		Access: models.AccessLevel(cfg.Access),
		OnTripRefreshed: func(info models.TripInfo) {
			log.Printf("🗺️  Trip %q is now %s", info.Name, info.Status)
		},
	})
	if err := coordinator.Load(ctx); err != nil {
		log.Printf("⚠️  Failed to load check-in status: %v", err)
	}
	if *status != "" {
		coordinator.Submit(ctx, models.CheckInState(*status), *notes)
	}
	logRoster(coordinator)

	poller := checkin.NewPoller(coordinator, schedule.TickerScheduler{}, cfg.CheckInPoll)
	poller.Start(ctx)
	defer poller.Stop()

	if err := session.Start(ctx); err != nil {
		log.Printf("⚠️  Location tracking not started: %v", err)
	}

	<-ctx.Done()
	log.Println("🛑 Shutting down tracker...")
	session.Stop()
	session.Wait()
}

// newDispatcher wires every alert channel the device configuration offers
func newDispatcher(ctx context.Context, cfg config.Agent) (*notify.Dispatcher, func()) {
	opts := notify.Options{Scheduler: schedule.TickerScheduler{}}
	closePrefs := func() {}

	prefs, err := notify.OpenSQLitePreferences(cfg.PrefsDB)
	if err != nil {
		log.Printf("⚠️  Notification preference store unavailable: %v", err)
	} else {
		opts.Preferences = prefs
		closePrefs = func() { prefs.Close() }
	}

	var platform *notify.FCMPlatform
	switch {
	case cfg.FirebaseCredsB64 != "":
		platform, err = notify.NewFCMPlatformFromBase64(ctx, cfg.FirebaseCredsB64, cfg.DeviceToken)
	case cfg.FirebaseCredsFile != "":
		platform, err = notify.NewFCMPlatform(ctx, cfg.FirebaseCredsFile, cfg.DeviceToken)
	}
	if err != nil {
		log.Printf("⚠️  Failed to initialize FCM: %v (OS notifications disabled)", err)
	} else if platform != nil {
		opts.Platform = platform
		opts.Vibrator = platform.Vibrator()
		log.Println("✅ Firebase Cloud Messaging initialized")
	}

	if cfg.AudioSink != "" {
		opts.Beeper = notify.NewToneBeeper(cfg.AudioSink)
	}

	d := notify.NewDispatcher(ctx, opts)
	pref := d.Preference()
	log.Printf("🔔 Route alerts enabled: %v (permission: %s)", pref.Enabled, pref.Permission)
	return d, closePrefs
}

func newSource(cfg config.Agent) geo.Source {
	switch {
	case cfg.ReplayFile != "":
		src, err := geo.LoadReplay(cfg.ReplayFile)
		if err != nil {
			log.Printf("❌ Failed to load replay track: %v", err)
			return nil
		}
		log.Printf("📍 Replaying positions from %s", cfg.ReplayFile)
		return src
	case cfg.PositionsFile != "":
		log.Printf("📍 Following positions in %s", cfg.PositionsFile)
		return geo.NewFileSource(cfg.PositionsFile)
	}
	return nil
}

func logRoster(c *checkin.Coordinator) {
	state, mine := c.State()
	roster := c.Roster()
	log.Printf("📋 Check-in: %s, group %d/%d ready", state, roster.ReadyCount, roster.Total)
	if mine != nil {
		log.Printf("   You: %s", mine.Status)
	}
	if roster.Access == models.AccessOwner {
		for _, s := range roster.Entries {
			log.Printf("   User %d: %s", s.UserID, s.Status)
		}
	}
}
