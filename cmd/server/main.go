package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/WxboySuper/Santa-Tracker/internal/config"
	"github.com/WxboySuper/Santa-Tracker/internal/handlers"
	"github.com/WxboySuper/Santa-Tracker/internal/metrics"
	"github.com/WxboySuper/Santa-Tracker/internal/publisher"
	"github.com/WxboySuper/Santa-Tracker/internal/store"
	"github.com/WxboySuper/Santa-Tracker/internal/timeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Backend selection: DATABASE_URL means Postgres, otherwise the JSON
	// document store in DataDir.
	var st store.Store
	if cfg.DatabaseURL != "" {
		log.Printf("using postgres route store")
		st, err = store.NewPostgresStore(cfg.DatabaseURL)
	} else {
		log.Printf("using JSON route store in %s", cfg.DataDir)
		st, err = store.NewJSONStore(cfg.DataDir)
	}
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer st.Close()

	collector := metrics.NewCollector()

	tracker := handlers.NewTrackerHandler(st, collector)
	admin := handlers.NewAdminHandler(st, collector)
	health := handlers.NewHealthHandler(st)

	adventPath := cfg.AdventPath
	if adventPath == "" {
		adventPath = filepath.Join(cfg.DataDir, "advent_calendar.json")
	}
	adventH, err := handlers.NewAdventHandler(adventPath)
	if err != nil {
		log.Fatalf("advent calendar error: %v", err)
	}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", health.GetHealth)
	r.Handle("/metrics", collector.Handler())

	// Public tracker API
	r.Get("/api/tracker/status", tracker.GetStatus)
	r.Get("/api/tracker/route", tracker.GetRoute)
	r.Get("/api/tracker/feed.pb", tracker.GetFeed)
	r.Get("/api/advent", adventH.GetManifest)
	r.Get("/api/advent/{day}", adventH.GetDay)

	// Admin API
	r.Route("/api/admin", func(r chi.Router) {
		r.Get("/locations", admin.ListLocations)
		r.Post("/locations", admin.AddLocation)
		r.Post("/locations/import", admin.ImportLocations)
		r.Get("/locations/validate", admin.ValidateLocations)
		r.Put("/locations/{index}", admin.UpdateLocation)
		r.Delete("/locations/{index}", admin.DeleteLocation)
		r.Get("/route/status", admin.RouteStatus)
		r.Post("/route/simulate", admin.Simulate)
		r.Post("/trial", admin.CreateTrial)
		r.Get("/trial", admin.GetTrial)
		r.Delete("/trial", admin.DeleteTrial)
		r.Post("/trial/apply", admin.ApplyTrial)
		r.Post("/trial/simulate", admin.SimulateTrial)
		r.Get("/backup/export", admin.ExportBackup)
		r.Put("/advent/{day}", adventH.SetDay)
		r.Post("/advent/{day}/override", adventH.SetOverride)
		r.Get("/advent/validate", adventH.Validate)
	})

	// Optional NATS status publishing
	if cfg.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.NATSURL, collector)
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
		go publishLoop(ctx, st, pub, collector, cfg.PublishInterval)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}
	go func() {
		log.Printf("tracker API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

// publishLoop pushes the current status onto NATS on a fixed cadence. Store
// failures are logged and retried on the next tick.
func publishLoop(ctx context.Context, st store.Store, pub *publisher.NATSPublisher, collector *metrics.Collector, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stops, err := st.LoadStops(ctx)
		if err != nil {
			log.Printf("publish: load route: %v", err)
			continue
		}
		status := timeline.StatusAt(stops, time.Now().UTC())
		collector.SetState(string(status.State))
		collector.RouteStops.Set(float64(len(stops)))
		if err := pub.PublishStatus(status); err != nil {
			log.Printf("publish: %v", err)
		}
	}
}
