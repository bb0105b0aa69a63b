package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"villagemap/config"
	"villagemap/handlers"
	"villagemap/middleware"
	"villagemap/query"
	"villagemap/store"
)

func main() {
	log.Printf("=== Starting Village Map Server ===")

	cfg := config.Load()

	client, db, err := config.ConnectMongo(cfg)
	if err != nil {
		log.Fatalf("mongo: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}()

	villageStore := store.NewVillageStore(db)
	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := villageStore.EnsureIndexes(indexCtx); err != nil {
		log.Printf("warning: %v", err)
	}
	indexCancel()

	engine := query.NewEngine(villageStore, query.Config{
		LowDetailZoom:  cfg.LowDetailZoom,
		HighDetailZoom: cfg.HighDetailZoom,
		MaxResults:     cfg.MaxResults,
		DefaultResults: cfg.DefaultResults,
	})
	stats := query.NewStatsAggregator(villageStore, config.NewStatsCache(cfg))

	uploadHandler := &handlers.UploadHandler{
		Store:     villageStore,
		UploadDir: cfg.UploadDir,
		BatchSize: cfg.BatchSize,
	}
	villageHandler := &handlers.VillageHandler{Engine: engine, Store: villageStore}
	statsHandler := &handlers.StatsHandler{Stats: stats}

	r := mux.NewRouter()
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimit(middleware.NewSlidingWindow(cfg.RateLimitPerMin, time.Minute)))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/villages", villageHandler.HandleList).Methods("GET")
	api.HandleFunc("/villages", villageHandler.HandleDeleteAll).Methods("DELETE")
	api.HandleFunc("/villages/in-bounds", villageHandler.HandleInBounds).Methods("POST")
	api.HandleFunc("/villages/upload", uploadHandler.HandleUpload).Methods("POST")
	api.HandleFunc("/villages/upload/validate", uploadHandler.HandleValidate).Methods("POST")
	api.HandleFunc("/villages/upload/metadata", uploadHandler.HandleMetadata).Methods("POST")
	api.HandleFunc("/villages/stats/population-distribution", statsHandler.HandlePopulationDistribution).Methods("GET")
	api.HandleFunc("/health", healthCheck(villageStore)).Methods("GET")

	r.Handle("/metrics", promhttp.Handler())
	log.Printf("Registered all HTTP handlers")

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Handler:           corsHandler.Handler(r),
		Addr:              ":" + cfg.Port,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second, // ingestion responses wait on the full pipeline
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("Server is listening on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("Shutdown signal received")
	case err := <-serverErrors:
		log.Printf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	} else {
		log.Println("Server shutdown completed")
	}
}

func healthCheck(s *store.VillageStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		count, err := s.Count(ctx)
		w.Header().Set("Content-Type", "application/json")
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","db_status":"unreachable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","db_status":"connected","villages":` + strconv.FormatInt(count, 10) + `}`))
	}
}
