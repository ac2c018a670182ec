// main is the entry point of the uquery application.
// In one-shot mode it queries a single game server and prints the decoded
// status; in serve mode it runs the HTTP API with storage, GeoIP, and the
// optional watchlist poller.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/fake"
	"github.com/woozymasta/uquery/internal/game"
	"github.com/woozymasta/uquery/internal/geoip"
	"github.com/woozymasta/uquery/internal/logger"
	"github.com/woozymasta/uquery/internal/maintenance"
	"github.com/woozymasta/uquery/internal/server"
	"github.com/woozymasta/uquery/internal/storage"
	"github.com/woozymasta/uquery/internal/watch"
)

func main() {
	cfg := config.Parse()
	logger.Setup(cfg.Logger)

	if !cfg.ServeMode() && !cfg.MaintenanceMode() {
		oneShot(cfg)
		return
	}

	serve(cfg)
}

// oneShot queries a single server and prints the result to stdout.
func oneShot(cfg *config.Config) {
	status, err := game.QueryServer(cfg.Args.Host, cfg.Query.Port, cfg.Query.Raw, cfg.Query)
	if err != nil {
		log.Fatal().Err(err).
			Str("host", cfg.Args.Host).
			Int("port", cfg.Query.Port).
			Msg("Query failed")
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(status); err != nil {
		log.Fatal().Err(err).Msg("Failed to encode status")
	}
}

// serve runs the HTTP API and one-shot database tasks.
func serve(cfg *config.Config) {
	log.Info().Msg("Starting uquery service...")

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// data generation or database maintenance
	if cfg.Storage.GenerateCount > 0 {
		fake.GenerateData(store, cfg.Storage.GenerateCount)
		return
	} else if maintenance.Run(cfg, store) {
		return
	}

	// GeoIP Update
	log.Info().Msg("Checking GeoIP database...")
	if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
		log.Error().Err(err).Msg("Failed to download GeoIP database")
	}

	geoProvider, err := geoip.Open(cfg.GeoIP.Path)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
		geoProvider = nil
	} else {
		defer func() {
			if err := geoProvider.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing GeoIP provider")
			}
		}()
	}

	// Watchlist poller
	var poller *watch.Poller
	if cfg.Watch.File != "" {
		list, err := watch.Load(cfg.Watch.File)
		if err != nil {
			log.Fatal().Err(err).Str("file", cfg.Watch.File).Msg("Failed to load watchlist")
		}

		poller = watch.New(list, store, geoProvider, cfg)
		poller.Start()
		log.Info().
			Int("servers", len(list.Servers)).
			Dur("interval", cfg.Watch.Interval).
			Msg("Watchlist poller started")
	}

	// Init server
	srvHandler := server.New(store, geoProvider, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Query.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	if poller != nil {
		poller.Stop()
	}

	log.Info().Msg("Server exited")
}
