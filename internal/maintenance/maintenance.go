// Package maintenance provides one-shot tasks to clean and refresh the
// database of observed servers.
package maintenance

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/game"
	"github.com/woozymasta/uquery/internal/models"
	"github.com/woozymasta/uquery/internal/storage"
)

// Run checks if any maintenance flags are set and executes the corresponding
// tasks. Returns true if a maintenance task was executed (indicating the
// program should exit).
func Run(cfg *config.Config, store *storage.Repository) bool {
	if cfg.Storage.PruneEmpty {
		log.Info().Msg("Pruning servers without status data...")

		count, err := store.DeleteEmptyServers()
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune servers")
		} else {
			log.Info().Int64("deleted", count).Msg("Prune finished")
		}

		return true
	}

	if !cfg.Storage.CheckAll {
		return false
	}

	servers, err := store.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		return true
	}

	if len(servers) == 0 {
		log.Info().Msg("No servers found for maintenance")
		return true
	}

	log.Info().Int("count", len(servers)).Msg("Re-checking all stored servers...")
	runWorkerPool(servers, store, cfg)
	log.Info().Msg("Maintenance task completed")

	return true
}

func runWorkerPool(servers []models.Server, store *storage.Repository, cfg *config.Config) {
	workers := cfg.Watch.Workers
	if workers <= 0 {
		workers = 1
	}

	jobs := make(chan models.Server, len(servers))
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for server := range jobs {
				checkServer(server, store, cfg.Query)
			}
		}()
	}

	for _, s := range servers {
		jobs <- s
	}
	close(jobs)

	wg.Wait()
}

// checkServer re-queries one stored server: update the record if it answers,
// delete it if it does not.
func checkServer(server models.Server, store *storage.Repository, options config.Query) {
	logCtx := log.With().
		Str("host", server.Host).
		Int("port", server.Port).
		Logger()

	if server.Port <= 0 || server.Port > 65535 {
		logCtx.Debug().Msg("Invalid port, deleting record")
		if err := store.DeleteServer(server.Host, server.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete invalid record")
		}
		return
	}

	status, err := game.QueryServer(server.Host, server.Port, false, options)
	if err != nil {
		logCtx.Debug().Err(err).Msg("Server unreachable, deleting record")
		if err := store.DeleteServer(server.Host, server.Port); err != nil {
			logCtx.Error().Err(err).Msg("Failed to delete unreachable record")
		}
		return
	}

	server.FromStatus(status)
	server.LastSeen = time.Now().UTC()

	if err := store.Upsert(server); err != nil {
		logCtx.Error().Err(err).Msg("Failed to update record")
	} else {
		logCtx.Trace().Msg("Record updated successfully")
	}
}
