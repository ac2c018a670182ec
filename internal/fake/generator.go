// Package fake provides utilities for generating random server records for
// testing and development purposes.
package fake

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/uquery/internal/models"
	"github.com/woozymasta/uquery/internal/storage"
)

// GenerateData populates the storage with a specified number of randomized
// server records covering the common game types, maps, and regions.
func GenerateData(store *storage.Repository, count int) {
	maps := []string{"DM-Deck16][", "DM-Turbine", "CTF-Face", "CTF-Coret", "DOM-Olden", "AS-Frigate"}
	gameTypes := []string{"DeathMatchPlus", "CTFGame", "Domination", "Assault"}
	versions := []string{"436", "451", "469d"}
	countries := []string{"US", "DE", "RU", "FR", "GB", "PL", "BR", "SE", "NL", "CZ", ""}

	for i := 0; i < count; i++ {
		daysAgo := rand.Intn(30)
		seen := time.Now().UTC().
			Add(-time.Duration(daysAgo) * 24 * time.Hour).
			Add(-time.Duration(rand.Intn(1440)) * time.Minute)

		maxPlayers := 4 * (1 + rand.Intn(4))
		server := models.Server{
			Host:        fmt.Sprintf("192.0.2.%d", rand.Intn(254)+1),
			Port:        7778 + rand.Intn(4)*10,
			CountryCode: countries[rand.Intn(len(countries))],
			ServerName:  fmt.Sprintf("Test Server #%03d", i),
			MapName:     maps[rand.Intn(len(maps))],
			GameType:    gameTypes[rand.Intn(len(gameTypes))],
			GameVersion: versions[rand.Intn(len(versions))],
			NumPlayers:  rand.Intn(maxPlayers + 1),
			MaxPlayers:  maxPlayers,
			FirstSeen:   seen,
			LastSeen:    seen,
		}

		if err := store.Upsert(server); err != nil {
			log.Error().Err(err).Str("host", server.Host).Msg("Failed to insert fake record")
		}
	}

	log.Info().Int("count", count).Msg("Fake data generated")
}
