package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/woozymasta/uquery/internal/models"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestUpsertAndGet(t *testing.T) {
	repo := openTestRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	server := models.Server{
		Host:        "192.0.2.10",
		Port:        7778,
		CountryCode: "DE",
		ServerName:  "DM Arena",
		MapName:     "DM-Deck16][",
		GameType:    "DeathMatchPlus",
		GameVersion: "436",
		NumPlayers:  3,
		MaxPlayers:  16,
		FirstSeen:   now,
		LastSeen:    now,
	}

	if err := repo.Upsert(server); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.GetServer("192.0.2.10", 7778)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("record not found after upsert")
	}
	if got.ServerName != "DM Arena" || got.Count != 1 {
		t.Fatalf("record = %+v", got)
	}

	// Second observation bumps the counter and refreshes status fields.
	server.MapName = "DM-Turbine"
	server.NumPlayers = 5
	server.LastSeen = now.Add(time.Minute)
	if err := repo.Upsert(server); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err = repo.GetServer("192.0.2.10", 7778)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Count != 2 || got.MapName != "DM-Turbine" || got.NumPlayers != 5 {
		t.Fatalf("record after update = %+v", got)
	}
}

func TestUpsertKeepsFieldsOnFailedObservation(t *testing.T) {
	repo := openTestRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	server := models.Server{
		Host:        "192.0.2.11",
		Port:        7778,
		CountryCode: "FR",
		ServerName:  "CTF Night",
		MapName:     "CTF-Face",
		NumPlayers:  8,
		FirstSeen:   now,
		LastSeen:    now,
	}
	if err := repo.Upsert(server); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// A failed query stores only identity and timestamps.
	down := models.Server{
		Host:      "192.0.2.11",
		Port:      7778,
		FirstSeen: now.Add(time.Hour),
		LastSeen:  now.Add(time.Hour),
	}
	if err := repo.Upsert(down); err != nil {
		t.Fatalf("upsert down: %v", err)
	}

	got, err := repo.GetServer("192.0.2.11", 7778)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ServerName != "CTF Night" || got.MapName != "CTF-Face" || got.CountryCode != "FR" {
		t.Fatalf("status fields lost on empty observation: %+v", got)
	}
	if got.Count != 2 {
		t.Fatalf("count=%d, want=2", got.Count)
	}
}

func TestGetServersAndDelete(t *testing.T) {
	repo := openTestRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	for i, host := range []string{"192.0.2.20", "192.0.2.21"} {
		err := repo.Upsert(models.Server{
			Host:       host,
			Port:       7778,
			ServerName: "Server",
			FirstSeen:  now.Add(time.Duration(i) * time.Minute),
			LastSeen:   now.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("upsert %s: %v", host, err)
		}
	}

	servers, err := repo.GetServers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(servers) != 2 {
		t.Fatalf("servers=%d, want=2", len(servers))
	}
	if servers[0].Host != "192.0.2.21" {
		t.Fatalf("expected newest record first, got %q", servers[0].Host)
	}

	if err := repo.DeleteServer("192.0.2.20", 7778); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := repo.GetServer("192.0.2.20", 7778)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("record survived delete: %+v", got)
	}
}

func TestDeleteEmptyServers(t *testing.T) {
	repo := openTestRepo(t)

	now := time.Now().UTC().Truncate(time.Second)
	records := []models.Server{
		{Host: "192.0.2.30", Port: 7778, ServerName: "Alive", FirstSeen: now, LastSeen: now},
		{Host: "192.0.2.31", Port: 7778, FirstSeen: now, LastSeen: now},
		{Host: "192.0.2.32", Port: 7778, FirstSeen: now, LastSeen: now},
	}
	for _, s := range records {
		if err := repo.Upsert(s); err != nil {
			t.Fatalf("upsert %s: %v", s.Host, err)
		}
	}

	deleted, err := repo.DeleteEmptyServers()
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted=%d, want=2", deleted)
	}

	servers, err := repo.GetServers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(servers) != 1 || servers[0].Host != "192.0.2.30" {
		t.Fatalf("servers after prune = %+v", servers)
	}
}
