// Package watch polls a fixed list of game servers on an interval and
// records the results in storage.
package watch

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/game"
	"github.com/woozymasta/uquery/internal/geoip"
	"github.com/woozymasta/uquery/internal/models"
	"github.com/woozymasta/uquery/internal/protocol"
	"github.com/woozymasta/uquery/internal/storage"
	"gopkg.in/yaml.v3"
)

// Entry is one server on the watchlist. Port defaults to the standard query
// port when omitted.
type Entry struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// List is the YAML watchlist document.
type List struct {
	Servers []Entry `yaml:"servers"`
}

// Load reads and validates a watchlist file.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, err
	}

	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}

	for i := range list.Servers {
		if list.Servers[i].Host == "" {
			return nil, fmt.Errorf("watchlist %s: entry %d has no host", path, i)
		}
		if list.Servers[i].Port == 0 {
			list.Servers[i].Port = protocol.DefaultPort
		}
	}

	return &list, nil
}

// Poller queries every watchlist entry on an interval with a bounded worker
// pool. Each entry is one independent protocol exchange.
type Poller struct {
	store    *storage.Repository
	geoip    *geoip.Provider
	list     *List
	shutdown chan struct{}
	options  config.Query
	interval time.Duration
	workers  int
	wg       sync.WaitGroup
}

// New creates a poller ready to start.
func New(list *List, store *storage.Repository, geo *geoip.Provider, cfg *config.Config) *Poller {
	workers := cfg.Watch.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Poller{
		store:    store,
		geoip:    geo,
		list:     list,
		shutdown: make(chan struct{}),
		options:  cfg.Query,
		interval: cfg.Watch.Interval,
		workers:  workers,
	}
}

// Start launches the poll loop. The first sweep runs immediately.
func (p *Poller) Start() {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.sweep()
		for {
			select {
			case <-p.shutdown:
				return
			case <-ticker.C:
				p.sweep()
			}
		}
	}()
}

// Stop terminates the poll loop and waits for an in-flight sweep to finish.
func (p *Poller) Stop() {
	close(p.shutdown)
	p.wg.Wait()
}

// sweep queries every entry once through the worker pool.
func (p *Poller) sweep() {
	jobs := make(chan Entry, len(p.list.Servers))
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				p.poll(entry)
			}
		}()
	}

	for _, entry := range p.list.Servers {
		jobs <- entry
	}
	close(jobs)

	wg.Wait()
}

// poll performs one query and stores the observation. Failures are recorded
// too so dead servers keep their history until maintenance prunes them.
func (p *Poller) poll(entry Entry) {
	now := time.Now().UTC()
	server := models.Server{
		Host:      entry.Host,
		Port:      entry.Port,
		FirstSeen: now,
		LastSeen:  now,
	}

	status, err := game.QueryServer(entry.Host, entry.Port, false, p.options)
	if err != nil {
		log.Debug().Err(err).
			Str("host", entry.Host).
			Int("port", entry.Port).
			Msg("Watchlist poll failed")
	} else {
		server.FromStatus(status)
	}

	if p.geoip != nil {
		server.CountryCode = p.geoip.CountryCode(entry.Host)
	}

	if err := p.store.Upsert(server); err != nil {
		log.Error().Err(err).
			Str("host", entry.Host).
			Int("port", entry.Port).
			Msg("Failed to store watchlist observation")
	}
}
