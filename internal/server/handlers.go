package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/uquery/internal/game"
	"github.com/woozymasta/uquery/internal/models"
	"github.com/woozymasta/uquery/internal/protocol"
	"github.com/woozymasta/uquery/internal/vars"
)

// handleHealth reports liveness and the running version.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": vars.Version,
		"commit":  vars.CommitShort(),
	})
}

// handleStatus performs a live status query to a specific game server.
// Query params: ?host=1.2.3.4&port=7778&raw=1
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	if host == "" {
		http.Error(w, "Missing host", http.StatusBadRequest)
		return
	}

	port, err := portParam(r, s.queryOptions.Port)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	if !s.hostAllowed(host) {
		http.Error(w, "Host not allowed", http.StatusForbidden)
		return
	}

	raw := r.URL.Query().Get("raw") == "1"

	status, err := game.QueryServer(host, port, raw, s.queryOptions)
	if err != nil {
		log.Debug().Err(err).Str("host", host).Int("port", port).Msg("Live query failed")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusGatewayTimeout)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
			"kind":  errorKind(err),
		})
		return
	}

	s.recordObservation(host, port, status)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleServers returns a JSON list of all observed server records.
// This endpoint is protected by AdminAuthMiddleware.
func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers, err := s.storage.GetServers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch servers")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if servers == nil {
		servers = []models.Server{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(servers)
}

// handleGetServer returns details for a specific observed server.
// Query params: ?host=1.2.3.4&port=7778
func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	if host == "" {
		http.Error(w, "Missing host", http.StatusBadRequest)
		return
	}

	port, err := portParam(r, s.queryOptions.Port)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	server, err := s.storage.GetServer(host, port)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch server")
		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	if server == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(server)
}

// handleDeleteServer removes a specific record from the database.
// Query params: ?host=1.2.3.4&port=7778
func (s *Server) handleDeleteServer(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	if host == "" {
		http.Error(w, "Missing host", http.StatusBadRequest)
		return
	}

	port, err := portParam(r, s.queryOptions.Port)
	if err != nil {
		http.Error(w, "Invalid port", http.StatusBadRequest)
		return
	}

	if err := s.storage.DeleteServer(host, port); err != nil {
		log.Error().Err(err).
			Str("host", host).
			Int("port", port).
			Msg("Failed to delete server")

		http.Error(w, "Database Error", http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("host", host).
		Int("port", port).
		Msg("Server record deleted manually")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Server deleted"})
}

// recordObservation persists the outcome of a successful live query.
func (s *Server) recordObservation(host string, port int, status *protocol.Status) {
	if s.storage == nil {
		return
	}

	now := time.Now().UTC()
	server := models.Server{
		Host:      host,
		Port:      port,
		FirstSeen: now,
		LastSeen:  now,
	}
	server.FromStatus(status)

	if s.geoip != nil {
		server.CountryCode = s.geoip.CountryCode(host)
	}

	if err := s.storage.Upsert(server); err != nil {
		log.Error().Err(err).Str("host", host).Int("port", port).Msg("Failed to store observation")
	}
}

// portParam reads the optional port query parameter, falling back to the
// configured default.
func portParam(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("port")
	if raw == "" {
		return fallback, nil
	}

	port, err := strconv.Atoi(raw)
	if err != nil || port <= 0 || port > 65535 {
		return 0, errors.New("invalid port")
	}

	return port, nil
}

// errorKind maps a query failure to a stable identifier API clients can
// branch on without parsing message text.
func errorKind(err error) string {
	var (
		connErr    *protocol.ConnectionError
		incomplete *protocol.IncompleteResponseError
		malformed  *protocol.MalformedResponseError
		missing    *protocol.MissingFieldError
	)

	switch {
	case errors.As(err, &connErr):
		return "connection"
	case errors.As(err, &incomplete):
		return "incomplete_response"
	case errors.As(err, &malformed):
		return "malformed_response"
	case errors.As(err, &missing):
		return "missing_field"
	default:
		return "unknown"
	}
}
