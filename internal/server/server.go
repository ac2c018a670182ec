// Package server implements the HTTP server, middleware, and request
// handlers for serve mode.
package server

import (
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/geoip"
	"github.com/woozymasta/uquery/internal/storage"
)

// New creates a new Server instance with the provided storage, GeoIP
// provider, and configuration.
func New(store *storage.Repository, geo *geoip.Provider, cfg *config.Config) *Server {
	hostSet := make(map[uint64]struct{})
	for _, host := range cfg.Server.AllowedHosts {
		hostSet[xxhash.Sum64String(host)] = struct{}{}
	}

	return &Server{
		storage:      store,
		geoip:        geo,
		allowedHosts: hostSet,
		queryOptions: cfg.Query,
		authToken:    cfg.Server.AuthToken,
		rateCount:    cfg.RateLimit.Count,
		rateWindow:   cfg.RateLimit.Window,
		trustProxy:   cfg.Server.TrustProxy,
	}
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /api/status", s.RateLimitMiddleware(http.HandlerFunc(s.handleStatus)))
	mux.Handle("GET /api/servers", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleServers)))
	mux.Handle("GET /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleGetServer)))
	mux.Handle("DELETE /api/server", AdminAuthMiddleware(s.authToken, http.HandlerFunc(s.handleDeleteServer)))
	mux.Handle("GET /healthz", http.HandlerFunc(s.handleHealth))

	return s.LoggingMiddleware(mux)
}

// hostAllowed checks the live query allowlist. An empty allowlist permits
// any host.
func (s *Server) hostAllowed(host string) bool {
	if len(s.allowedHosts) == 0 {
		return true
	}

	_, ok := s.allowedHosts[xxhash.Sum64String(host)]

	return ok
}
