package server

import (
	"time"

	"github.com/woozymasta/uquery/internal/config"
	"github.com/woozymasta/uquery/internal/geoip"
	"github.com/woozymasta/uquery/internal/storage"
)

// Server holds the dependencies, configuration, and runtime state required
// to handle HTTP requests in serve mode.
type Server struct {
	// storage provides access to the persistent database layer for reading
	// and writing observed server records.
	storage *storage.Repository

	// geoip provides functionality for resolving hosts to country codes.
	// It can be nil if the GeoIP database is not initialized.
	geoip *geoip.Provider

	// allowedHosts is a set of hashed host names (using xxhash) the live
	// query endpoint is permitted to reach. An empty set allows any host.
	allowedHosts map[uint64]struct{}

	// queryOptions holds the wire protocol settings (timeout, buffer size)
	// used for live queries issued on behalf of API clients.
	queryOptions config.Query

	// authToken is the secret token required to access administrative API
	// endpoints.
	authToken string

	// rateCount is the maximum number of requests allowed per IP address
	// within the rateWindow duration.
	rateCount int

	// rateWindow is the time window duration for the per-IP rate limiter.
	rateWindow time.Duration

	// trustProxy indicates whether the server should trust headers like
	// X-Forwarded-For when determining the client's real IP address.
	trustProxy bool
}
