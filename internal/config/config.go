// Package config handles the parsing and validation of application
// configuration from command-line arguments and environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/woozymasta/uquery/internal/logger"
	"github.com/woozymasta/uquery/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Query     Query         `group:"Query Options" env-namespace:"UQUERY"`
	Server    Server        `group:"Server Options" namespace:"server" env-namespace:"UQUERY_SERVER"`
	Storage   Storage       `group:"Storage Options" namespace:"db" env-namespace:"UQUERY_DB"`
	GeoIP     GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"UQUERY_GEOIP"`
	RateLimit RateLimit     `group:"Rate Limit Options" namespace:"rate-limit" env-namespace:"UQUERY_RATE_LIMIT"`
	Watch     Watch         `group:"Watch Options" namespace:"watch" env-namespace:"UQUERY_WATCH"`
	Logger    logger.Config `group:"Logger Options" namespace:"log" env-namespace:"UQUERY_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`

	Args struct {
		Host string `positional-arg-name:"host" description:"Game server host to query (one-shot mode)"`
	} `positional-args:"yes"`
}

// Query holds the wire protocol options.
type Query struct {
	// betteralign:ignore

	Port       int           `short:"p" long:"port" env:"PORT" description:"Server query port" default:"7778"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"TIMEOUT" description:"Query timeout for connect and each read" default:"30s"`
	BufferSize uint16        `long:"buffer-size" env:"BUFFER_SIZE" description:"Per-datagram read buffer size" default:"2048"`
	Raw        bool          `short:"r" long:"raw" description:"Keep the response as a plain key/value mapping, skip player extraction"`
}

// Server holds HTTP API mode configuration. Setting the listen address
// switches the application from one-shot query mode to serve mode.
type Server struct {
	// betteralign:ignore

	Address      string   `short:"l" long:"listen" env:"LISTEN_ADDRESS" description:"Run the HTTP API on this address instead of a one-shot query"`
	AuthToken    string   `long:"auth-token" env:"AUTH_TOKEN" description:"Admin authentication token (required in serve mode)"`
	AllowedHosts []string `short:"a" long:"allowed-host" env:"ALLOWED_HOSTS" description:"Hosts the live query endpoint may reach (empty allows any)" env-delim:","`
	TrustProxy   bool     `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
}

// Storage holds database configuration and one-shot maintenance flags.
type Storage struct {
	// betteralign:ignore

	Path       string `short:"d" long:"path" env:"PATH" description:"Path to SQLite database" default:"uquery.db"`
	PruneEmpty bool   `long:"prune-empty" description:"Delete records that never produced a status response, then exit"`
	CheckAll   bool   `long:"check-all" description:"Re-query every stored server. Update if UP, delete if DOWN, then exit"`

	GenerateCount int `long:"gen-fake-data" hidden:"true"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"uquery.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"24h"`
}

// RateLimit holds API rate limiting configuration.
type RateLimit struct {
	// betteralign:ignore

	Count  int           `long:"count" env:"COUNT" description:"Per-IP limit: requests count" default:"8"`
	Window time.Duration `long:"window" env:"WINDOW" description:"Per-IP limit: window duration" default:"1m"`
}

// Watch holds watchlist poller configuration for serve mode.
type Watch struct {
	// betteralign:ignore

	File     string        `short:"w" long:"file" env:"FILE" description:"YAML watchlist of servers to poll periodically"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Poll interval" default:"5m"`
	Workers  int           `long:"workers" env:"WORKERS" description:"Concurrent poll workers" default:"10"`
}

// ServeMode reports whether the application should run the HTTP API.
func (c *Config) ServeMode() bool {
	return c.Server.Address != ""
}

// MaintenanceMode reports whether a one-shot database task was requested.
func (c *Config) MaintenanceMode() bool {
	return c.Storage.PruneEmpty || c.Storage.CheckAll || c.Storage.GenerateCount > 0
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the
// help flag is invoked.
func Parse() *Config {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	if cfg.ServeMode() && cfg.Server.AuthToken == "" {
		fmt.Fprintln(os.Stderr,
			"Serve mode requires `--server-auth-token' or environment variable `UQUERY_SERVER_AUTH_TOKEN`!")
		os.Exit(1)
	}

	if !cfg.ServeMode() && !cfg.MaintenanceMode() && cfg.Args.Host == "" {
		fmt.Fprintln(os.Stderr, "A game server host argument is required in one-shot mode, see --help")
		os.Exit(1)
	}

	return &cfg
}
