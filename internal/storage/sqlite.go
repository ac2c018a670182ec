// Package storage handles database connections, schema migrations, and data
// operations using SQLite.
package storage

import (
	"database/sql"
	"time"

	"github.com/woozymasta/uquery/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Upsert inserts a new server record or updates an existing one keyed by
// (host, port). Status fields are refreshed only when the observation carried
// a decoded response (server_name non-empty); the country code sticks once
// known.
func (r *Repository) Upsert(s models.Server) error {
	query := `
	INSERT INTO servers (
		host, port, country_code,
		server_name, map_name, game_type, game_version, num_players, max_players,
		count, first_seen, last_seen
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	ON CONFLICT(host, port) DO UPDATE SET
		count = count + 1,
		last_seen = excluded.last_seen,

		country_code = CASE WHEN excluded.country_code != '' THEN excluded.country_code ELSE servers.country_code END,

		server_name  = CASE WHEN excluded.server_name != '' THEN excluded.server_name ELSE servers.server_name END,
		map_name     = CASE WHEN excluded.server_name != '' THEN excluded.map_name ELSE servers.map_name END,
		game_type    = CASE WHEN excluded.server_name != '' THEN excluded.game_type ELSE servers.game_type END,
		game_version = CASE WHEN excluded.server_name != '' THEN excluded.game_version ELSE servers.game_version END,
		num_players  = CASE WHEN excluded.server_name != '' THEN excluded.num_players ELSE servers.num_players END,
		max_players  = CASE WHEN excluded.server_name != '' THEN excluded.max_players ELSE servers.max_players END;
	`

	_, err := r.db.Exec(query,
		s.Host, s.Port, s.CountryCode,
		s.ServerName, s.MapName, s.GameType, s.GameVersion, s.NumPlayers, s.MaxPlayers,
		s.FirstSeen, s.LastSeen,
	)

	return err
}

// GetServers retrieves all server records, sorted by the last seen timestamp
// in descending order.
func (r *Repository) GetServers() ([]models.Server, error) {
	rows, err := r.db.Query(`
		SELECT host, port, country_code,
		       server_name, map_name, game_type, game_version, num_players, max_players,
		       count, first_seen, last_seen
		FROM servers
		ORDER BY last_seen DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var servers []models.Server
	for rows.Next() {
		var s models.Server
		if err := rows.Scan(
			&s.Host, &s.Port, &s.CountryCode,
			&s.ServerName, &s.MapName, &s.GameType, &s.GameVersion, &s.NumPlayers, &s.MaxPlayers,
			&s.Count, &s.FirstSeen, &s.LastSeen,
		); err != nil {
			continue
		}
		servers = append(servers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return servers, nil
}

// GetServer retrieves a specific record by its (host, port) identity.
// A missing record returns nil without an error.
func (r *Repository) GetServer(host string, port int) (*models.Server, error) {
	row := r.db.QueryRow(`
		SELECT host, port, country_code,
		       server_name, map_name, game_type, game_version, num_players, max_players,
		       count, first_seen, last_seen
		FROM servers
		WHERE host = ? AND port = ?
	`, host, port)

	var s models.Server
	err := row.Scan(
		&s.Host, &s.Port, &s.CountryCode,
		&s.ServerName, &s.MapName, &s.GameType, &s.GameVersion, &s.NumPlayers, &s.MaxPlayers,
		&s.Count, &s.FirstSeen, &s.LastSeen,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

// DeleteServer removes a specific record identified by host and port.
func (r *Repository) DeleteServer(host string, port int) error {
	_, err := r.db.Exec(`DELETE FROM servers WHERE host = ? AND port = ?`, host, port)
	return err
}

// DeleteEmptyServers removes records that never produced a decoded status
// response (server_name is empty).
func (r *Repository) DeleteEmptyServers() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM servers WHERE server_name IS NULL OR server_name = ''`)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
