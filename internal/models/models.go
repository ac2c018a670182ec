// Package models defines the data structures used for API responses and
// database persistence.
package models

import (
	"strconv"
	"time"

	"github.com/woozymasta/uquery/internal/protocol"
)

// Server represents an observed game server stored in the database.
type Server struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Host        string    `json:"host"`
	CountryCode string    `json:"country_code"`
	ServerName  string    `json:"server_name"`
	MapName     string    `json:"map_name"`
	GameType    string    `json:"game_type"`
	GameVersion string    `json:"game_version"`
	Port        int       `json:"port"`
	Count       int64     `json:"count"`
	NumPlayers  int       `json:"num_players"`
	MaxPlayers  int       `json:"max_players"`
}

// FromStatus fills the observable fields of the record from a decoded status
// response. Identity (host, port) and bookkeeping fields are left alone.
func (s *Server) FromStatus(st *protocol.Status) {
	field := func(key string) string {
		v, _ := st.Info.Get(key)
		return v
	}

	s.ServerName = field("hostname")
	s.MapName = field("mapname")
	s.GameType = field("gametype")
	s.GameVersion = field("gamever")
	s.NumPlayers = atoi(field("numplayers"))
	s.MaxPlayers = atoi(field("maxplayers"))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
