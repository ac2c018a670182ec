// Package protocol implements the status query protocol spoken by
// Unreal-engine game servers on their UDP query port: the single
// request/response exchange and the decoder that turns the backslash
// delimited response into server fields and player records.
package protocol

import (
	"strconv"
	"strings"
)

const (
	// Separator delimits tokens on the wire. The same byte, trailing the
	// accumulated response, marks the response complete.
	Separator = '\\'

	// finalKey is the sentinel pair that closes every response.
	finalKey = "final"

	// healthOffset: the server reports the health of player i under
	// Health_(i+2), not Health_i. Wire quirk of the server software,
	// preserved as-is.
	healthOffset = 2

	// numPlayersKey announces how many indexed player records follow.
	numPlayersKey = "numplayers"
)

// Team is the numeric team slot a player occupies. Spectators never show up
// in the status response.
type Team int

// Team slots as reported on the wire.
const (
	TeamRed Team = iota
	TeamBlue
	TeamGreen
	TeamYellow
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	case TeamGreen:
		return "green"
	case TeamYellow:
		return "yellow"
	default:
		return "team " + strconv.Itoa(int(t))
	}
}

// Player is one connected player, assembled from the index-suffixed wire
// fields of a status response.
type Player struct {
	Name     string `json:"name"`
	NGSecret string `json:"ngsecret"`
	Mesh     string `json:"mesh"`
	Skin     string `json:"skin"`
	Face     string `json:"face"`
	Ping     int    `json:"ping"`
	Team     Team   `json:"team"`
	Frags    int    `json:"frags"`
	Health   int    `json:"health"`
}

// Status is the decoded result of one query. Info holds the key/value fields
// in wire order. Players is populated only by a friendly decode of a response
// reporting numplayers > 0; the nine wire fields consumed per player are
// removed from Info in that case.
type Status struct {
	Info    *Fields  `json:"info"`
	Players []Player `json:"players,omitempty"`
}

// Decode parses a complete response buffer as returned by Query. With raw
// set, the result carries every key/value pair as received (minus the final
// sentinel). Otherwise the indexed player fields are consolidated into
// Player records when the response reports any players.
func Decode(data []byte, raw bool) (*Status, error) {
	tokens := strings.Split(string(data), string(Separator))

	// The stream opens and closes with a separator, producing empty padding
	// tokens on both ends.
	if len(tokens) > 0 && tokens[0] == "" {
		tokens = tokens[1:]
	}
	if n := len(tokens); n > 0 && tokens[n-1] == "" {
		tokens = tokens[:n-1]
	}

	// The valueless final sentinel closes the stream.
	if n := len(tokens); n > 0 && tokens[n-1] == finalKey {
		tokens = tokens[:n-1]
	}

	if len(tokens)%2 != 0 {
		return nil, &MalformedResponseError{Tokens: len(tokens)}
	}

	fields := NewFields()
	for i := 0; i+1 < len(tokens); i += 2 {
		fields.Set(tokens[i], tokens[i+1])
	}

	// Some servers pair the sentinel with an explicit empty value instead;
	// it lands in the mapping, drop it there.
	fields.Delete(finalKey)

	status := &Status{Info: fields}
	if raw {
		return status, nil
	}

	count, ok := fields.Get(numPlayersKey)
	if !ok {
		return status, nil
	}

	// Responses with no players carry no indexed fields at all; the friendly
	// result is then identical to the raw one, players key included.
	n, err := strconv.Atoi(count)
	if err != nil || n <= 0 {
		return status, nil
	}

	players := make([]Player, 0, n)
	for i := 0; i < n; i++ {
		p, err := extractPlayer(fields, i)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	status.Players = players

	return status, nil
}

// extractPlayer consumes the nine wire fields of player index i, removing
// them from the mapping.
func extractPlayer(fields *Fields, i int) (Player, error) {
	var p Player
	var err error

	if p.Name, err = take(fields, "player", i); err != nil {
		return Player{}, err
	}

	var ping, team, frags, health string
	if ping, err = take(fields, "ping", i); err != nil {
		return Player{}, err
	}
	if team, err = take(fields, "team", i); err != nil {
		return Player{}, err
	}
	if frags, err = take(fields, "frags", i); err != nil {
		return Player{}, err
	}
	if p.NGSecret, err = take(fields, "ngsecret", i); err != nil {
		return Player{}, err
	}
	if health, err = take(fields, "Health", i+healthOffset); err != nil {
		return Player{}, err
	}
	if p.Mesh, err = take(fields, "mesh", i); err != nil {
		return Player{}, err
	}
	if p.Skin, err = take(fields, "skin", i); err != nil {
		return Player{}, err
	}
	if p.Face, err = take(fields, "face", i); err != nil {
		return Player{}, err
	}

	p.Ping = atoi(ping)
	p.Team = Team(atoi(team))
	p.Frags = atoi(frags)
	p.Health = atoi(health)

	return p, nil
}

// take reads and removes the value stored under base_index.
func take(fields *Fields, base string, index int) (string, error) {
	key := base + "_" + strconv.Itoa(index)

	v, ok := fields.Get(key)
	if !ok {
		return "", &MissingFieldError{Key: key}
	}
	fields.Delete(key)

	return v, nil
}

// atoi is a lenient integer parse; non-numeric wire values become zero.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
