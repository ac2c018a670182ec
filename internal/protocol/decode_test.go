package protocol

import (
	"errors"
	"strings"
	"testing"
)

// wire builds a response buffer from alternating key/value tokens, closed by
// the final sentinel and the trailing terminator.
func wire(tokens ...string) []byte {
	all := append(append([]string{}, tokens...), "final")
	return []byte("\\" + strings.Join(all, "\\") + "\\")
}

func TestDecodeRaw(t *testing.T) {
	data := wire(
		"hostname", "DM Arena",
		"mapname", "DM-Deck16][",
		"gametype", "DeathMatchPlus",
		"numplayers", "0",
		"maxplayers", "16",
	)

	st, err := Decode(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.Info.Len() != 5 {
		t.Fatalf("fields=%d, want=5", st.Info.Len())
	}
	if v, _ := st.Info.Get("hostname"); v != "DM Arena" {
		t.Fatalf("hostname=%q", v)
	}
	if v, _ := st.Info.Get("mapname"); v != "DM-Deck16][" {
		t.Fatalf("mapname=%q", v)
	}
	if _, ok := st.Info.Get("final"); ok {
		t.Fatal("final sentinel should not survive decoding")
	}
	if st.Players != nil {
		t.Fatalf("raw decode produced players: %+v", st.Players)
	}

	want := []string{"hostname", "mapname", "gametype", "numplayers", "maxplayers"}
	got := st.Info.Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("key order %v, want %v", got, want)
		}
	}
}

func TestDecodeDuplicateKeyOverwrite(t *testing.T) {
	data := wire("a", "1", "b", "2", "a", "3")

	st, err := Decode(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st.Info.Len() != 2 {
		t.Fatalf("fields=%d, want=2", st.Info.Len())
	}
	if v, _ := st.Info.Get("a"); v != "3" {
		t.Fatalf("a=%q, want=3", v)
	}
	if v, _ := st.Info.Get("b"); v != "2" {
		t.Fatalf("b=%q, want=2", v)
	}
	if keys := st.Info.Keys(); keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("duplicate overwrite changed key order: %v", keys)
	}
}

func TestDecodeOddTokenCount(t *testing.T) {
	// "orphan" is a trailing key with no value.
	data := []byte(`\a\1\b\2\orphan\final\`)

	_, err := Decode(data, true)

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("err=%v, want MalformedResponseError", err)
	}
	if malformed.Tokens != 5 {
		t.Fatalf("tokens=%d, want=5", malformed.Tokens)
	}
}

func TestDecodeSentinelWithEmptyValue(t *testing.T) {
	// Sentinel sent as an explicit empty-valued pair.
	data := []byte(`\a\1\final\\`)

	st, err := Decode(data, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Info.Len() != 1 {
		t.Fatalf("fields=%d, want=1", st.Info.Len())
	}
	if _, ok := st.Info.Get("final"); ok {
		t.Fatal("final sentinel should not survive decoding")
	}
}

func TestDecodePlayers(t *testing.T) {
	data := wire(
		"hostname", "CTF Night",
		"numplayers", "2",
		"maxplayers", "10",
		"player_0", "Loque", "ping_0", "38", "team_0", "0", "frags_0", "12",
		"ngsecret_0", "true", "Health_2", "100",
		"mesh_0", "Male Soldier", "skin_0", "SoldierSkins.blkt", "face_0", "SoldierSkins.Othello",
		"player_1", "Visse", "ping_1", "102", "team_1", "1", "frags_1", "-3",
		"ngsecret_1", "false", "Health_3", "67",
		"mesh_1", "Female Commando", "skin_1", "FCommandoSkins.daco", "face_1", "FCommandoSkins.Jayce",
	)

	st, err := Decode(data, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(st.Players) != 2 {
		t.Fatalf("players=%d, want=2", len(st.Players))
	}

	p := st.Players[0]
	if p.Name != "Loque" || p.Ping != 38 || p.Team != TeamRed || p.Frags != 12 {
		t.Fatalf("player 0 = %+v", p)
	}
	if p.Health != 100 {
		t.Fatalf("player 0 health=%d, want=100 (from Health_2)", p.Health)
	}
	if p.Mesh != "Male Soldier" || p.Skin != "SoldierSkins.blkt" || p.Face != "SoldierSkins.Othello" {
		t.Fatalf("player 0 cosmetics = %+v", p)
	}

	q := st.Players[1]
	if q.Name != "Visse" || q.Team != TeamBlue || q.Frags != -3 {
		t.Fatalf("player 1 = %+v", q)
	}
	if q.Health != 67 {
		t.Fatalf("player 1 health=%d, want=67 (from Health_3)", q.Health)
	}

	// Consumed fields must be gone from the residual mapping.
	for _, key := range []string{
		"player_0", "ping_0", "team_0", "frags_0", "ngsecret_0", "Health_2", "mesh_0", "skin_0", "face_0",
		"player_1", "ping_1", "team_1", "frags_1", "ngsecret_1", "Health_3", "mesh_1", "skin_1", "face_1",
	} {
		if _, ok := st.Info.Get(key); ok {
			t.Fatalf("consumed key %q still present", key)
		}
	}
	if v, _ := st.Info.Get("hostname"); v != "CTF Night" {
		t.Fatalf("hostname=%q", v)
	}
	if v, _ := st.Info.Get("numplayers"); v != "2" {
		t.Fatalf("numplayers=%q", v)
	}
}

func TestDecodeNoPlayers(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"zero", wire("hostname", "Empty", "numplayers", "0")},
		{"negative", wire("hostname", "Empty", "numplayers", "-1")},
		{"absent", wire("hostname", "Empty")},
		{"garbage", wire("hostname", "Empty", "numplayers", "many")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			friendly, err := Decode(tc.data, false)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			raw, err := Decode(tc.data, true)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if friendly.Players != nil {
				t.Fatalf("players=%+v, want none", friendly.Players)
			}
			if friendly.Info.Len() != raw.Info.Len() {
				t.Fatalf("friendly fields=%d, raw fields=%d", friendly.Info.Len(), raw.Info.Len())
			}
			for _, k := range raw.Info.Keys() {
				rv, _ := raw.Info.Get(k)
				fv, ok := friendly.Info.Get(k)
				if !ok || fv != rv {
					t.Fatalf("field %q diverged: raw=%q friendly=%q", k, rv, fv)
				}
			}
		})
	}
}

func TestDecodeMissingPlayerField(t *testing.T) {
	data := wire(
		"numplayers", "1",
		"player_0", "Loque", "ping_0", "38", "team_0", "0", "frags_0", "12",
		"ngsecret_0", "true", "Health_2", "100",
		"skin_0", "SoldierSkins.blkt", "face_0", "SoldierSkins.Othello",
	)

	_, err := Decode(data, false)

	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("err=%v, want MissingFieldError", err)
	}
	if missing.Key != "mesh_0" {
		t.Fatalf("key=%q, want=mesh_0", missing.Key)
	}
}

func TestTeamString(t *testing.T) {
	cases := map[Team]string{
		TeamRed:    "red",
		TeamBlue:   "blue",
		TeamGreen:  "green",
		TeamYellow: "yellow",
		Team(7):    "team 7",
	}

	for team, want := range cases {
		if got := team.String(); got != want {
			t.Fatalf("Team(%d).String()=%q, want=%q", int(team), got, want)
		}
	}
}
