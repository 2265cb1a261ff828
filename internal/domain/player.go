package domain

import "encoding/json"

// BlockedEntry is one player on the blocked list.
type BlockedEntry struct {
	LocalID     string
	DisplayName string
	TagLine     string
	PUUID       string
	SummonerID  string

	// Extra keeps every other field of the source payload so a snapshot round-trips.
	Extra map[string]json.RawMessage
}

// RiotID returns "name#tag", or just the name when the tag is unknown.
func (e BlockedEntry) RiotID() string {
	if e.TagLine == "" {
		return e.DisplayName
	}
	return e.DisplayName + "#" + e.TagLine
}

// Key identifies the entry within a snapshot.
func (e BlockedEntry) Key() string {
	if e.LocalID != "" {
		return e.LocalID
	}
	return e.RiotID()
}
