package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fieldID         = "id"
	fieldGameName   = "gameName"
	fieldGameTag    = "gameTag"
	fieldName       = "name"
	fieldPUUID      = "puuid"
	fieldSummonerID = "summonerId"
)

// UnmarshalJSON accepts the local client's blocked-player object. Identifiers
// may be strings or numbers. Unknown fields land in Extra.
func (e *BlockedEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out BlockedEntry
	var err error
	if out.LocalID, err = takeString(raw, fieldID, true); err != nil {
		return err
	}
	if out.DisplayName, err = takeString(raw, fieldGameName, true); err != nil {
		return err
	}
	if out.TagLine, err = takeString(raw, fieldGameTag, true); err != nil {
		return err
	}
	if out.DisplayName == "" {
		// older payloads only carry the summoner name
		if out.DisplayName, err = takeString(raw, fieldName, false); err != nil {
			return err
		}
	}
	if out.PUUID, err = takeString(raw, fieldPUUID, false); err != nil {
		return err
	}
	if out.SummonerID, err = takeString(raw, fieldSummonerID, false); err != nil {
		return err
	}
	if len(raw) > 0 {
		out.Extra = raw
	}
	*e = out
	return nil
}

// MarshalJSON writes Extra back together with the typed fields. A puuid or
// summonerId that is still present in Extra keeps its original encoding.
func (e BlockedEntry) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+5)
	for k, v := range e.Extra {
		out[k] = v
	}
	out[fieldID] = e.LocalID
	out[fieldGameName] = e.DisplayName
	out[fieldGameTag] = e.TagLine
	setIfChanged(out, e.Extra, fieldPUUID, e.PUUID)
	setIfChanged(out, e.Extra, fieldSummonerID, e.SummonerID)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func setIfChanged(out map[string]any, extra map[string]json.RawMessage, key, value string) {
	if raw, ok := extra[key]; ok {
		if s, err := flexString(raw); err == nil && s == value {
			return
		}
	}
	if value == "" {
		delete(out, key)
		return
	}
	out[key] = value
}

// takeString reads key as a string or number. When remove is set the key is
// dropped from raw; otherwise it stays so the original encoding survives.
func takeString(raw map[string]json.RawMessage, key string, remove bool) (string, error) {
	v, ok := raw[key]
	if !ok {
		return "", nil
	}
	s, err := flexString(v)
	if err != nil {
		return "", fmt.Errorf("field %s: %w", key, err)
	}
	if remove {
		delete(raw, key)
	}
	return s, nil
}

func flexString(raw json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("want string or number, got %s", trimmed)
	}
	return n.String(), nil
}
