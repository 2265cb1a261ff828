package storage

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goserg/blockcleaner/internal/domain"
)

type document struct {
	Blocked []domain.BlockedEntry `json:"usuariosBlock"`
}

// Encode renders the snapshot document: two-space indent, no HTML escaping,
// entries in the given order.
func Encode(entries []domain.BlockedEntry) ([]byte, error) {
	if entries == nil {
		entries = []domain.BlockedEntry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(document{Blocked: entries}); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrPersistence, err)
	}
	return buf.Bytes(), nil
}

func Decode(data []byte) ([]domain.BlockedEntry, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrPersistence, err)
	}
	return doc.Blocked, nil
}
