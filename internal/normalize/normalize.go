package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Name folds a player name for case-insensitive matching.
func Name(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// RiotID folds name and tag into a single cache key.
func RiotID(name, tag string) string {
	if tag == "" {
		return Name(name)
	}
	return Name(name) + "#" + Name(tag)
}
