// Package translate maps raw race labels and server codes to display labels.
//
// Tables are immutable after construction and passed explicitly to the
// history loader and the presentation layer.
package translate

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Table is an immutable label translation table. Lookup is total: labels
// without an entry come back unchanged.
type Table struct {
	entries map[string]string
}

// NewTable copies m into a new Table. Keys are matched after NFC
// normalisation and trimming, so "DAMNÉ" spelled with a combining accent
// finds the same entry as the precomposed form.
func NewTable(m map[string]string) Table {
	entries := make(map[string]string, len(m))
	for k, v := range m {
		entries[normalize(k)] = v
	}
	return Table{entries: entries}
}

// Translate returns the display label for raw.
func (t Table) Translate(raw string) string {
	if v, ok := t.entries[normalize(raw)]; ok {
		return v
	}
	return raw
}

// Len reports the number of entries.
func (t Table) Len() int { return len(t.entries) }

func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Translator bundles the race and server tables.
type Translator struct {
	Races   Table
	Servers Table
}

// New builds a Translator from raw maps.
func New(races, servers map[string]string) Translator {
	return Translator{Races: NewTable(races), Servers: NewTable(servers)}
}

// Race translates a race label.
func (t Translator) Race(raw string) string { return t.Races.Translate(raw) }

// Server translates a server code into its display name.
func (t Translator) Server(code string) string { return t.Servers.Translate(code) }
