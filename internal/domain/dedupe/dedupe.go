// Package dedupe tracks which leaderboard rows are already in the history so
// a re-run of the scraper on the same day does not store them twice.
package dedupe

import (
	"context"
	"sync"

	"github.com/burns-20/bwrank/internal/domain/model"
)

// Key identifies one stored row. The history holds at most one row per key.
type Key struct {
	Date   string
	Server string
	Name   string
}

// KeyOf returns the key of o.
func KeyOf(o model.Observation) Key {
	return Key{Date: o.Date, Server: o.Server, Name: o.Name}
}

// Deduper records seen row keys.
type Deduper interface {
	// SeenAndRecord reports whether k was already recorded and records it if not.
	SeenAndRecord(ctx context.Context, k Key) bool

	// Unrecord forgets k. Used when a row was recorded but its append failed,
	// so a later attempt may store it.
	Unrecord(ctx context.Context, k Key)

	Size() int
}

type inMemoryDeduper struct {
	mu   sync.Mutex
	seen map[Key]struct{}
	date string // only seed rows of this date, empty = all
}

// NewInMemoryDeduper creates a deduper, optionally pre-seeded from the
// existing history.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{seen: make(map[Key]struct{})}
	var seed []model.Observation
	for _, opt := range opts {
		opt(d, &seed)
	}
	for _, o := range seed {
		if d.date != "" && o.Date != d.date {
			continue
		}
		d.seen[KeyOf(o)] = struct{}{}
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, k Key) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[k]; ok {
		return true
	}
	d.seen[k] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, k Key) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, k)
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
