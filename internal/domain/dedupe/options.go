package dedupe

import "github.com/burns-20/bwrank/internal/domain/model"

// Option applies a configuration option to the in-memory deduper.
type Option func(d *inMemoryDeduper, seed *[]model.Observation)

// WithHistory pre-records the keys of obs.
func WithHistory(obs []model.Observation) Option {
	return func(_ *inMemoryDeduper, seed *[]model.Observation) {
		*seed = append(*seed, obs...)
	}
}

// WithDate limits seeding to rows of date. Scrapes only ever write today's
// rows, so older keys would never match.
func WithDate(date string) Option {
	return func(d *inMemoryDeduper, _ *[]model.Observation) {
		d.date = date
	}
}
