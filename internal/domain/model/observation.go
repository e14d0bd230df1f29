// Package model contains domain models passed between layers.
package model

import "sort"

// DateLayout is the ISO calendar date format used for snapshot days.
const DateLayout = "2006-01-02"

// Observation is one leaderboard snapshot of a player on a server.
// Observations are immutable once loaded.
type Observation struct {
	Date       string // snapshot day, ISO YYYY-MM-DD
	Server     string // raw server code, e.g. "R1"
	ServerName string // display name resolved from the server table
	Position   int    // rank on the server that day
	Name       string // unique per (date, server)
	Race       string // display label after translation
	Points     int
}

// PlayerKey identifies one progression line. Race is deliberately absent:
// a player who changes race is still the same line.
type PlayerKey struct {
	Name   string
	Server string
}

// Key returns the grouping key of o.
func (o Observation) Key() PlayerKey {
	return PlayerKey{Name: o.Name, Server: o.Server}
}

// Dates returns the sorted set of distinct snapshot dates in obs.
func Dates(obs []Observation) []string {
	seen := make(map[string]struct{})
	dates := make([]string, 0)
	for _, o := range obs {
		if _, ok := seen[o.Date]; ok {
			continue
		}
		seen[o.Date] = struct{}{}
		dates = append(dates, o.Date)
	}
	sort.Strings(dates)
	return dates
}

// Snapshot returns the observations of one (date, server) pair sorted by position.
func Snapshot(obs []Observation, date, server string) []Observation {
	out := make([]Observation, 0)
	for _, o := range obs {
		if o.Date == date && o.Server == server {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}
