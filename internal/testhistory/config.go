// Package testhistory generates synthetic leaderboard histories for demos,
// load tests of the report and local development without game credentials.
package testhistory

import (
	"errors"
	"time"
)

// ErrInvalidConfig is returned for configurations Generate cannot honour.
var ErrInvalidConfig = errors.New("invalid synthetic history config")

// Server is one synthetic server and the races its players pick from.
type Server struct {
	Code  string
	Races []string
}

// Config holds the shape of the generated history.
type Config struct {
	Servers []Server
	Players int       // players per server, at most Top appear on a given day
	Top     int       // leaderboard length per (date, server)
	Days    int       // number of consecutive snapshot days
	End     time.Time // last snapshot day
	Seed    uint64    // same seed, same history

	// ChurnRate is the chance that a player misses a given day.
	ChurnRate float64
	// RaceChangeRate is the chance that a player switches race on a given day.
	RaceChangeRate float64
}

// Stats summarises a generated history.
type Stats struct {
	Observations int
	Dates        int
	Players      int
	RaceChanges  int
	Duration     time.Duration
}

func (c Config) validate() error {
	switch {
	case len(c.Servers) == 0:
		return errors.Join(ErrInvalidConfig, errors.New("no servers"))
	case c.Players < 1:
		return errors.Join(ErrInvalidConfig, errors.New("players must be positive"))
	case c.Days < 1:
		return errors.Join(ErrInvalidConfig, errors.New("days must be positive"))
	case c.ChurnRate < 0 || c.ChurnRate >= 1:
		return errors.Join(ErrInvalidConfig, errors.New("churn rate must be in [0,1)"))
	case c.RaceChangeRate < 0 || c.RaceChangeRate > 1:
		return errors.Join(ErrInvalidConfig, errors.New("race change rate must be in [0,1]"))
	}
	for _, s := range c.Servers {
		if s.Code == "" || len(s.Races) == 0 {
			return errors.Join(ErrInvalidConfig, errors.New("every server needs a code and races"))
		}
	}
	return nil
}
