package testhistory

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/google/uuid"
)

// Ranges of the daily point gain, in points.
const (
	initialPointsMin   = 500
	initialPointsRange = 20_000
	dailyGainMax       = 800
	dailyLossChance    = 0.05
	dailyLossMax       = 300
)

type player struct {
	name   string
	race   string
	points int
}

// Generate builds a history of cfg.Days snapshots ending at cfg.End. Within a
// (date, server) names and positions are unique and positions follow points.
func Generate(cfg Config) ([]model.Observation, Stats, error) {
	if err := cfg.validate(); err != nil {
		return nil, Stats{}, err
	}
	start := time.Now()
	if cfg.Top <= 0 || cfg.Top > cfg.Players {
		cfg.Top = cfg.Players
	}
	if cfg.End.IsZero() {
		cfg.End = time.Now()
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:8], cfg.Seed)
	src := rand.NewChaCha8(seed)
	rng := rand.New(src)

	stats := Stats{Dates: cfg.Days}
	out := make([]model.Observation, 0, cfg.Days*cfg.Top*len(cfg.Servers))
	for _, srv := range cfg.Servers {
		players, err := newPlayers(src, rng, srv, cfg.Players)
		if err != nil {
			return nil, Stats{}, err
		}
		stats.Players += len(players)

		for d := cfg.Days - 1; d >= 0; d-- {
			date := cfg.End.AddDate(0, 0, -d).Format(model.DateLayout)
			present := make([]*player, 0, len(players))
			for _, p := range players {
				advance(rng, p)
				if rng.Float64() < cfg.RaceChangeRate {
					p.race = otherRace(rng, srv.Races, p.race)
					stats.RaceChanges++
				}
				if rng.Float64() >= cfg.ChurnRate {
					present = append(present, p)
				}
			}
			out = append(out, snapshot(date, srv.Code, present, cfg.Top)...)
		}
	}
	stats.Observations = len(out)
	stats.Duration = time.Since(start)
	return out, stats, nil
}

// newPlayers names players after a UUID drawn from the seeded source, so the
// same seed yields the same names.
func newPlayers(src *rand.ChaCha8, rng *rand.Rand, srv Server, n int) ([]*player, error) {
	players := make([]*player, 0, n)
	for range n {
		id, err := uuid.NewRandomFromReader(src)
		if err != nil {
			return nil, fmt.Errorf("player id: %w", err)
		}
		players = append(players, &player{
			name:   srv.Code + "-" + id.String()[:8],
			race:   srv.Races[rng.IntN(len(srv.Races))],
			points: initialPointsMin + rng.IntN(initialPointsRange),
		})
	}
	return players, nil
}

func advance(rng *rand.Rand, p *player) {
	if rng.Float64() < dailyLossChance {
		p.points = max(0, p.points-rng.IntN(dailyLossMax))
		return
	}
	p.points += rng.IntN(dailyGainMax)
}

func otherRace(rng *rand.Rand, races []string, current string) string {
	if len(races) < 2 {
		return current
	}
	for {
		if r := races[rng.IntN(len(races))]; r != current {
			return r
		}
	}
}

func snapshot(date, server string, present []*player, top int) []model.Observation {
	sort.SliceStable(present, func(i, j int) bool {
		if present[i].points != present[j].points {
			return present[i].points > present[j].points
		}
		return present[i].name < present[j].name
	})
	if len(present) > top {
		present = present[:top]
	}
	out := make([]model.Observation, 0, len(present))
	for i, p := range present {
		out = append(out, model.Observation{
			Date:     date,
			Server:   server,
			Position: i + 1,
			Name:     p.name,
			Race:     p.race,
			Points:   p.points,
		})
	}
	return out
}
