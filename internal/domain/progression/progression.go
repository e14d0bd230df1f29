// Package progression turns the observation history into per-player score
// deltas over a date range.
//
// Compute is a pure function of its inputs: it never mutates the
// observations, keeps no state between calls, and returns an empty result
// rather than an error for empty filters or dates outside the history.
package progression

import (
	"strconv"

	"github.com/burns-20/bwrank/internal/domain/model"
)

// Arrow separates the start and end value of a display transition.
const Arrow = " → "

// Policy decides whether the race filter runs before or after grouping.
type Policy string

const (
	// FilterBeforeGroup drops observations of unselected races before
	// grouping. A player whose race changed into an unselected one loses
	// that endpoint and shows an end score of 0.
	FilterBeforeGroup Policy = "filter-before-group"
	// FilterAfterGroup groups on the server-filtered history and keeps a
	// group when its start or end race is selected.
	FilterAfterGroup Policy = "filter-after-group"
)

// ParsePolicy validates a policy name. The empty string selects FilterBeforeGroup.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", FilterBeforeGroup:
		return FilterBeforeGroup, nil
	case FilterAfterGroup:
		return FilterAfterGroup, nil
	}
	return "", ErrUnknownPolicy
}

// Set is a set of server codes or race labels.
type Set map[string]struct{}

// NewSet builds a set from items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Query selects the servers, races and endpoints of one aggregation.
type Query struct {
	Servers Set
	Races   Set
	Start   string // ISO date, matched exactly
	End     string // ISO date, matched exactly
	Policy  Policy
}

// Row is the progression of one (name, server) group.
type Row struct {
	Name          string `json:"name"`
	Server        string `json:"server"`
	ServerName    string `json:"server_name"`
	Race          string `json:"race"`
	Position      string `json:"position"`
	StartRace     string `json:"start_race,omitempty"`
	EndRace       string `json:"end_race,omitempty"`
	StartPosition int    `json:"start_position,omitempty"`
	EndPosition   int    `json:"end_position,omitempty"`
	StartScore    int    `json:"start_score"`
	EndScore      int    `json:"end_score"`
	Progression   int    `json:"progression"`
}

// CurrentRace is the most recent race known for the row.
func (r Row) CurrentRace() string {
	if r.EndRace != "" {
		return r.EndRace
	}
	return r.StartRace
}

type group struct {
	key        model.PlayerKey
	serverName string
	start      *model.Observation
	end        *model.Observation
}

// Compute aggregates obs for q. Rows come back in the order their group was
// first seen in obs; callers sort for display.
func Compute(obs []model.Observation, q Query) []Row {
	rows := make([]Row, 0)
	if len(q.Servers) == 0 || len(q.Races) == 0 {
		return rows
	}
	policy := q.Policy
	if policy == "" {
		policy = FilterBeforeGroup
	}

	index := make(map[model.PlayerKey]int)
	groups := make([]*group, 0)
	for i := range obs {
		o := &obs[i]
		if !q.Servers.Has(o.Server) {
			continue
		}
		if policy == FilterBeforeGroup && !q.Races.Has(o.Race) {
			continue
		}
		key := o.Key()
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, &group{key: key, serverName: o.ServerName})
		}
		g := groups[gi]
		// last observation of a date wins
		if o.Date == q.Start {
			g.start = o
		}
		if o.Date == q.End {
			g.end = o
		}
	}

	for _, g := range groups {
		if policy == FilterAfterGroup && !raceSelected(g, q.Races) {
			continue
		}
		if g.start == nil || g.start.Points == 0 {
			continue
		}
		rows = append(rows, buildRow(g))
	}
	return rows
}

func raceSelected(g *group, races Set) bool {
	return (g.start != nil && races.Has(g.start.Race)) || (g.end != nil && races.Has(g.end.Race))
}

func buildRow(g *group) Row {
	r := Row{
		Name:       g.key.Name,
		Server:     g.key.Server,
		ServerName: g.serverName,
	}
	if g.start != nil {
		r.StartRace = g.start.Race
		r.StartPosition = g.start.Position
		r.StartScore = g.start.Points
	}
	if g.end != nil {
		r.EndRace = g.end.Race
		r.EndPosition = g.end.Position
		r.EndScore = g.end.Points
	}
	r.Progression = r.EndScore - r.StartScore
	r.Race = Transition(r.StartRace, r.EndRace)
	r.Position = Transition(positionLabel(r.StartPosition), positionLabel(r.EndPosition))
	return r
}

func positionLabel(p int) string {
	if p == 0 {
		return ""
	}
	return strconv.Itoa(p)
}

// Transition formats a value observed at both endpoints: the single value
// when only one side is known or both agree, "start → end" otherwise.
func Transition(start, end string) string {
	switch {
	case start == "":
		return end
	case end == "", start == end:
		return start
	default:
		return start + Arrow + end
	}
}
