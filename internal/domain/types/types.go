// Package types contains compact wire types shared by the report and the API.
package types

import "github.com/burns-20/bwrank/internal/domain/model"

// Record is an observation as embedded in the HTML report. Keys are short
// because the whole history ships inside the page.
type Record struct {
	Date     string `json:"d"`
	Server   string `json:"s"`
	Position int    `json:"p"`
	Name     string `json:"n"`
	Race     string `json:"r"`
	Points   int    `json:"v"`
}

// FromObservation converts o to its wire form.
func FromObservation(o model.Observation) Record {
	return Record{
		Date:     o.Date,
		Server:   o.Server,
		Position: o.Position,
		Name:     o.Name,
		Race:     o.Race,
		Points:   o.Points,
	}
}

// Records converts a history.
func Records(obs []model.Observation) []Record {
	out := make([]Record, len(obs))
	for i, o := range obs {
		out[i] = FromObservation(o)
	}
	return out
}

// ServerInfo describes a server selector entry.
type ServerInfo struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

// Stats summarises the loaded history.
type Stats struct {
	Observations int      `json:"observations"`
	Dates        int      `json:"dates"`
	FirstDate    string   `json:"first_date,omitempty"`
	LastDate     string   `json:"last_date,omitempty"`
	Servers      []string `json:"servers"`
	Races        []string `json:"races"`
	LoadedAt     string   `json:"loaded_at,omitempty"`
}
