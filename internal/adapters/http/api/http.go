// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/domain/types"
	"github.com/burns-20/bwrank/pkg/logger"
)

// Dependencies required by HTTP handlers. The application service satisfies
// it; tests use fakes.
type Dependencies interface {
	ProgressionDependencies
	DatesDependencies
	ReloadDependencies
}

// StatsProvider reports a summary of the loaded history.
type StatsProvider interface {
	GetStats() types.Stats
}

// Result mirrors the read shape of a progression query.
type Result = service.Result

// Server wires HTTP routes for the progression API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	progressionHandler *ProgressionHandler
	datesHandler       *DatesHandler
	reloadHandler      *ReloadHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		progressionHandler: NewProgressionHandler(deps),
		datesHandler:       NewDatesHandler(deps),
		reloadHandler:      NewReloadHandler(deps, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/dates", MetricsMiddleware(s.datesHandler.HandleGetDates, "dates"))
	mux.HandleFunc("/progression", MetricsMiddleware(s.progressionHandler.HandleGetProgression, "progression"))
	mux.HandleFunc("/reload", MetricsMiddleware(s.reloadHandler.HandlePostReload, "reload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// progressionView is the JSON shape of GET /progression.
type progressionView struct {
	Rows         []progression.Row       `json:"rows"`
	Page         int                     `json:"page"`
	PageSize     int                     `json:"page_size"`
	PageCount    int                     `json:"page_count"`
	Total        int                     `json:"total"`
	Start        string                  `json:"start"`
	End          string                  `json:"end"`
	Distribution []progression.RaceCount `json:"distribution"`
}

func newProgressionView(res Result) progressionView {
	rows := res.Rows
	if rows == nil {
		rows = []progression.Row{}
	}
	return progressionView{
		Rows:         rows,
		Page:         res.Page.Page,
		PageSize:     res.PageSize,
		PageCount:    res.PageCount,
		Total:        res.Total,
		Start:        res.Start,
		End:          res.End,
		Distribution: res.Distribution.Entries(),
	}
}
