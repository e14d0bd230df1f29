package api

import "net/http"

// DatesDependencies exposes the date domain.
type DatesDependencies interface {
	Dates() []string
}

// DatesHandler handles date domain requests.
type DatesHandler struct {
	deps DatesDependencies
}

// NewDatesHandler creates a new dates handler.
func NewDatesHandler(deps DatesDependencies) *DatesHandler {
	return &DatesHandler{deps: deps}
}

// HandleGetDates handles GET /dates requests.
func (h *DatesHandler) HandleGetDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	dates := h.deps.Dates()
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, dates)
}
