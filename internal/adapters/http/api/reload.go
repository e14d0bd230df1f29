package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/pkg/logger"
)

// ReloadDependencies re-reads the history store.
type ReloadDependencies interface {
	Reload(ctx context.Context) error
}

// ReloadHandler handles reload requests.
type ReloadHandler struct {
	deps   ReloadDependencies
	logger logger.Logger
}

// NewReloadHandler creates a new reload handler.
func NewReloadHandler(deps ReloadDependencies, log logger.Logger) *ReloadHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ReloadHandler{deps: deps, logger: log}
}

type reloadResponse struct {
	Status string `json:"status"`
}

// HandlePostReload handles POST /reload requests. On failure the previously
// loaded history keeps being served.
func (h *ReloadHandler) HandlePostReload(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_reload"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := h.deps.Reload(r.Context()); err != nil {
		h.logger.Error(r.Context(), "reload failed", logger.Error(err))
		if errors.Is(err, service.ErrNoStore) {
			writeError(w, http.StatusServiceUnavailable, "no_store", WrapKind(op, ErrNoHistory, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{Status: "reloaded"})
}
