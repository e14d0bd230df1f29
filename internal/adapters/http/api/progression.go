package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/internal/domain/progression"
)

// ProgressionDependencies runs progression queries.
type ProgressionDependencies interface {
	Progression(ctx context.Context, q progression.Query, v service.View) (service.Result, error)
}

// ProgressionHandler handles progression requests.
type ProgressionHandler struct {
	deps ProgressionDependencies
}

// NewProgressionHandler creates a new progression handler.
func NewProgressionHandler(deps ProgressionDependencies) *ProgressionHandler {
	return &ProgressionHandler{deps: deps}
}

// HandleGetProgression handles GET /progression requests.
func (h *ProgressionHandler) HandleGetProgression(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_progression"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, v, err := ParseProgressionQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := h.deps.Progression(r.Context(), q, v)
	if err != nil {
		if errors.Is(err, progression.ErrInvalidPage) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newProgressionView(res))
}

// ParseProgressionQuery reads a query and a view from URL parameters:
//
//	servers, races   comma-separated; absent selects everything, present but
//	                 empty selects nothing
//	start, end       ISO dates; absent selects the first and last snapshot
//	policy           filter-before-group or filter-after-group
//	sort, desc       sort key and direction (desc defaults to true)
//	page, page_size  1-based page; page_size 0 shows everything
func ParseProgressionQuery(values url.Values) (progression.Query, service.View, error) {
	var q progression.Query
	v := service.DefaultView()

	q.Servers = parseSet(values, "servers")
	q.Races = parseSet(values, "races")

	for _, p := range []struct {
		key string
		dst *string
	}{{"start", &q.Start}, {"end", &q.End}} {
		s := strings.TrimSpace(values.Get(p.key))
		if s == "" {
			continue
		}
		if _, err := time.Parse(model.DateLayout, s); err != nil {
			return q, v, fmt.Errorf("invalid %s %q; must be YYYY-MM-DD", p.key, s)
		}
		*p.dst = s
	}

	if s := values.Get("policy"); s != "" {
		pol, err := progression.ParsePolicy(s)
		if err != nil {
			return q, v, err
		}
		q.Policy = pol
	}

	key, err := progression.ParseSortKey(values.Get("sort"))
	if err != nil {
		return q, v, err
	}
	v.Sort = key

	if s := values.Get("desc"); s != "" {
		desc, err := strconv.ParseBool(s)
		if err != nil {
			return q, v, fmt.Errorf("invalid desc %q", s)
		}
		v.Desc = desc
	}
	if s := values.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, v, fmt.Errorf("invalid page %q", s)
		}
		v.Page = n
	}
	if s := values.Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, v, fmt.Errorf("invalid page_size %q", s)
		}
		v.PageSize = n
	}
	return q, v, nil
}

// parseSet returns nil when key is absent, so the service selects
// everything, and an empty set when it is present but blank.
func parseSet(values url.Values, key string) progression.Set {
	raw, ok := values[key]
	if !ok {
		return nil
	}
	set := progression.NewSet()
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				set[part] = struct{}{}
			}
		}
	}
	return set
}
