// Package service holds the loaded history and answers progression queries
// for the CLI and the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/domain/types"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/burns-20/bwrank/pkg/metrics"
)

// ErrNoStore is returned by Reload when the service has no history store.
var ErrNoStore = errors.New("no history store configured")

// dataset is an immutable snapshot of the history. Reload swaps it whole.
type dataset struct {
	obs      []model.Observation
	dates    []string
	servers  []string
	races    []string
	loadedAt time.Time
}

func newDataset(obs []model.Observation) *dataset {
	servers := make(map[string]struct{})
	races := make(map[string]struct{})
	for _, o := range obs {
		servers[o.Server] = struct{}{}
		races[o.Race] = struct{}{}
	}
	return &dataset{
		obs:      obs,
		dates:    model.Dates(obs),
		servers:  sortedKeys(servers),
		races:    sortedKeys(races),
		loadedAt: time.Now(),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Service serves progression queries over the loaded history.
type Service struct {
	store    repository.Store
	policy   progression.Policy
	pageSize int
	data     atomic.Pointer[dataset]
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the history store read by Reload.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPolicy sets the aggregation policy used when a query leaves it empty.
func WithPolicy(p progression.Policy) Option {
	return func(s *Service) {
		if p != "" {
			s.policy = p
		}
	}
}

// WithDefaultPageSize sets the page size used when a view leaves it unset.
func WithDefaultPageSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.pageSize = n
		}
	}
}

// WithObservations preloads a history without going through a store.
func WithObservations(obs []model.Observation) Option {
	return func(s *Service) {
		s.data.Store(newDataset(obs))
	}
}

// New constructs a Service with an empty history.
func New(opts ...Option) *Service {
	s := &Service{
		policy:   progression.FilterBeforeGroup,
		pageSize: 50,
		logger:   logger.Nop(),
	}
	s.data.Store(newDataset(nil))
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reload reads the store and swaps in the new history. A missing history
// file loads as empty; any other failure keeps the previous snapshot.
func (s *Service) Reload(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}
	start := time.Now()
	obs, err := s.store.LoadAll(ctx)
	if errors.Is(err, repository.ErrHistoryNotFound) {
		s.logger.Warn(ctx, "history not found, starting empty", logger.Error(err))
		obs, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("reload history: %w", err)
	}

	d := newDataset(obs)
	s.data.Store(d)
	metrics.UpdateHistorySize(len(d.obs), len(d.dates))
	s.logger.Info(ctx, "history loaded",
		logger.Int("observations", len(d.obs)),
		logger.Int("dates", len(d.dates)),
		logger.String("duration", time.Since(start).String()),
	)
	return nil
}

// Observations returns the loaded history. Callers must not modify it.
func (s *Service) Observations() []model.Observation { return s.data.Load().obs }

// Dates returns the sorted date domain.
func (s *Service) Dates() []string { return s.data.Load().dates }

// Servers returns the server codes present in the history.
func (s *Service) Servers() []string { return s.data.Load().servers }

// Races returns the race labels present in the history.
func (s *Service) Races() []string { return s.data.Load().races }

// View selects how a result is sorted and paged.
type View struct {
	Sort     progression.SortKey
	Desc     bool
	Page     int
	PageSize int // negative selects the service default
}

// DefaultView sorts by progression, best first, on the first page.
func DefaultView() View {
	return View{Sort: progression.SortProgression, Desc: true, Page: 1, PageSize: -1}
}

// Result is one displayed page of a progression query.
type Result struct {
	progression.Page
	Distribution progression.Distribution `json:"distribution"`
	Start        string                   `json:"start"`
	End          string                   `json:"end"`
}

// Progression runs q against the loaded history. Nil server or race sets
// select everything present; empty start or end dates select the first and
// last snapshot.
func (s *Service) Progression(ctx context.Context, q progression.Query, v View) (Result, error) {
	start := time.Now()
	d := s.data.Load()

	if q.Servers == nil {
		q.Servers = progression.NewSet(d.servers...)
	}
	if q.Races == nil {
		q.Races = progression.NewSet(d.races...)
	}
	if len(d.dates) > 0 {
		if q.Start == "" {
			q.Start = d.dates[0]
		}
		if q.End == "" {
			q.End = d.dates[len(d.dates)-1]
		}
	}
	if q.Policy == "" {
		q.Policy = s.policy
	}
	if v.Sort == "" {
		v.Sort = progression.SortProgression
	}
	if v.PageSize < 0 {
		v.PageSize = s.pageSize
	}

	rows := progression.Sort(progression.Compute(d.obs, q), v.Sort, v.Desc)
	page, err := progression.Paginate(rows, v.PageSize, v.Page)
	if err != nil {
		return Result{}, err
	}

	metrics.RecordQuery(float64(time.Since(start).Microseconds())/1000, len(rows))
	s.logger.Debug(ctx, "progression computed",
		logger.String("start", q.Start),
		logger.String("end", q.End),
		logger.Int("rows", len(rows)),
	)
	return Result{
		Page:         page,
		Distribution: progression.RaceDistribution(page.Rows),
		Start:        q.Start,
		End:          q.End,
	}, nil
}

// GetStats summarises the loaded history.
func (s *Service) GetStats() types.Stats {
	d := s.data.Load()
	st := types.Stats{
		Observations: len(d.obs),
		Dates:        len(d.dates),
		Servers:      d.servers,
		Races:        d.races,
		LoadedAt:     d.loadedAt.UTC().Format(time.RFC3339),
	}
	if len(d.dates) > 0 {
		st.FirstDate = d.dates[0]
		st.LastDate = d.dates[len(d.dates)-1]
	}
	return st
}
