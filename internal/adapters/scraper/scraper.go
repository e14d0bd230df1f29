// Package scraper reads the leaderboards of the configured servers through a
// logged-in browser session and appends today's rows to the history.
package scraper

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	"github.com/burns-20/bwrank/internal/config"
	"github.com/burns-20/bwrank/internal/domain/dedupe"
	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/burns-20/bwrank/pkg/metrics"
	"github.com/google/uuid"
)

// ServerResult counts what one server contributed to a run.
type ServerResult struct {
	Server     string `json:"server"`
	Appended   int    `json:"appended"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
	Error      string `json:"error,omitempty"`
}

// Summary reports a whole run.
type Summary struct {
	RunID   string         `json:"run_id"`
	Date    string         `json:"date"`
	Servers []ServerResult `json:"servers"`
}

// Appended is the number of rows stored across servers.
func (s Summary) Appended() int {
	n := 0
	for _, r := range s.Servers {
		n += r.Appended
	}
	return n
}

// Failed lists servers that could not be read at all.
func (s Summary) Failed() []string {
	out := make([]string, 0)
	for _, r := range s.Servers {
		if r.Error != "" {
			out = append(out, r.Server)
		}
	}
	return out
}

// Scraper runs one scrape over every configured server.
type Scraper struct {
	browser     Browser
	store       repository.Store
	servers     []config.Server
	pages       int
	credentials CredentialsFunc
	now         func() time.Time
	logger      logger.Logger
}

// Option applies a configuration option to the Scraper.
type Option func(*Scraper)

// WithPages sets how many rank pages are read per server.
func WithPages(n int) Option {
	return func(s *Scraper) {
		if n > 0 {
			s.pages = n
		}
	}
}

// WithCredentials replaces the environment credential lookup.
func WithCredentials(fn CredentialsFunc) Option {
	return func(s *Scraper) {
		if fn != nil {
			s.credentials = fn
		}
	}
}

// WithClock sets the clock that decides the snapshot date.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Scraper.
func New(browser Browser, store repository.Store, servers []config.Server, opts ...Option) *Scraper {
	s := &Scraper{
		browser:     browser,
		store:       store,
		servers:     servers,
		pages:       4,
		credentials: CredentialsFromEnv,
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scrapes every server once. Failures are contained per server and per
// row and reported in the summary; only a cancelled context aborts the run.
func (s *Scraper) Run(ctx context.Context) (Summary, error) {
	sum := Summary{
		RunID:   uuid.NewString(),
		Date:    s.now().Format(model.DateLayout),
		Servers: make([]ServerResult, 0, len(s.servers)),
	}
	log := s.logger.With(logger.String("run_id", sum.RunID), logger.Date(sum.Date))
	seen := s.seed(ctx, log, sum.Date)

	for _, srv := range s.servers {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		start := time.Now()
		res := s.scrapeServer(ctx, log.With(logger.Server(srv.Code)), seen, srv, sum.Date)
		metrics.RecordScrapeDuration(srv.Code, time.Since(start).Seconds())
		sum.Servers = append(sum.Servers, res)
	}

	log.Info(ctx, "scrape finished",
		logger.Int("appended", sum.Appended()),
		logger.Strings("failed", sum.Failed()),
	)
	return sum, ctx.Err()
}

// seed builds the deduper from rows already stored today, so a second run on
// the same day only adds what is new.
func (s *Scraper) seed(ctx context.Context, log logger.Logger, date string) dedupe.Deduper {
	obs, err := s.store.LoadAll(ctx)
	if err != nil && !errors.Is(err, repository.ErrHistoryNotFound) {
		log.Warn(ctx, "could not read history, duplicates will not be detected", logger.Error(err))
	}
	return dedupe.NewInMemoryDeduper(dedupe.WithHistory(obs), dedupe.WithDate(date))
}

func (s *Scraper) scrapeServer(ctx context.Context, log logger.Logger, seen dedupe.Deduper, srv config.Server, date string) ServerResult {
	res := ServerResult{Server: srv.Code}
	fail := func(reason string, err error) ServerResult {
		metrics.RecordScrapeServerFailure(srv.Code, reason)
		log.Error(ctx, "server skipped", logger.String("reason", reason), logger.Error(err))
		res.Error = err.Error()
		return res
	}

	cred, err := s.credentials(srv.Code)
	if err != nil {
		return fail("credentials", err)
	}
	sess, err := s.browser.Open(ctx)
	if err != nil {
		return fail("browser", err)
	}
	defer sess.Close()

	if err := sess.Login(ctx, srv, cred); err != nil {
		return fail("login", err)
	}
	log.Info(ctx, "logged in")

	for n := 1; n <= s.pages; n++ {
		if ctx.Err() != nil {
			break
		}
		html, err := sess.RankPage(ctx, srv, n)
		if err != nil {
			metrics.RecordScrapeRowSkipped(srv.Code, "page")
			log.Warn(ctx, "rank page unreadable", logger.Int("page", n), logger.Error(err))
			continue
		}
		rows, skips, err := ParseRankPage(strings.NewReader(html), srv.Races)
		if err != nil {
			metrics.RecordScrapeRowSkipped(srv.Code, "page")
			log.Warn(ctx, "rank page unparseable", logger.Int("page", n), logger.Error(err))
			continue
		}
		for _, sk := range skips {
			res.Skipped++
			metrics.RecordScrapeRowSkipped(srv.Code, skipReason(sk.Reason))
			log.Debug(ctx, "row skipped", logger.String("row", sk.Text), logger.Error(sk.Reason))
		}
		for _, row := range rows {
			s.appendRow(ctx, log, seen, &res, model.Observation{
				Date:     date,
				Server:   srv.Code,
				Position: row.Position,
				Name:     row.Name,
				Race:     row.Race,
				Points:   row.Points,
			})
		}
		log.Debug(ctx, "rank page read", logger.Int("page", n), logger.Int("rows", len(rows)))
	}
	return res
}

// appendRow appends one row on its own so a failure never touches rows already
// written.
func (s *Scraper) appendRow(ctx context.Context, log logger.Logger, seen dedupe.Deduper, res *ServerResult, o model.Observation) {
	key := dedupe.KeyOf(o)
	if seen.SeenAndRecord(ctx, key) {
		res.Duplicates++
		return
	}
	if err := s.store.Append(ctx, o); err != nil {
		seen.Unrecord(ctx, key)
		res.Skipped++
		metrics.RecordScrapeRowSkipped(o.Server, "append")
		log.Warn(ctx, "row not stored", logger.String("name", o.Name), logger.Error(err))
		return
	}
	res.Appended++
	metrics.RecordScrapeRowParsed(o.Server)
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownRace):
		return "unknown_race"
	case errors.Is(err, ErrMalformedRow):
		return "malformed"
	default:
		return "other"
	}
}
