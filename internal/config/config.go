// Package config defines bwrank configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers a YAML file and BWRANK_* env vars on top.
// - Server definitions and label tables are only settable from the file.
package config

import (
	"fmt"
	"strings"
)

// Backends supported by the history store.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Aggregation policies, mirrored from the progression package so that config
// stays free of domain imports.
const (
	PolicyFilterBeforeGroup = "filter-before-group"
	PolicyFilterAfterGroup  = "filter-after-group"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address for `serve`.
	Addr string `koanf:"addr"`

	// HistoryPath is the delimited history file the scraper appends to.
	HistoryPath string `koanf:"history_path"`
	// HistoryBackend selects where observations are read from: csv or sqlite.
	HistoryBackend string `koanf:"history_backend"`
	// SQLitePath is the SQLite mirror used by `sync-db` and the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// ReportPath is the generated HTML document.
	ReportPath string `koanf:"report_path"`
	// XLSXPath is the default target of `export`.
	XLSXPath string `koanf:"xlsx_path"`

	// AggregationPolicy is filter-before-group or filter-after-group.
	AggregationPolicy string `koanf:"aggregation_policy"`
	// DefaultPageSize is the page size preselected in the report (0 = all).
	DefaultPageSize int `koanf:"default_page_size"`

	// ScrapePages is the number of rank pages read per server.
	ScrapePages int `koanf:"scrape_pages"`
	// ScrapeHeadless runs the browser without a window.
	ScrapeHeadless bool `koanf:"scrape_headless"`
	// ScrapeTimeoutMS bounds each browser navigation.
	ScrapeTimeoutMS int `koanf:"scrape_timeout_ms"`
	// Browser is chromium, firefox or webkit.
	Browser string `koanf:"browser"`
	// DotenvPath is an optional .env file holding BW_<CODE>_LOGIN/PASSWORD.
	DotenvPath string `koanf:"dotenv_path"`

	// GitWorkdir is the repository the publisher commits in.
	GitWorkdir string `koanf:"git_workdir"`
	GitRemote  string `koanf:"git_remote"`
	GitBranch  string `koanf:"git_branch"`
	// CommitMessage is used verbatim when set; otherwise a dated message is generated.
	CommitMessage string `koanf:"commit_message"`

	// Servers lists the scraped servers in display order.
	Servers []Server `koanf:"servers"`

	// RaceLabels maps raw race labels to display labels.
	RaceLabels map[string]string `koanf:"race_labels"`
	// ServerLabels maps server codes to display names.
	ServerLabels map[string]string `koanf:"server_labels"`
}

// Server describes one game server.
type Server struct {
	Code      string   `koanf:"code"`
	Region    string   `koanf:"region"`
	PortalURL string   `koanf:"portal_url"`
	ServerURL string   `koanf:"server_url"`
	Realm     string   `koanf:"realm"`
	Races     []string `koanf:"races"`
}

var frenchRaces = []string{
	"CAPTEUR D’ESPRIT",
	"ABSORBEUR",
	"SEIGNEUR DES BÊTES",
	"CULTISTE",
	"DAMNÉ",
}

var polishRaces = []string{
	"ŁAPACZ MYŚLI",
	"SSAK",
	"WŁADCA ZWIERZĄT",
	"KULTYSTA",
	"POTĘPIONY",
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		HistoryPath:       "bloodwars_classement.csv",
		HistoryBackend:    BackendCSV,
		SQLitePath:        "bloodwars_classement.db",
		ReportPath:        "index.html",
		XLSXPath:          "progression.xlsx",
		AggregationPolicy: PolicyFilterBeforeGroup,
		DefaultPageSize:   50,
		ScrapePages:       4,
		ScrapeHeadless:    true,
		ScrapeTimeoutMS:   20_000,
		Browser:           "firefox",
		DotenvPath:        ".env",
		GitWorkdir:        ".",
		GitRemote:         "origin",
		GitBranch:         "main",
		CommitMessage:     "",
		Servers: []Server{
			frServer("R1", "201"),
			frServer("R2", "202"),
			frServer("R4", "204"),
			plServer("R3", "3"),
			plServer("R7", "7"),
			plServer("R14", "14"),
		},
		RaceLabels: map[string]string{
			"ŁAPACZ MYŚLI":    "CAPTEUR D’ESPRIT",
			"SSAK":            "ABSORBEUR",
			"WŁADCA ZWIERZĄT": "SEIGNEUR DES BÊTES",
			"KULTYSTA":        "CULTISTE",
			"POTĘPIONY":       "DAMNÉ",
		},
		ServerLabels: map[string]string{
			"R1":  "R1 (FR)",
			"R2":  "R2 (FR)",
			"R4":  "R4 (FR)",
			"R3":  "R3 (PL)",
			"R7":  "R7 (PL)",
			"R14": "R14 (PL)",
		},
	}
}

func frServer(code, realm string) Server {
	return Server{
		Code:      code,
		Region:    "FR",
		PortalURL: "https://fr.bloodwars.net",
		ServerURL: "https://" + strings.ToLower(code) + ".fr.bloodwars.net",
		Realm:     realm,
		Races:     append([]string(nil), frenchRaces...),
	}
}

func plServer(code, realm string) Server {
	return Server{
		Code:      code,
		Region:    "PL",
		PortalURL: "https://bloodwars.pl",
		ServerURL: "https://" + strings.ToLower(code) + ".bloodwars.pl",
		Realm:     realm,
		Races:     append([]string(nil), polishRaces...),
	}
}

// ServerCodes returns the configured server codes in display order.
func (c *Config) ServerCodes() []string {
	codes := make([]string, 0, len(c.Servers))
	for _, s := range c.Servers {
		codes = append(codes, s.Code)
	}
	return codes
}

// Server returns the server definition for code.
func (c *Config) Server(code string) (Server, bool) {
	for _, s := range c.Servers {
		if s.Code == code {
			return s, true
		}
	}
	return Server{}, false
}

// Validate checks the invariants Load relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.HistoryPath) == "" {
		return fmt.Errorf("%w: history_path must not be empty", ErrInvalidConfig)
	}
	switch c.HistoryBackend {
	case BackendCSV, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown history_backend %q", ErrInvalidConfig, c.HistoryBackend)
	}
	switch c.AggregationPolicy {
	case PolicyFilterBeforeGroup, PolicyFilterAfterGroup:
	default:
		return fmt.Errorf("%w: unknown aggregation_policy %q", ErrInvalidConfig, c.AggregationPolicy)
	}
	if c.DefaultPageSize < 0 {
		return fmt.Errorf("%w: default_page_size must not be negative", ErrInvalidConfig)
	}
	if c.ScrapePages < 1 {
		return fmt.Errorf("%w: scrape_pages must be at least 1", ErrInvalidConfig)
	}
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.Code == "" {
			return fmt.Errorf("%w: server without code", ErrInvalidConfig)
		}
		if seen[s.Code] {
			return fmt.Errorf("%w: duplicate server %s", ErrInvalidConfig, s.Code)
		}
		seen[s.Code] = true
	}
	return nil
}
