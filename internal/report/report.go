// Package report renders the history as a self-contained HTML page, an xlsx
// workbook or a terminal table.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/domain/types"
	"github.com/burns-20/bwrank/pkg/metrics"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/report.html.tmpl"))

// Data is everything the page needs. The page embeds the observations and
// recomputes progression in the browser, so it works from a static host.
type Data struct {
	Title           string
	GeneratedAt     time.Time
	Servers         []types.ServerInfo
	Races           []string
	Observations    []model.Observation
	Policy          progression.Policy
	DefaultPageSize int
}

// Region groups server selectors under a heading.
type Region struct {
	Name    string
	Servers []types.ServerInfo
}

// Snapshot is one leaderboard table of the page.
type Snapshot struct {
	Date   string
	Server types.ServerInfo
	Rows   []model.Observation
}

type pageView struct {
	Title       string
	GeneratedAt string
	Regions     []Region
	Races       []string
	Dates       []string
	History     []types.Record
	ServerNames map[string]string
	Policy      string
	PageSizes   []int
	PageSize    int
	Presets     []progression.Preset
	Snapshots   []Snapshot
}

// Generate renders the page to w.
func Generate(w io.Writer, d Data) error {
	if err := pageTemplate.Execute(w, newPageView(d)); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	metrics.RecordReportGenerated("html")
	return nil
}

// WriteFile renders the page to path, replacing it only once rendering
// succeeded.
func WriteFile(path string, d Data) error {
	var buf bytes.Buffer
	if err := Generate(&buf, d); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.html")
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace report: %w", err)
	}
	return nil
}

func newPageView(d Data) pageView {
	title := d.Title
	if title == "" {
		title = "Classements BloodWars"
	}
	policy := d.Policy
	if policy == "" {
		policy = progression.FilterBeforeGroup
	}
	names := make(map[string]string, len(d.Servers))
	for _, s := range d.Servers {
		names[s.Code] = s.Name
	}
	return pageView{
		Title:       title,
		GeneratedAt: d.GeneratedAt.Format("2006-01-02 15:04"),
		Regions:     Regions(d.Servers),
		Races:       d.Races,
		Dates:       model.Dates(d.Observations),
		History:     types.Records(d.Observations),
		ServerNames: names,
		Policy:      string(policy),
		PageSizes:   progression.PageSizes,
		PageSize:    d.DefaultPageSize,
		Presets:     progression.Presets,
		Snapshots:   Snapshots(d.Observations, d.Servers),
	}
}

// Regions groups servers by region, keeping their order.
func Regions(servers []types.ServerInfo) []Region {
	out := make([]Region, 0)
	index := make(map[string]int)
	for _, s := range servers {
		i, ok := index[s.Region]
		if !ok {
			i = len(out)
			index[s.Region] = i
			out = append(out, Region{Name: s.Region})
		}
		out[i].Servers = append(out[i].Servers, s)
	}
	return out
}

// Snapshots lists one table per (date, server), newest date first, servers
// sorted by code and rows by position. Servers missing from servers get a
// bare entry.
func Snapshots(obs []model.Observation, servers []types.ServerInfo) []Snapshot {
	info := make(map[string]types.ServerInfo, len(servers))
	for _, s := range servers {
		info[s.Code] = s
	}
	buckets := make(map[string]map[string][]model.Observation)
	for _, o := range obs {
		if buckets[o.Date] == nil {
			buckets[o.Date] = make(map[string][]model.Observation)
		}
		buckets[o.Date][o.Server] = append(buckets[o.Date][o.Server], o)
		if _, ok := info[o.Server]; !ok {
			info[o.Server] = types.ServerInfo{Code: o.Server, Name: o.ServerName}
		}
	}

	dates := model.Dates(obs)
	out := make([]Snapshot, 0)
	for i := len(dates) - 1; i >= 0; i-- {
		date := dates[i]
		codes := make([]string, 0, len(buckets[date]))
		for c := range buckets[date] {
			codes = append(codes, c)
		}
		sort.Strings(codes)
		for _, c := range codes {
			rows := buckets[date][c]
			sort.SliceStable(rows, func(a, b int) bool { return rows[a].Position < rows[b].Position })
			out = append(out, Snapshot{Date: date, Server: info[c], Rows: rows})
		}
	}
	return out
}
