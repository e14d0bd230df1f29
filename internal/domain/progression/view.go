package progression

import (
	"sort"
	"strings"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortProgression SortKey = "progression"
	SortEndScore    SortKey = "end_score"
	SortStartScore  SortKey = "start_score"
	SortName        SortKey = "name"
	SortServer      SortKey = "server"
)

// PageSizes are the page-size presets offered by the report. 0 shows every row.
var PageSizes = []int{25, 50, 100, 0}

// ParseSortKey validates a sort key. The empty string selects SortProgression.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortProgression, nil
	case SortProgression, SortEndScore, SortStartScore, SortName, SortServer:
		return k, nil
	}
	return "", ErrUnknownSortKey
}

// Sort returns a sorted copy of rows. Ties are broken by name then server,
// ascending, whatever the direction of the primary key.
func Sort(rows []Row, key SortKey, desc bool) []Row {
	out := append([]Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := compare(a, b, key); c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Server < b.Server
	})
	return out
}

func compare(a, b Row, key SortKey) int {
	switch key {
	case SortEndScore:
		return a.EndScore - b.EndScore
	case SortStartScore:
		return a.StartScore - b.StartScore
	case SortName:
		return strings.Compare(a.Name, b.Name)
	case SortServer:
		return strings.Compare(a.Server, b.Server)
	default:
		return a.Progression - b.Progression
	}
}

// Page is one displayed slice of a sorted result.
type Page struct {
	Rows      []Row `json:"rows"`
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	PageCount int   `json:"page_count"`
	Total     int   `json:"total"`
}

// Paginate cuts rows into pages of pageSize and returns page (1-based).
// pageSize 0 returns everything on one page; out-of-range pages clamp.
func Paginate(rows []Row, pageSize, page int) (Page, error) {
	if pageSize < 0 {
		return Page{}, ErrInvalidPage
	}
	total := len(rows)
	if pageSize == 0 {
		return Page{Rows: rows, Page: 1, PageSize: 0, PageCount: 1, Total: total}, nil
	}
	count := (total + pageSize - 1) / pageSize
	if count == 0 {
		count = 1
	}
	if page < 1 {
		page = 1
	}
	if page > count {
		page = count
	}
	lo := (page - 1) * pageSize
	hi := min(lo+pageSize, total)
	return Page{Rows: rows[lo:hi], Page: page, PageSize: pageSize, PageCount: count, Total: total}, nil
}

// RaceCount is one entry of a Distribution.
type RaceCount struct {
	Race  string `json:"race"`
	Count int    `json:"count"`
}

// Distribution counts the races of the rows currently displayed.
type Distribution struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// RaceDistribution counts each row once, under its most recent race. Pass
// the displayed page, not the full result: the summary describes what is on
// screen.
func RaceDistribution(rows []Row) Distribution {
	d := Distribution{Counts: make(map[string]int), Total: len(rows)}
	for _, r := range rows {
		d.Counts[r.CurrentRace()]++
	}
	return d
}

// Entries lists the counts by decreasing count, then race.
func (d Distribution) Entries() []RaceCount {
	out := make([]RaceCount, 0, len(d.Counts))
	for race, n := range d.Counts {
		out = append(out, RaceCount{Race: race, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Race < out[j].Race
	})
	return out
}
