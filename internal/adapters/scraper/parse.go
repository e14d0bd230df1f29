package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var rankRowStart = regexp.MustCompile(`^\d+\.`)

// RankRow is one parsed leaderboard line.
type RankRow struct {
	Position int
	Name     string
	Race     string
	Points   int
}

// ParseRankRow parses the text of a leaderboard row:
//
//	"12. Some Name CAPTEUR D’ESPRIT 34567"
//
// Position is the first token, points the last one. The race is the first of
// races found as a run of whole tokens; the name is everything between the
// position and the race. Rows not starting with "<digits>." return
// ErrNotRankRow.
func ParseRankRow(text string, races []string) (RankRow, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if !rankRowStart.MatchString(text) {
		return RankRow{}, ErrNotRankRow
	}
	parts := strings.Fields(text)
	if len(parts) < 3 {
		return RankRow{}, fmt.Errorf("%w: too few tokens", ErrMalformedRow)
	}

	pos, err := strconv.Atoi(strings.ReplaceAll(parts[0], ".", ""))
	if err != nil {
		return RankRow{}, fmt.Errorf("%w: position %q", ErrMalformedRow, parts[0])
	}
	pts, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return RankRow{}, fmt.Errorf("%w: points %q", ErrMalformedRow, parts[len(parts)-1])
	}

	race, at := findRace(parts, races)
	if at < 0 {
		return RankRow{}, ErrUnknownRace
	}
	name := strings.Join(parts[1:max(at, 1)], " ")
	if name == "" {
		return RankRow{}, fmt.Errorf("%w: empty name", ErrMalformedRow)
	}
	return RankRow{Position: pos, Name: name, Race: race, Points: pts}, nil
}

func findRace(parts, races []string) (string, int) {
	for _, r := range races {
		want := strings.Fields(norm.NFC.String(r))
		if len(want) == 0 {
			continue
		}
		for i := 0; i+len(want) <= len(parts); i++ {
			if equalTokens(parts[i:i+len(want)], want) {
				return r, i
			}
		}
	}
	return "", -1
}

func equalTokens(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Skip records a row that looked like a rank row but did not parse.
type Skip struct {
	Text   string
	Reason error
}

// ParseRankPage extracts every rank row of an HTML page. Rows that are not
// rank rows at all (headers, layout) are ignored; rank rows that fail to
// parse are returned as skips.
func ParseRankPage(r io.Reader, races []string) ([]RankRow, []Skip, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("parse rank page: %w", err)
	}

	rows := make([]RankRow, 0)
	skips := make([]Skip, 0)
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// nested tables would otherwise be read twice
		if tr.Find("tr").Length() > 0 {
			return
		}
		text := rowText(tr)
		row, err := ParseRankRow(text, races)
		switch {
		case err == nil:
			rows = append(rows, row)
		case err == ErrNotRankRow:
		default:
			skips = append(skips, Skip{Text: text, Reason: err})
		}
	})
	return rows, skips, nil
}

func rowText(tr *goquery.Selection) string {
	cells := tr.ChildrenFiltered("td, th")
	if cells.Length() == 0 {
		return strings.TrimSpace(tr.Text())
	}
	parts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		if t := strings.TrimSpace(c.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}
