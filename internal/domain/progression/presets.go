package progression

import (
	"sort"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
)

// Preset is a duration shortcut offered next to the date selectors.
type Preset struct {
	Label string `json:"label"`
	Days  int    `json:"days"` // 0 means the whole history
}

// Presets are the duration shortcuts of the report.
var Presets = []Preset{
	{Label: "1 jour", Days: 1},
	{Label: "7 jours", Days: 7},
	{Label: "30 jours", Days: 30},
	{Label: "Tout", Days: 0},
}

// PresetStart picks the start date for a preset ending at end. It returns the
// latest available date on or before end-days, falling back to the earliest
// date; days <= 0 selects the earliest date. dates must be sorted.
func PresetStart(dates []string, end string, days int) (string, bool) {
	if len(dates) == 0 {
		return "", false
	}
	if days <= 0 {
		return dates[0], true
	}
	t, err := time.Parse(model.DateLayout, end)
	if err != nil {
		return "", false
	}
	target := t.AddDate(0, 0, -days).Format(model.DateLayout)
	i := sort.SearchStrings(dates, target)
	if i < len(dates) && dates[i] == target {
		return dates[i], true
	}
	if i == 0 {
		return dates[0], true
	}
	return dates[i-1], true
}
