package progression_test

import (
	"testing"

	"github.com/burns-20/bwrank/internal/domain/progression"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleRows() []progression.Row {
	return []progression.Row{
		{Name: "Bob", Server: "R1", StartRace: "X", EndRace: "X", StartScore: 10, EndScore: 40, Progression: 30},
		{Name: "Alice", Server: "R2", StartRace: "X", EndRace: "Y", StartScore: 100, EndScore: 130, Progression: 30},
		{Name: "Alice", Server: "R1", StartRace: "Y", StartScore: 50, Progression: -50},
		{Name: "Eve", Server: "R1", StartRace: "Z", EndRace: "Z", StartScore: 5, EndScore: 105, Progression: 100},
	}
}

func names(rows []progression.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name + "@" + r.Server
	}
	return out
}

func TestSort(t *testing.T) {
	Convey("Given unsorted rows", t, func() {
		rows := sampleRows()

		Convey("When sorting by progression descending", func() {
			sorted := progression.Sort(rows, progression.SortProgression, true)

			Convey("Then ties fall back to name then server", func() {
				So(names(sorted), ShouldResemble, []string{"Eve@R1", "Alice@R2", "Bob@R1", "Alice@R1"})
			})

			Convey("Then the input keeps its order", func() {
				So(rows[0].Name, ShouldEqual, "Bob")
			})
		})

		Convey("When sorting by name ascending", func() {
			sorted := progression.Sort(rows, progression.SortName, false)
			So(names(sorted), ShouldResemble, []string{"Alice@R1", "Alice@R2", "Bob@R1", "Eve@R1"})
		})

		Convey("When sorting by end score ascending", func() {
			sorted := progression.Sort(rows, progression.SortEndScore, false)
			So(names(sorted)[0], ShouldEqual, "Alice@R1")
		})
	})

	Convey("Given sort key names", t, func() {
		k, err := progression.ParseSortKey("")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, progression.SortProgression)

		k, err = progression.ParseSortKey("END_SCORE")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, progression.SortEndScore)

		_, err = progression.ParseSortKey("race")
		So(err, ShouldEqual, progression.ErrUnknownSortKey)
	})
}

func TestPaginate(t *testing.T) {
	Convey("Given four rows", t, func() {
		rows := sampleRows()

		Convey("When the page size is 3", func() {
			p, err := progression.Paginate(rows, 3, 2)
			So(err, ShouldBeNil)

			Convey("Then the second page holds the remainder", func() {
				So(p.Rows, ShouldHaveLength, 1)
				So(p.PageCount, ShouldEqual, 2)
				So(p.Total, ShouldEqual, 4)
			})
		})

		Convey("When the page is out of range", func() {
			high, _ := progression.Paginate(rows, 3, 9)
			low, _ := progression.Paginate(rows, 3, 0)

			Convey("Then it clamps", func() {
				So(high.Page, ShouldEqual, 2)
				So(low.Page, ShouldEqual, 1)
			})
		})

		Convey("When the page size is 0", func() {
			p, _ := progression.Paginate(rows, 0, 5)
			So(p.Rows, ShouldHaveLength, 4)
			So(p.PageCount, ShouldEqual, 1)
		})

		Convey("When the page size is negative", func() {
			_, err := progression.Paginate(rows, -1, 1)
			So(err, ShouldEqual, progression.ErrInvalidPage)
		})
	})

	Convey("Given no rows", t, func() {
		p, err := progression.Paginate(nil, 25, 1)
		So(err, ShouldBeNil)
		So(p.PageCount, ShouldEqual, 1)
		So(p.Rows, ShouldBeEmpty)
	})
}

func TestRaceDistribution(t *testing.T) {
	Convey("Given displayed rows", t, func() {
		d := progression.RaceDistribution(sampleRows())

		Convey("Then each row counts once under its latest race", func() {
			So(d.Total, ShouldEqual, 4)
			So(d.Counts["X"], ShouldEqual, 1)
			So(d.Counts["Y"], ShouldEqual, 2)
			So(d.Counts["Z"], ShouldEqual, 1)
		})

		Convey("Then entries are ordered by count then race", func() {
			e := d.Entries()
			So(e, ShouldHaveLength, 3)
			So(e[0], ShouldResemble, progression.RaceCount{Race: "Y", Count: 2})
			So(e[1].Race, ShouldEqual, "X")
		})
	})

	Convey("Given nothing displayed", t, func() {
		d := progression.RaceDistribution(nil)
		So(d.Total, ShouldEqual, 0)
		So(d.Entries(), ShouldBeEmpty)
	})
}

func TestPresetStart(t *testing.T) {
	Convey("Given sparse snapshot dates", t, func() {
		dates := []string{"2025-01-01", "2025-01-05", "2025-01-09", "2025-01-10"}

		Convey("Then one day back picks the exact previous date", func() {
			s, ok := progression.PresetStart(dates, "2025-01-10", 1)
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, "2025-01-09")
		})

		Convey("Then a gap picks the latest earlier date", func() {
			s, _ := progression.PresetStart(dates, "2025-01-10", 3)
			So(s, ShouldEqual, "2025-01-05")
		})

		Convey("Then a window beyond the history picks the first date", func() {
			s, _ := progression.PresetStart(dates, "2025-01-10", 30)
			So(s, ShouldEqual, "2025-01-01")
		})

		Convey("Then zero days means the whole history", func() {
			s, _ := progression.PresetStart(dates, "2025-01-10", 0)
			So(s, ShouldEqual, "2025-01-01")
		})

		Convey("Then a bad end date is rejected", func() {
			_, ok := progression.PresetStart(dates, "soon", 7)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given no dates", t, func() {
		_, ok := progression.PresetStart(nil, "2025-01-10", 7)
		So(ok, ShouldBeFalse)
	})
}
