package scraper_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/burns-20/bwrank/internal/adapters/scraper"
	. "github.com/smartystreets/goconvey/convey"
)

var frenchRaces = []string{"CAPTEUR D’ESPRIT", "ABSORBEUR", "SEIGNEUR DES BÊTES", "CULTISTE", "DAMNÉ"}

func TestParseRankRow(t *testing.T) {
	Convey("Given leaderboard row texts", t, func() {
		Convey("When the row is well formed", func() {
			row, err := scraper.ParseRankRow("12. Le Comte Noir SEIGNEUR DES BÊTES 34567", frenchRaces)

			Convey("Then every field is extracted", func() {
				So(err, ShouldBeNil)
				So(row, ShouldResemble, scraper.RankRow{Position: 12, Name: "Le Comte Noir", Race: "SEIGNEUR DES BÊTES", Points: 34567})
			})
		})

		Convey("When the row is the table header", func() {
			_, err := scraper.ParseRankRow("PLACE NOM RACE POINTS", frenchRaces)
			So(err, ShouldEqual, scraper.ErrNotRankRow)
		})

		Convey("When the row is empty", func() {
			_, err := scraper.ParseRankRow("   ", frenchRaces)
			So(err, ShouldEqual, scraper.ErrNotRankRow)
		})

		Convey("When no configured race appears", func() {
			_, err := scraper.ParseRankRow("3. Jan SSAK 100", frenchRaces)
			So(errors.Is(err, scraper.ErrUnknownRace), ShouldBeTrue)
		})

		Convey("When the points are not a number", func() {
			_, err := scraper.ParseRankRow("3. Jan CULTISTE beaucoup", frenchRaces)
			So(errors.Is(err, scraper.ErrMalformedRow), ShouldBeTrue)
		})

		Convey("When the name is missing", func() {
			_, err := scraper.ParseRankRow("3. DAMNÉ 100", frenchRaces)
			So(errors.Is(err, scraper.ErrMalformedRow), ShouldBeTrue)
		})

		Convey("When a race label is only part of a token", func() {
			_, err := scraper.ParseRankRow("3. Jan DAMNÉS 100", frenchRaces)
			So(errors.Is(err, scraper.ErrUnknownRace), ShouldBeTrue)
		})

		Convey("When the page uses decomposed accents", func() {
			row, err := scraper.ParseRankRow("4. Zoe DAMNE\u0301 10", frenchRaces)
			So(err, ShouldBeNil)
			So(row.Race, ShouldEqual, "DAMNÉ")
		})
	})
}

const rankPage = `<html><body>
<table class="rank">
  <tr><th>PLACE</th><th>NOM</th><th>RACE</th><th>POINTS</th></tr>
  <tr><td>1.</td><td><a href="#">Alice</a></td><td>DAMNÉ</td><td>5000</td></tr>
  <tr><td>2.</td><td>Bob le Rouge</td><td>CAPTEUR D’ESPRIT</td><td>4200</td></tr>
  <tr><td>3.</td><td>Carol</td><td>INCONNU</td><td>4100</td></tr>
  <tr><td colspan="4">page 1 / 4</td></tr>
</table>
</body></html>`

func TestParseRankPage(t *testing.T) {
	Convey("Given a rank page", t, func() {
		rows, skips, err := scraper.ParseRankPage(strings.NewReader(rankPage), frenchRaces)

		Convey("Then rank rows are parsed and layout rows ignored", func() {
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)
			So(rows[0].Name, ShouldEqual, "Alice")
			So(rows[1].Name, ShouldEqual, "Bob le Rouge")
			So(rows[1].Race, ShouldEqual, "CAPTEUR D’ESPRIT")
		})

		Convey("Then the unknown race row is reported as skipped", func() {
			So(skips, ShouldHaveLength, 1)
			So(skips[0].Text, ShouldStartWith, "3.")
			So(errors.Is(skips[0].Reason, scraper.ErrUnknownRace), ShouldBeTrue)
		})
	})
}

func TestRankURL(t *testing.T) {
	Convey("Given a server", t, func() {
		So(scraper.RankURL(testServer("R1"), 3), ShouldEqual, "https://r1.example.test/?a=rank&page=3")
	})
}
