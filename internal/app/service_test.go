package service_test

import (
	"context"
	"testing"

	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/internal/domain/progression"
	. "github.com/smartystreets/goconvey/convey"
)

func history() []model.Observation {
	return []model.Observation{
		{Date: "2025-01-01", Server: "R1", Position: 1, Name: "Alice", Race: "X", Points: 100},
		{Date: "2025-01-01", Server: "R1", Position: 2, Name: "Bob", Race: "Y", Points: 90},
		{Date: "2025-01-01", Server: "R3", Position: 1, Name: "Jan", Race: "Y", Points: 50},
		{Date: "2025-01-02", Server: "R1", Position: 2, Name: "Alice", Race: "Y", Points: 150},
		{Date: "2025-01-02", Server: "R1", Position: 1, Name: "Bob", Race: "Y", Points: 300},
		{Date: "2025-01-02", Server: "R3", Position: 1, Name: "Jan", Race: "Y", Points: 55},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it starts with an empty history", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Observations(), ShouldBeEmpty)
			So(svc.Dates(), ShouldBeEmpty)
			So(svc.GetStats().Observations, ShouldEqual, 0)
		})

		Convey("Then reloading without a store fails", func() {
			So(svc.Reload(context.Background()), ShouldEqual, service.ErrNoStore)
		})
	})
}

func TestService_Progression(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with a preloaded history", t, func() {
		svc := service.New(service.WithObservations(history()), service.WithDefaultPageSize(2))

		Convey("Then the domains are derived from it", func() {
			So(svc.Dates(), ShouldResemble, []string{"2025-01-01", "2025-01-02"})
			So(svc.Servers(), ShouldResemble, []string{"R1", "R3"})
			So(svc.Races(), ShouldResemble, []string{"X", "Y"})
			st := svc.GetStats()
			So(st.FirstDate, ShouldEqual, "2025-01-01")
			So(st.LastDate, ShouldEqual, "2025-01-02")
		})

		Convey("When querying with every default", func() {
			res, err := svc.Progression(ctx, progression.Query{}, service.DefaultView())
			So(err, ShouldBeNil)

			Convey("Then the whole range is used and the best progression leads", func() {
				So(res.Start, ShouldEqual, "2025-01-01")
				So(res.End, ShouldEqual, "2025-01-02")
				So(res.Total, ShouldEqual, 3)
				So(res.PageCount, ShouldEqual, 2)
				So(res.Rows, ShouldHaveLength, 2)
				So(res.Rows[0].Name, ShouldEqual, "Bob")
				So(res.Rows[1].Name, ShouldEqual, "Alice")
			})

			Convey("Then the distribution covers only the displayed page", func() {
				So(res.Distribution.Total, ShouldEqual, 2)
				So(res.Distribution.Counts["Y"], ShouldEqual, 2)
			})
		})

		Convey("When querying the second page", func() {
			v := service.DefaultView()
			v.Page = 2
			res, err := svc.Progression(ctx, progression.Query{}, v)
			So(err, ShouldBeNil)
			So(res.Rows, ShouldHaveLength, 1)
			So(res.Rows[0].Name, ShouldEqual, "Jan")
			So(res.Distribution.Total, ShouldEqual, 1)
		})

		Convey("When filtering on the start race only", func() {
			q := progression.Query{Races: progression.NewSet("X")}
			res, err := svc.Progression(ctx, q, service.View{PageSize: 0})
			So(err, ShouldBeNil)

			Convey("Then the default policy loses the end endpoint", func() {
				So(res.Rows, ShouldHaveLength, 1)
				So(res.Rows[0].Progression, ShouldEqual, -100)
			})
		})

		Convey("When the service filters after grouping", func() {
			svc := service.New(service.WithObservations(history()), service.WithPolicy(progression.FilterAfterGroup))
			q := progression.Query{Races: progression.NewSet("X")}
			res, err := svc.Progression(ctx, q, service.View{PageSize: 0})
			So(err, ShouldBeNil)

			Convey("Then the transition is kept", func() {
				So(res.Rows, ShouldHaveLength, 1)
				So(res.Rows[0].Race, ShouldEqual, "X → Y")
				So(res.Rows[0].Progression, ShouldEqual, 50)
			})
		})

		Convey("When the view leaves the page size to the service", func() {
			res, err := svc.Progression(ctx, progression.Query{}, service.View{PageSize: -1, Page: 1})
			So(err, ShouldBeNil)
			So(res.PageSize, ShouldEqual, 2)
		})
	})
}
