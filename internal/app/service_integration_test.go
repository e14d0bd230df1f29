package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/domain/translate"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_ReloadFromFile(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service over a file store", t, func() {
		path := filepath.Join(t.TempDir(), "history.csv")
		store := repository.NewCSVStore(path,
			repository.WithTranslator(translate.New(map[string]string{"SSAK": "ABSORBEUR"}, nil)))
		svc := service.New(service.WithStore(store))

		Convey("When the file does not exist yet", func() {
			err := svc.Reload(ctx)

			Convey("Then the history is empty, not an error", func() {
				So(err, ShouldBeNil)
				So(svc.Observations(), ShouldBeEmpty)
			})
		})

		Convey("When rows are appended and the service reloads", func() {
			So(store.Append(ctx, history()...), ShouldBeNil)
			So(svc.Reload(ctx), ShouldBeNil)

			Convey("Then queries see the new rows", func() {
				res, err := svc.Progression(ctx, progression.Query{}, service.View{PageSize: 0})
				So(err, ShouldBeNil)
				So(res.Total, ShouldEqual, 3)
				So(svc.GetStats().Observations, ShouldEqual, 6)
			})
		})

		Convey("When the file is malformed", func() {
			So(store.Append(ctx, history()...), ShouldBeNil)
			So(svc.Reload(ctx), ShouldBeNil)
			f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
			So(err, ShouldBeNil)
			_, _ = f.WriteString("\"2025-01-03\";\"R1\";\"x\";\"Eve\";\"X\";\"1\"\r\n")
			_ = f.Close()

			err = svc.Reload(ctx)

			Convey("Then the reload fails and the previous snapshot stays", func() {
				So(errors.Is(err, repository.ErrMalformedRecord), ShouldBeTrue)
				So(svc.Observations(), ShouldHaveLength, 6)
			})
		})
	})
}
