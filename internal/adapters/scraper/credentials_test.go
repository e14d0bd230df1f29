package scraper_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/burns-20/bwrank/internal/adapters/scraper"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCredentials(t *testing.T) {
	Convey("Given an environment with credentials for R1 only", t, func() {
		lookup := scraper.CredentialsFromMap(map[string]string{
			"BW_R1_LOGIN":    "vlad",
			"BW_R1_PASSWORD": "secret",
			"BW_R2_LOGIN":    "half",
		})

		Convey("Then R1 resolves", func() {
			c, err := lookup("R1")
			So(err, ShouldBeNil)
			So(c, ShouldResemble, scraper.Credentials{Login: "vlad", Password: "secret"})
		})

		Convey("Then lowercase codes use the same variables", func() {
			c, err := lookup("r1")
			So(err, ShouldBeNil)
			So(c.Login, ShouldEqual, "vlad")
		})

		Convey("Then a missing password is an error", func() {
			_, err := lookup("R2")
			So(errors.Is(err, scraper.ErrMissingCredentials), ShouldBeTrue)
		})

		Convey("Then an unknown server is an error", func() {
			_, err := lookup("R14")
			So(errors.Is(err, scraper.ErrMissingCredentials), ShouldBeTrue)
		})
	})
}

func TestLoadDotenv(t *testing.T) {
	Convey("Given a .env file", t, func() {
		path := filepath.Join(t.TempDir(), ".env")
		So(os.WriteFile(path, []byte("BW_R7_LOGIN=from_file\nBW_R7_PASSWORD=pw\n"), 0o600), ShouldBeNil)
		t.Setenv("BW_R7_LOGIN", "from_env")
		t.Setenv("BW_R7_PASSWORD", "")
		os.Unsetenv("BW_R7_PASSWORD")

		Convey("When loading it", func() {
			So(scraper.LoadDotenv(path), ShouldBeNil)

			Convey("Then existing variables win and missing ones are filled", func() {
				c, err := scraper.CredentialsFromEnv("R7")
				So(err, ShouldBeNil)
				So(c.Login, ShouldEqual, "from_env")
				So(c.Password, ShouldEqual, "pw")
			})
		})
	})

	Convey("Given no .env file", t, func() {
		So(scraper.LoadDotenv(filepath.Join(t.TempDir(), ".env")), ShouldBeNil)
		So(scraper.LoadDotenv(""), ShouldBeNil)
	})
}
