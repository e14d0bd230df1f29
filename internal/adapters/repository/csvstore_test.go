package repository_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/internal/domain/translate"
	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"
)

func testTranslator() translate.Translator {
	return translate.New(
		map[string]string{"SSAK": "ABSORBEUR", "KULTYSTA": "CULTISTE"},
		map[string]string{"R1": "R1 (FR)", "R3": "R3 (PL)"},
	)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write history: %v", err)
	}
	return path
}

func TestDetectDelimiter(t *testing.T) {
	Convey("Given header samples", t, func() {
		So(repository.DetectDelimiter([]byte(`"date";"server";"name"`)), ShouldEqual, ';')
		So(repository.DetectDelimiter([]byte("date,server,name")), ShouldEqual, ',')

		Convey("Then a tie falls back to comma", func() {
			So(repository.DetectDelimiter([]byte("a;b,c")), ShouldEqual, ',')
			So(repository.DetectDelimiter(nil), ShouldEqual, ',')
		})

		Convey("Then only the first 2048 bytes count", func() {
			sample := strings.Repeat(";", 2048) + strings.Repeat(",", 4096)
			So(repository.DetectDelimiter([]byte(sample)), ShouldEqual, ';')
		})
	})
}

func TestCSVStoreLoadAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given a semicolon history with PL labels", t, func() {
		path := writeFile(t, "\ufeff\"date\";\"server\";\"position\";\"name\";\"race\";\"points\"\r\n"+
			"\"2025-01-01\";\"R3\";\"1\";\"Jan Kowalski\";\"SSAK\";\"1200\"\r\n"+
			"\"2025-01-01\";\"R1\";\"2\";\"Pierre\";\"DAMNÉ\";\"900\"\r\n")
		store := repository.NewCSVStore(path, repository.WithTranslator(testTranslator()))

		Convey("When loading", func() {
			obs, err := store.LoadAll(ctx)

			Convey("Then labels are translated and unknown ones pass through", func() {
				So(err, ShouldBeNil)
				want := []model.Observation{
					{Date: "2025-01-01", Server: "R3", ServerName: "R3 (PL)", Position: 1, Name: "Jan Kowalski", Race: "ABSORBEUR", Points: 1200},
					{Date: "2025-01-01", Server: "R1", ServerName: "R1 (FR)", Position: 2, Name: "Pierre", Race: "DAMNÉ", Points: 900},
				}
				So(cmp.Diff(want, obs), ShouldBeEmpty)
			})
		})
	})

	Convey("Given a comma history with reordered columns", t, func() {
		path := writeFile(t, "name,points,race,date,position,server,extra\n"+
			"Alice,150,X,2025-01-02,3,R1,ignored\n")
		obs, err := repository.NewCSVStore(path).LoadAll(ctx)

		Convey("Then columns are mapped by header name", func() {
			So(err, ShouldBeNil)
			So(obs, ShouldHaveLength, 1)
			So(obs[0].Name, ShouldEqual, "Alice")
			So(obs[0].Points, ShouldEqual, 150)
			So(obs[0].Position, ShouldEqual, 3)
			So(obs[0].ServerName, ShouldEqual, "R1")
		})
	})

	Convey("Given a non-numeric points field", t, func() {
		path := writeFile(t, "date;server;position;name;race;points\n"+
			"2025-01-01;R1;1;Alice;X;100\n"+
			"2025-01-01;R1;2;Bob;X;lots\n")
		_, err := repository.NewCSVStore(path).LoadAll(ctx)

		Convey("Then the whole load fails with a MalformedRecordError", func() {
			So(errors.Is(err, repository.ErrMalformedRecord), ShouldBeTrue)
			var mre *repository.MalformedRecordError
			So(errors.As(err, &mre), ShouldBeTrue)
			So(mre.Line, ShouldEqual, 3)
			So(mre.Field, ShouldEqual, "points")
			So(mre.Value, ShouldEqual, "lots")
		})
	})

	Convey("Given a non-numeric position field", t, func() {
		path := writeFile(t, "date;server;position;name;race;points\n2025-01-01;R1;first;Alice;X;100\n")
		_, err := repository.NewCSVStore(path).LoadAll(ctx)
		So(errors.Is(err, repository.ErrMalformedRecord), ShouldBeTrue)
	})

	Convey("Given a header without the points column", t, func() {
		path := writeFile(t, "date;server;position;name;race\n2025-01-01;R1;1;Alice;X\n")
		_, err := repository.NewCSVStore(path).LoadAll(ctx)
		So(errors.Is(err, repository.ErrMissingColumn), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "points")
	})

	Convey("Given an empty file", t, func() {
		obs, err := repository.NewCSVStore(writeFile(t, "")).LoadAll(ctx)
		So(err, ShouldBeNil)
		So(obs, ShouldBeEmpty)
	})

	Convey("Given no file at all", t, func() {
		path := filepath.Join(t.TempDir(), "missing.csv")
		_, err := repository.NewCSVStore(path).LoadAll(ctx)
		So(errors.Is(err, repository.ErrHistoryNotFound), ShouldBeTrue)
	})
}

func TestCSVStoreAppend(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new history file", t, func() {
		path := filepath.Join(t.TempDir(), "history.csv")
		store := repository.NewCSVStore(path)
		first := model.Observation{Date: "2025-01-01", Server: "R1", Position: 1, Name: `Le "Comte"`, Race: "X", Points: 10}
		second := model.Observation{Date: "2025-01-02", Server: "R1", Position: 2, Name: "Bob; Jr", Race: "Y", Points: 20}

		So(store.Append(ctx, first), ShouldBeNil)
		So(store.Append(ctx, second), ShouldBeNil)

		Convey("Then the header is written once and every field is quoted", func() {
			raw, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(raw)), "\r\n")
			So(lines, ShouldHaveLength, 3)
			So(lines[0], ShouldEqual, `"date";"server";"position";"name";"race";"points"`)
			So(lines[1], ShouldEqual, `"2025-01-01";"R1";"1";"Le ""Comte""";"X";"10"`)
		})

		Convey("Then the rows load back unchanged", func() {
			obs, err := store.LoadAll(ctx)
			So(err, ShouldBeNil)
			first.ServerName, second.ServerName = "R1", "R1"
			So(cmp.Diff([]model.Observation{first, second}, obs), ShouldBeEmpty)
		})

		Convey("Then appending nothing is a no-op", func() {
			So(store.Append(ctx), ShouldBeNil)
			obs, _ := store.LoadAll(ctx)
			So(obs, ShouldHaveLength, 2)
		})
	})

	Convey("Given an existing comma history with reordered columns", t, func() {
		path := writeFile(t, "name,date,server,position,race,points\nAlice,2024-01-01,R1,1,SSAK,100")
		store := repository.NewCSVStore(path)
		next := model.Observation{Date: "2024-01-02", Server: "R1", Position: 1, Name: "Alice, the first", Race: "SSAK", Points: 150}

		So(store.Append(ctx, next), ShouldBeNil)

		Convey("Then the row follows the file's delimiter and column order", func() {
			raw, err := os.ReadFile(path)
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
			So(lines, ShouldHaveLength, 3)
			So(strings.TrimSpace(lines[2]), ShouldEqual, `"Alice, the first","2024-01-02","R1","1","SSAK","150"`)
		})

		Convey("Then old and new rows both load", func() {
			obs, err := store.LoadAll(ctx)
			So(err, ShouldBeNil)
			So(obs, ShouldHaveLength, 2)
			So(obs[0].Points, ShouldEqual, 100)
			So(obs[1].Name, ShouldEqual, "Alice, the first")
			So(obs[1].Points, ShouldEqual, 150)
		})
	})

	Convey("Given an existing semicolon history", t, func() {
		path := writeFile(t, "date;server;position;name;race;points\r\n2024-01-01;R1;1;Alice;SSAK;100\r\n")
		store := repository.NewCSVStore(path)
		So(store.Append(ctx, model.Observation{Date: "2024-01-02", Server: "R1", Position: 2, Name: "Bob", Race: "SSAK", Points: 90}), ShouldBeNil)

		obs, err := store.LoadAll(ctx)
		So(err, ShouldBeNil)
		So(obs, ShouldHaveLength, 2)
		So(obs[1].Name, ShouldEqual, "Bob")
	})

	Convey("Given an existing history without the points column", t, func() {
		path := writeFile(t, "date,server,position,name,race\n2024-01-01,R1,1,Alice,SSAK\n")
		store := repository.NewCSVStore(path)
		err := store.Append(ctx, model.Observation{Date: "2024-01-02", Server: "R1", Position: 1, Name: "Bob", Race: "SSAK", Points: 1})

		Convey("Then nothing is appended", func() {
			So(errors.Is(err, repository.ErrMissingColumn), ShouldBeTrue)
			raw, _ := os.ReadFile(path)
			So(string(raw), ShouldEqual, "date,server,position,name,race\n2024-01-01,R1,1,Alice,SSAK\n")
		})
	})

	Convey("Given a directory that does not exist", t, func() {
		store := repository.NewCSVStore(filepath.Join(t.TempDir(), "nope", "history.csv"))
		err := store.Append(ctx, model.Observation{Date: "2025-01-01", Server: "R1", Position: 1, Name: "A", Race: "X", Points: 1})
		So(err, ShouldNotBeNil)
	})
}
