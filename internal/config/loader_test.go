package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/burns-20/bwrank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.HistoryPath, convey.ShouldEqual, "bloodwars_classement.csv")
				convey.So(cfg.HistoryBackend, convey.ShouldEqual, config.BackendCSV)
				convey.So(cfg.AggregationPolicy, convey.ShouldEqual, config.PolicyFilterBeforeGroup)
				convey.So(cfg.ScrapePages, convey.ShouldEqual, 4)
				convey.So(cfg.ServerCodes(), convey.ShouldResemble, []string{"R1", "R2", "R4", "R3", "R7", "R14"})
				convey.So(cfg.RaceLabels["SSAK"], convey.ShouldEqual, "ABSORBEUR")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BWRANK_ADDR", ":8080")
			_ = os.Setenv("BWRANK_HISTORY_PATH", "/data/history.csv")
			_ = os.Setenv("BWRANK_SCRAPE_PAGES", "2")
			_ = os.Setenv("BWRANK_SCRAPE_HEADLESS", "false")
			_ = os.Setenv("BWRANK_AGGREGATION_POLICY", "filter-after-group")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.HistoryPath, convey.ShouldEqual, "/data/history.csv")
				convey.So(cfg.ScrapePages, convey.ShouldEqual, 2)
				convey.So(cfg.ScrapeHeadless, convey.ShouldBeFalse)
				convey.So(cfg.AggregationPolicy, convey.ShouldEqual, config.PolicyFilterAfterGroup)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
history_backend: sqlite
default_page_size: 100
servers:
  - code: R9
    region: FR
    portal_url: https://fr.example.net
    server_url: https://r9.fr.example.net
    realm: "209"
    races: [ABSORBEUR, CULTISTE]
race_labels:
  VAMPIR: CULTISTE
server_labels:
  R9: "R9 (test)"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv(config.EnvConfigFile, tmpFile)
			_ = os.Setenv("BWRANK_ADDR", ":7070")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then file values apply and env vars win over the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.HistoryBackend, convey.ShouldEqual, config.BackendSQLite)
				convey.So(cfg.DefaultPageSize, convey.ShouldEqual, 100)
				convey.So(cfg.ServerCodes(), convey.ShouldResemble, []string{"R9"})
				srv, ok := cfg.Server("R9")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(srv.Races, convey.ShouldResemble, []string{"ABSORBEUR", "CULTISTE"})
				convey.So(cfg.RaceLabels["VAMPIR"], convey.ShouldEqual, "CULTISTE")
				convey.So(cfg.RaceLabels["SSAK"], convey.ShouldEqual, "ABSORBEUR")
				convey.So(cfg.ServerLabels["R9"], convey.ShouldEqual, "R9 (test)")
			})
		})

		convey.Convey("When an explicit path is given", func() {
			tmpFile := createTempConfigFile("history_path: explicit.csv\n")
			defer func() { _ = os.Remove(tmpFile) }()
			clearConfigEnvVars()

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it is used without BWRANK_CONFIG", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.HistoryPath, convey.ShouldEqual, "explicit.csv")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv(config.EnvConfigFile, tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv(config.EnvConfigFile, "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BWRANK_SCRAPE_PAGES", "many")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given config validation", t, func() {
		ctx := context.Background()

		cases := map[string]string{
			"BWRANK_ADDR":               "",
			"BWRANK_HISTORY_BACKEND":    "postgres",
			"BWRANK_AGGREGATION_POLICY": "nearest-date",
			"BWRANK_SCRAPE_PAGES":       "0",
			"BWRANK_DEFAULT_PAGE_SIZE":  "-1",
		}
		for key, value := range cases {
			convey.Convey("When "+key+" is "+value, func() {
				_ = os.Setenv(key, value)
				defer clearConfigEnvVars()

				cfg, err := config.Load(ctx, "")

				convey.Convey("Then it should return a validation error", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(cfg, convey.ShouldBeNil)
				})
			})
		}

		convey.Convey("When servers repeat a code", func() {
			cfg := config.New()
			cfg.Servers = append(cfg.Servers, cfg.Servers[0])

			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "bwrank-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
