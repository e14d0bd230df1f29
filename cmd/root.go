package main

import (
	"context"
	"fmt"
	"os"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/internal/config"
	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/domain/translate"
	"github.com/burns-20/bwrank/internal/domain/types"
	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand needs once the root has loaded the
// configuration.
type cli struct {
	configPath string
	cfg        *config.Config
	log        logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "bwrank",
		Short:         "Blood Wars leaderboard history, progression report and publisher",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML configuration file (default $"+config.EnvConfigFile+")")

	root.AddCommand(
		c.scrapeCmd(),
		c.generateCmd(),
		c.publishCmd(),
		c.runCmd(),
		c.progressionCmd(),
		c.exportCmd(),
		c.syncDBCmd(),
		c.serveCmd(),
		c.synthCmd(),
	)
	return root
}

func (c *cli) init(ctx context.Context) error {
	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}
	if err := logger.InitWith(os.Stderr, cfg.LogFormat); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	c.log = log
	return nil
}

func (c *cli) translator() translate.Translator {
	return translate.New(c.cfg.RaceLabels, c.cfg.ServerLabels)
}

// openStore opens the configured history backend. The returned closer is
// never nil.
func (c *cli) openStore(translated bool) (repository.Store, func() error, error) {
	opts := []repository.Option{repository.WithLogger(c.log.Named("history"))}
	if translated {
		opts = append(opts, repository.WithTranslator(c.translator()))
	}
	switch c.cfg.HistoryBackend {
	case config.BackendSQLite:
		db, err := repository.OpenSQLite(c.cfg.SQLitePath, opts...)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	default:
		return repository.NewCSVStore(c.cfg.HistoryPath, opts...), func() error { return nil }, nil
	}
}

// loadService opens the store and loads the history into a service.
func (c *cli) loadService(ctx context.Context) (*service.Service, func() error, error) {
	store, closeStore, err := c.openStore(true)
	if err != nil {
		return nil, nil, err
	}
	policy, err := progression.ParsePolicy(c.cfg.AggregationPolicy)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	svc := service.New(
		service.WithStore(store),
		service.WithLogger(c.log.Named("service")),
		service.WithPolicy(policy),
		service.WithDefaultPageSize(c.cfg.DefaultPageSize),
	)
	if err := svc.Reload(ctx); err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return svc, closeStore, nil
}

// serverInfos lists the configured servers with their display names, in
// display order.
func (c *cli) serverInfos() []types.ServerInfo {
	tr := c.translator()
	out := make([]types.ServerInfo, 0, len(c.cfg.Servers))
	for _, s := range c.cfg.Servers {
		out = append(out, types.ServerInfo{Code: s.Code, Name: tr.Server(s.Code), Region: s.Region})
	}
	return out
}

// raceLabels lists the display race labels of the configured servers.
func (c *cli) raceLabels() []string {
	tr := c.translator()
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, s := range c.cfg.Servers {
		for _, r := range s.Races {
			label := tr.Race(r)
			if !seen[label] {
				seen[label] = true
				out = append(out, label)
			}
		}
	}
	return out
}
