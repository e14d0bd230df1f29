package main

import (
	"fmt"
	"time"

	"github.com/burns-20/bwrank/internal/domain/model"
	"github.com/burns-20/bwrank/internal/testhistory"
	"github.com/spf13/cobra"
)

func (c *cli) synthCmd() *cobra.Command {
	var (
		cfg  testhistory.Config
		end  string
		seed uint64
	)
	cmd := &cobra.Command{
		Use:   "synth-history",
		Short: "Append a synthetic history for the configured servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.End = time.Now()
			if end != "" {
				t, err := time.Parse(model.DateLayout, end)
				if err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
				cfg.End = t
			}
			cfg.Seed = seed
			for _, s := range c.cfg.Servers {
				cfg.Servers = append(cfg.Servers, testhistory.Server{Code: s.Code, Races: s.Races})
			}

			store, closeStore, err := c.openStore(false)
			if err != nil {
				return err
			}
			defer closeStore()

			stats, err := testhistory.Run(cmd.Context(), cfg, store, c.log.Named("synth"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d observations over %d days for %d players\n",
				stats.Observations, stats.Dates, stats.Players)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&cfg.Players, "players", 250, "players per server")
	fl.IntVar(&cfg.Top, "top", 200, "leaderboard length")
	fl.IntVar(&cfg.Days, "days", 30, "number of daily snapshots")
	fl.StringVar(&end, "end", "", "last snapshot date YYYY-MM-DD (default today)")
	fl.Uint64Var(&seed, "seed", 1, "random seed")
	fl.Float64Var(&cfg.ChurnRate, "churn", 0.05, "chance a player misses a day")
	fl.Float64Var(&cfg.RaceChangeRate, "race-change", 0.002, "chance a player changes race on a day")
	return cmd
}
