package main

import (
	"fmt"

	"github.com/burns-20/bwrank/internal/adapters/repository"
	"github.com/spf13/cobra"
)

func (c *cli) syncDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-db",
		Short: "Mirror the CSV history into the SQLite database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			// Both sides keep raw labels.
			src := repository.NewCSVStore(c.cfg.HistoryPath, repository.WithLogger(c.log.Named("history")))
			db, err := repository.OpenSQLite(c.cfg.SQLitePath, repository.WithLogger(c.log.Named("sqlite")))
			if err != nil {
				return err
			}
			defer db.Close()

			added, err := db.Mirror(ctx, src)
			if err != nil {
				return err
			}
			total, err := db.Count(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d new, %d total\n", c.cfg.SQLitePath, added, total)
			return nil
		},
	}
}
