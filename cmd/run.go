package main

import (
	"fmt"

	"github.com/burns-20/bwrank/pkg/logger"
	"github.com/spf13/cobra"
)

func (c *cli) runCmd() *cobra.Command {
	var noPublish bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape, regenerate the report and publish it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			sum, err := c.scrape(cmd, nil)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			if failed := sum.Failed(); len(failed) > 0 {
				c.log.Warn(ctx, "some servers failed, publishing the others", logger.Strings("failed", failed))
			}
			if err := c.generate(ctx); err != nil {
				return err
			}
			if noPublish {
				return nil
			}
			res, err := c.publish(ctx, nil)
			if err != nil {
				return err
			}
			if !res.Published {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to publish")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "stop after generating the report")
	return cmd
}
