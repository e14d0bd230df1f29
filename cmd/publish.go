package main

import (
	"context"
	"fmt"

	"github.com/burns-20/bwrank/internal/adapters/publisher"
	"github.com/spf13/cobra"
)

func (c *cli) publishCmd() *cobra.Command {
	var (
		paths   []string
		message string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Commit and push the history and the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if message != "" {
				c.cfg.CommitMessage = message
			}
			res, err := c.publish(cmd.Context(), paths)
			if err != nil {
				return err
			}
			if !res.Published {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to publish")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed %d change(s): %s\n", len(res.Changes), res.Message)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&paths, "path", nil, "paths to stage (default the whole working tree)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message (default commit_message or a dated one)")
	return cmd
}

func (c *cli) publish(ctx context.Context, paths []string) (publisher.Result, error) {
	p := publisher.New(c.cfg.GitWorkdir,
		publisher.WithRemote(c.cfg.GitRemote, c.cfg.GitBranch),
		publisher.WithMessage(c.cfg.CommitMessage),
		publisher.WithLogger(c.log.Named("publisher")),
	)
	return p.Publish(ctx, paths...)
}
