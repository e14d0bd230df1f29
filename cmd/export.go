package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/burns-20/bwrank/internal/report"
	"github.com/spf13/cobra"
)

func (c *cli) exportCmd() *cobra.Command {
	var (
		flags queryFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the progression between two snapshots to an xlsx workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, v, err := flags.build(cmd)
			if err != nil {
				return err
			}
			v.Page, v.PageSize = 1, 0
			res, err := c.query(cmd.Context(), q, v)
			if err != nil {
				return err
			}
			if out == "" {
				out = c.cfg.XLSXPath
			}

			var buf bytes.Buffer
			if err := report.WriteXLSX(&buf, res.Start, res.End, res.Rows); err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", out, res.Total)
			return nil
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringVarP(&out, "out", "o", "", "workbook path (default xlsx_path)")
	return cmd
}
