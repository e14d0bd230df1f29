package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/domain/types"
	"github.com/burns-20/bwrank/internal/report"
	"github.com/spf13/cobra"
)

func (c *cli) generateCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render the HTML progression report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out != "" {
				c.cfg.ReportPath = out
			}
			if err := c.generate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c.cfg.ReportPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "report file (default report_path)")
	return cmd
}

func (c *cli) generate(ctx context.Context) error {
	svc, closeStore, err := c.loadService(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	policy, _ := progression.ParsePolicy(c.cfg.AggregationPolicy)
	data := report.Data{
		GeneratedAt:     time.Now(),
		Servers:         mergeServers(c.serverInfos(), svc.Servers(), c.translator().Server),
		Races:           mergeLabels(c.raceLabels(), svc.Races()),
		Observations:    svc.Observations(),
		Policy:          policy,
		DefaultPageSize: c.cfg.DefaultPageSize,
	}
	if err := report.WriteFile(c.cfg.ReportPath, data); err != nil {
		return err
	}
	c.log.Info(ctx, "report generated")
	return nil
}

// mergeLabels keeps the configured order and appends labels only seen in the
// history, sorted.
func mergeLabels(configured, seen []string) []string {
	out := append([]string(nil), configured...)
	known := make(map[string]bool, len(out))
	for _, l := range out {
		known[l] = true
	}
	extra := make([]string, 0)
	for _, l := range seen {
		if !known[l] {
			known[l] = true
			extra = append(extra, l)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// otherRegion heads servers found in the history but not configured.
const otherRegion = "Autres"

// mergeServers keeps the configured servers and appends the codes only seen
// in the history, sorted, so every server the API selects can be picked on
// the page.
func mergeServers(configured []types.ServerInfo, seen []string, name func(string) string) []types.ServerInfo {
	out := append([]types.ServerInfo(nil), configured...)
	known := make(map[string]bool, len(out))
	for _, s := range out {
		known[s.Code] = true
	}
	extra := make([]string, 0)
	for _, code := range seen {
		if !known[code] {
			known[code] = true
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)
	for _, code := range extra {
		out = append(out, types.ServerInfo{Code: code, Name: name(code), Region: otherRegion})
	}
	return out
}
