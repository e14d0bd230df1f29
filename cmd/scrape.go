package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/burns-20/bwrank/internal/adapters/scraper"
	"github.com/burns-20/bwrank/internal/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var errAllServersFailed = errors.New("every server failed")

func (c *cli) scrapeCmd() *cobra.Command {
	var (
		pages   int
		servers []string
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Read today's leaderboards and append them to the history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("pages") {
				c.cfg.ScrapePages = pages
			}
			sum, err := c.scrape(cmd, servers)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), sum)
			if len(sum.Servers) > 0 && len(sum.Failed()) == len(sum.Servers) {
				return errAllServersFailed
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 4, "rank pages read per server")
	cmd.Flags().StringSliceVar(&servers, "servers", nil, "server codes to scrape (default all configured)")
	return cmd
}

func (c *cli) scrape(cmd *cobra.Command, codes []string) (scraper.Summary, error) {
	ctx := cmd.Context()
	selected, err := c.selectServers(codes)
	if err != nil {
		return scraper.Summary{}, err
	}
	if err := scraper.LoadDotenv(c.cfg.DotenvPath); err != nil {
		return scraper.Summary{}, err
	}

	// Raw labels go to the history; translation happens on load.
	store, closeStore, err := c.openStore(false)
	if err != nil {
		return scraper.Summary{}, err
	}
	defer closeStore()

	browser, err := scraper.LaunchBrowser(scraper.BrowserOptions{
		Engine:    c.cfg.Browser,
		Headless:  c.cfg.ScrapeHeadless,
		TimeoutMS: float64(c.cfg.ScrapeTimeoutMS),
	})
	if err != nil {
		return scraper.Summary{}, err
	}
	defer browser.Close()

	s := scraper.New(browser, store, selected,
		scraper.WithPages(c.cfg.ScrapePages),
		scraper.WithLogger(c.log.Named("scraper")),
	)
	start := time.Now()
	sum, err := s.Run(ctx)
	if err != nil {
		return sum, fmt.Errorf("scrape interrupted after %s: %w", time.Since(start).Round(time.Second), err)
	}
	return sum, nil
}

func (c *cli) selectServers(codes []string) ([]config.Server, error) {
	if len(codes) == 0 {
		return c.cfg.Servers, nil
	}
	out := make([]config.Server, 0, len(codes))
	for _, code := range codes {
		s, ok := c.cfg.Server(code)
		if !ok {
			return nil, fmt.Errorf("unknown server %q", code)
		}
		out = append(out, s)
	}
	return out, nil
}

func printSummary(w io.Writer, sum scraper.Summary) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("scrape %s (%s)", sum.Date, sum.RunID))
	t.AppendHeader(table.Row{"Server", "Appended", "Duplicates", "Skipped", "Error"})
	for _, r := range sum.Servers {
		t.AppendRow(table.Row{r.Server, r.Appended, r.Duplicates, r.Skipped, r.Error})
	}
	t.AppendFooter(table.Row{"Total", sum.Appended(), "", "", ""})
	t.Render()
}
