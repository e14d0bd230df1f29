package main

import (
	"context"
	"encoding/json"
	"fmt"

	service "github.com/burns-20/bwrank/internal/app"
	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/burns-20/bwrank/internal/report"
	"github.com/spf13/cobra"
)

// queryFlags are the selection and view flags shared by progression and
// export.
type queryFlags struct {
	servers  []string
	races    []string
	start    string
	end      string
	policy   string
	sort     string
	asc      bool
	page     int
	pageSize int
}

func (f *queryFlags) register(cmd *cobra.Command, paged bool) {
	fl := cmd.Flags()
	fl.StringSliceVar(&f.servers, "servers", nil, "server codes (default all)")
	fl.StringSliceVar(&f.races, "races", nil, "race labels (default all)")
	fl.StringVar(&f.start, "start", "", "start date YYYY-MM-DD (default first snapshot)")
	fl.StringVar(&f.end, "end", "", "end date YYYY-MM-DD (default last snapshot)")
	fl.StringVar(&f.policy, "policy", "", "filter-before-group or filter-after-group (default aggregation_policy)")
	fl.StringVar(&f.sort, "sort", string(progression.SortProgression), "progression, end_score, start_score, name or server")
	fl.BoolVar(&f.asc, "asc", false, "sort ascending")
	if paged {
		fl.IntVar(&f.page, "page", 1, "page number")
		fl.IntVar(&f.pageSize, "page-size", -1, "rows per page, 0 for all (default default_page_size)")
	}
}

// build turns the flags into a query. Set flags left unset select
// everything; set but empty they select nothing.
func (f *queryFlags) build(cmd *cobra.Command) (progression.Query, service.View, error) {
	var q progression.Query
	if cmd.Flags().Changed("servers") {
		q.Servers = progression.NewSet(f.servers...)
	}
	if cmd.Flags().Changed("races") {
		q.Races = progression.NewSet(f.races...)
	}
	q.Start, q.End = f.start, f.end
	if f.policy != "" {
		p, err := progression.ParsePolicy(f.policy)
		if err != nil {
			return q, service.View{}, err
		}
		q.Policy = p
	}
	key, err := progression.ParseSortKey(f.sort)
	if err != nil {
		return q, service.View{}, err
	}
	v := service.View{Sort: key, Desc: !f.asc, Page: f.page, PageSize: f.pageSize}
	return q, v, nil
}

func (c *cli) progressionCmd() *cobra.Command {
	var (
		flags  queryFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "progression",
		Short: "Print the progression between two snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, v, err := flags.build(cmd)
			if err != nil {
				return err
			}
			res, err := c.query(cmd.Context(), q, v)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(out, "%s%s%s\n", res.Start, progression.Arrow, res.End)
			report.RenderTable(out, res.Page, res.Distribution)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func (c *cli) query(ctx context.Context, q progression.Query, v service.View) (service.Result, error) {
	svc, closeStore, err := c.loadService(ctx)
	if err != nil {
		return service.Result{}, err
	}
	defer closeStore()
	return svc.Progression(ctx, q, v)
}
