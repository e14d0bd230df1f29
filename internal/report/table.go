package report

import (
	"fmt"
	"io"

	"github.com/burns-20/bwrank/internal/domain/progression"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderTable prints a page of rows followed by its race distribution.
func RenderTable(w io.Writer, page progression.Page, dist progression.Distribution) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Name", "Server", "Race", "Position", "Start", "End", "Progression"})
	offset := 0
	if page.PageSize > 0 {
		offset = (page.Page - 1) * page.PageSize
	}
	for i, r := range page.Rows {
		t.AppendRow(table.Row{offset + i + 1, r.Name, r.ServerName, r.Race, r.Position, r.StartScore, r.EndScore, signed(r.Progression)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("page %d/%d", page.Page, page.PageCount), fmt.Sprintf("%d rows", page.Total)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})
	t.Render()

	d := newTable(w)
	d.AppendHeader(table.Row{"Race", "Players"})
	for _, e := range dist.Entries() {
		d.AppendRow(table.Row{e.Race, e.Count})
	}
	d.AppendFooter(table.Row{"Total", dist.Total})
	d.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
