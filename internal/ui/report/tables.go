package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"reexmap/internal/data/history"
	"reexmap/internal/engine/resolver"
)

const summaryTableLimit = 15

// RenderSummaryTable renders the modules with the most re-exports for
// the terminal summary.
func RenderSummaryTable(result resolver.PackageReport) string {
	type row struct {
		module string
		count  int
	}

	rows := make([]row, 0, len(result.Modules))
	for _, module := range result.Modules {
		if len(module.Reexports) > 0 {
			rows = append(rows, row{module: module.ModulePath, count: len(module.Reexports)})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].module < rows[j].module
	})

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Module", "Re-exports"})
	shown := rows
	if len(shown) > summaryTableLimit {
		shown = shown[:summaryTableLimit]
	}
	for _, r := range shown {
		tbl.AppendRow(table.Row{r.module, r.count})
	}
	if len(rows) > summaryTableLimit {
		tbl.AppendFooter(table.Row{fmt.Sprintf("and %d more modules", len(rows)-summaryTableLimit), ""})
	}

	return tbl.Render()
}

// RenderRunsTable renders stored run history, newest first as loaded.
func RenderRunsTable(runs []history.Run) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"When", "Downstream", "Upstream", "Modules", "Re-exports", "Failures", "Duration"})
	for _, run := range runs {
		tbl.AppendRow(table.Row{
			humanize.Time(run.StartedAt),
			packageLabel(run.DownstreamPackage, run.DownstreamVersion),
			packageLabel(run.UpstreamPackage, run.UpstreamVersion),
			run.ModulesScanned,
			run.TotalReexports,
			run.ParseFailures,
			(time.Duration(run.DurationMS) * time.Millisecond).String(),
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d runs", len(runs)), "", "", "", "", "", ""})

	return tbl.Render()
}
