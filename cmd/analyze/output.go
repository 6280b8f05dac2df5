package main

import (
	"fmt"
	"io"
	"strings"

	"bizmetrics/internal/engine"
	"bizmetrics/internal/models"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const growthRows = 12

var num = message.NewPrinter(language.English)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport writes the summary followed by the detailed tables.
func printReport(w io.Writer, a *engine.Analyzer, opts engine.DashboardOptions) error {
	fmt.Fprint(w, engine.SummaryReport(a))

	section(w, "Detailed Revenue Metrics")
	if rm, err := a.RevenueMetrics(); err != nil {
		fmt.Fprintf(w, "not available: %v\n", err)
	} else {
		table := newTable(w, "Metric", "Value")
		table.Append([]string{"Total", money(rm.TotalRevenue)})
		table.Append([]string{"Average", money(rm.AverageRevenue)})
		table.Append([]string{"Median", money(rm.MedianRevenue)})
		table.Append([]string{"Std Dev", optional(rm.RevenueStd, "$%.2f")})
		table.Append([]string{"Min", money(rm.MinRevenue)})
		table.Append([]string{"Max", money(rm.MaxRevenue)})
		table.Render()
	}

	for _, col := range opts.SegmentColumns {
		section(w, "Segment Analysis: "+col)
		stats, err := a.SegmentAnalysis(col, opts.MetricColumn)
		if err != nil {
			fmt.Fprintf(w, "not available: %v\n", err)
			continue
		}
		printSegments(w, stats)
	}

	if opts.TopN > 0 {
		section(w, fmt.Sprintf("Top %d Transactions by %s", opts.TopN, opts.MetricColumn))
		top, err := a.TopPerformers(opts.MetricColumn, opts.TopN)
		if err != nil {
			fmt.Fprintf(w, "not available: %v\n", err)
		} else {
			printRows(w, top)
		}
	}

	section(w, fmt.Sprintf("Growth (%s, last %d periods)", opts.Period, growthRows))
	growth, err := a.GrowthRate(opts.DateColumn, opts.MetricColumn, opts.Period)
	if err != nil {
		fmt.Fprintf(w, "not available: %v\n", err)
		return nil
	}
	if len(growth) > growthRows {
		growth = growth[len(growth)-growthRows:]
	}
	printGrowth(w, growth)
	return nil
}

func printSegments(w io.Writer, stats []models.SegmentStat) {
	table := newTable(w, "Segment", "Sum", "Mean", "Count", "Std", "Share %")
	for _, s := range stats {
		table.Append([]string{
			s.Segment,
			money(s.Sum),
			optional(s.Mean, "$%.2f"),
			num.Sprintf("%d", s.Count),
			optional(s.Std, "%.2f"),
			optional(s.Percentage, "%.2f"),
		})
	}
	table.Render()
}

func printRows(w io.Writer, t *engine.Table) {
	fields := t.Schema()
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	table := newTable(w, header...)
	for r := 0; r < t.Len(); r++ {
		table.Append(t.Row(r))
	}
	table.Render()
}

func printGrowth(w io.Writer, growth []models.GrowthPoint) {
	table := newTable(w, "Period End", "Value", "Growth %")
	for _, g := range growth {
		table.Append([]string{
			g.PeriodEnd.Format("2006-01-02"),
			money(g.Value),
			optional(g.GrowthRate, "%+.2f"),
		})
	}
	table.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	return table
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func money(v float64) string {
	return num.Sprintf("$%.2f", v)
}

func optional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return num.Sprintf(format, *v)
}
