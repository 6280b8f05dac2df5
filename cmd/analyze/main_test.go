package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bizmetrics/internal/config"
	"bizmetrics/internal/engine"
	"bizmetrics/internal/models"
	"bizmetrics/internal/sample"

	"github.com/docopt/docopt.go"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func parse(t *testing.T, argv ...string) docopt.Opts {
	t.Helper()
	parser := &docopt.Parser{HelpHandler: docopt.NoHelpHandler}
	opts, err := parser.ParseArgs(usage, argv, "")
	require.NoError(t, err)
	return opts
}

func salesTable() *engine.Table {
	opts := sample.DefaultOptions()
	opts.Records = 120
	opts.End = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	return sample.Sales(opts)
}

func TestReportOptions(t *testing.T) {
	cfg := &config.Config{TopN: 10, GrowthPeriod: "ME", SegmentColumns: []string{"region"}}

	opts, err := reportOptions(parse(t, "report", "sales.csv"), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, opts.SegmentColumns)
	assert.Equal(t, 10, opts.TopN)
	assert.Equal(t, engine.PeriodMonth, opts.Period)

	opts, err = reportOptions(parse(t, "report", "sales.csv", "--segment=a", "--segment=b", "--top=3", "--period=YE"), cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, opts.SegmentColumns)
	assert.Equal(t, 3, opts.TopN)
	assert.Equal(t, engine.PeriodYear, opts.Period)

	_, err = reportOptions(parse(t, "report", "sales.csv", "--top=many"), cfg)
	assert.Error(t, err)
	_, err = reportOptions(parse(t, "report", "sales.csv", "--period=W"), cfg)
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	opts := engine.DefaultDashboardOptions()
	opts.TopN = 3

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, engine.NewAnalyzer(salesTable()), opts))
	out := buf.String()

	assert.Contains(t, out, "Business Metrics Summary Report")
	assert.Contains(t, out, "Detailed Revenue Metrics")
	assert.Contains(t, out, "Segment Analysis: product_category")
	assert.Contains(t, out, "Segment Analysis: region")
	assert.Contains(t, out, "Top 3 Transactions by revenue")
	assert.Contains(t, out, "Growth (ME, last 12 periods)")
	assert.Contains(t, out, "TRANSACTION ID")
}

func TestPrintReportMissingColumns(t *testing.T) {
	tbl := engine.MustTable(engine.NewFloatColumn("amount", []float64{1, 2}))

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, engine.NewAnalyzer(tbl), engine.DefaultDashboardOptions()))
	assert.Contains(t, buf.String(), "Revenue metrics not available.")
	assert.Contains(t, buf.String(), `not available: data must contain "revenue" column`)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	data := engine.BuildDashboard(engine.NewAnalyzer(salesTable()), engine.DefaultDashboardOptions())
	require.NoError(t, printJSON(&buf, data))

	var back models.DashboardData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, 120, back.Rows)
	assert.Len(t, back.TopRows, 10)
}

func TestRenderCharts(t *testing.T) {
	dir := t.TempDir()
	paths, err := renderCharts(context.Background(), salesTable(), dir, "region", zaptest.NewLogger(t))
	require.NoError(t, err)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, []string{
		"correlation_heatmap.png",
		"dashboard.png",
		"revenue_distribution.png",
		"revenue_trend.png",
		"segment_comparison.png",
	}, names)
}

func TestRenderChartsWithoutDates(t *testing.T) {
	undated := engine.MustTable(
		engine.NewStringColumn("region", []string{"North", "South", "North", "East"}),
		engine.NewFloatColumn(engine.ColRevenue, []float64{100, 50, 150, 80}),
		engine.NewFloatColumn("cost", []float64{60, 35, 80, 40}),
	)
	paths, err := renderCharts(context.Background(), undated, t.TempDir(), "region", zaptest.NewLogger(t))
	require.NoError(t, err)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{
		"correlation_heatmap.png",
		"revenue_distribution.png",
		"segment_comparison.png",
	}, names)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	args := parse(t, "generate", "--out="+dir, "--records=25", "--customers=5", "--seed=3")
	require.NoError(t, generate(args, zaptest.NewLogger(t)))

	tbl, err := engine.LoadFile(filepath.Join(dir, "sales_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, 25, tbl.Len())

	_, err = os.Stat(filepath.Join(dir, "sales_data.arrow"))
	assert.True(t, os.IsNotExist(err))

	err = generate(parse(t, "generate", "--out="+dir, "--records=0"), zaptest.NewLogger(t))
	assert.Error(t, err)
}
