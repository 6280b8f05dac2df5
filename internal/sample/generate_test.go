package sample

import (
	"path/filepath"
	"testing"
	"time"

	"bizmetrics/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedEnd = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.End = fixedEnd
	return opts
}

func columnNames(t *engine.Table) []string {
	var names []string
	for _, f := range t.Schema() {
		names = append(names, f.Name)
	}
	return names
}

func TestSales(t *testing.T) {
	tbl := Sales(testOptions())
	require.Equal(t, 500, tbl.Len())
	assert.Equal(t, []string{
		"transaction_id", "date", "customer_id", "product_category", "region",
		"revenue", "cost", "quantity", "profit",
	}, columnNames(tbl))

	dates, err := tbl.Times("date")
	require.NoError(t, err)
	first := fixedEnd.AddDate(0, 0, -(salesDays - 1))
	for _, d := range dates {
		assert.False(t, d.Before(first))
		assert.False(t, d.After(fixedEnd))
	}

	ids, _ := tbl.Floats("customer_id")
	qty, _ := tbl.Floats("quantity")
	revs, _ := tbl.Floats("revenue")
	costs, _ := tbl.Floats("cost")
	profits, _ := tbl.Floats("profit")
	for i := range ids {
		assert.GreaterOrEqual(t, ids[i], 1001.0)
		assert.LessOrEqual(t, ids[i], 1200.0)
		assert.GreaterOrEqual(t, qty[i], 1.0)
		assert.LessOrEqual(t, qty[i], 9.0)
		assert.Greater(t, revs[i], 0.0)
		assert.InDelta(t, revs[i]-costs[i], profits[i], 0.011)
	}

	cats, _ := tbl.Column("product_category")
	for _, c := range cats.Strings {
		assert.Contains(t, Categories, c)
	}
}

func TestSalesIsDeterministic(t *testing.T) {
	a, b := Sales(testOptions()), Sales(testOptions())
	assert.Equal(t, a.Records(), b.Records())

	other := testOptions()
	other.Seed = 7
	assert.NotEqual(t, a.Records(), Sales(other).Records())
}

func TestCustomers(t *testing.T) {
	tbl := Customers(testOptions())
	require.Equal(t, 200, tbl.Len())
	assert.Equal(t, []string{
		"customer_id", "customer_name", "segment", "signup_date", "country", "lifetime_value",
	}, columnNames(tbl))

	names, _ := tbl.Column("customer_name")
	assert.Equal(t, "Customer_1001", names.Strings[0])
	signups, _ := tbl.Times("signup_date")
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), signups[1])

	counts := make(map[string]int)
	segs, _ := tbl.Column("segment")
	for _, s := range segs.Strings {
		counts[s]++
	}
	assert.Greater(t, counts["Standard"], counts["Premium"], "Standard is the most common segment")
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions()
	opts.Records = 50
	opts.Customers = 20

	paths, err := Save(dir, opts, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "sales_data.csv"),
		filepath.Join(dir, "sales_data.arrow"),
		filepath.Join(dir, "customer_data.csv"),
		filepath.Join(dir, "customer_data.arrow"),
	}, paths)

	fromCSV, err := engine.LoadFile(paths[0])
	require.NoError(t, err)
	fromArrow, err := engine.LoadFile(paths[1])
	require.NoError(t, err)

	want := Sales(opts)
	require.Equal(t, want.Len(), fromCSV.Len())
	for r := 0; r < want.Len(); r++ {
		assert.Equal(t, want.Row(r), fromCSV.Row(r))
		assert.Equal(t, want.Row(r), fromArrow.Row(r))
	}

	rm, err := engine.NewAnalyzer(fromCSV).RevenueMetrics()
	require.NoError(t, err)
	assert.Greater(t, rm.TotalRevenue, 0.0)
}
