package engine

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRevenueMetrics(t *testing.T) {
	a := NewAnalyzer(MustTable(NewFloatColumn(ColRevenue, []float64{10, 20, 30})))

	rm, err := a.RevenueMetrics()
	require.NoError(t, err)
	assert.Equal(t, 60.0, rm.TotalRevenue)
	assert.Equal(t, 20.0, rm.AverageRevenue)
	assert.Equal(t, 20.0, rm.MedianRevenue)
	assert.Equal(t, 10.0, rm.MinRevenue)
	assert.Equal(t, 30.0, rm.MaxRevenue)
	require.NotNil(t, rm.RevenueStd)
	assert.InDelta(t, 10.0, *rm.RevenueStd, 1e-9)

	single, err := NewAnalyzer(MustTable(NewFloatColumn(ColRevenue, []float64{42, math.NaN()}))).RevenueMetrics()
	require.NoError(t, err)
	assert.Equal(t, 42.0, single.AverageRevenue)
	assert.Nil(t, single.RevenueStd, "a single value has no sample deviation")
}

func TestRevenueMetricsErrors(t *testing.T) {
	_, err := NewAnalyzer(MustTable(NewFloatColumn("amount", []float64{1}))).RevenueMetrics()
	var mc *MissingColumnError
	require.ErrorAs(t, err, &mc)
	assert.Equal(t, ColRevenue, mc.Column)

	_, err = NewAnalyzer(MustTable(NewStringColumn(ColRevenue, []string{"a"}))).RevenueMetrics()
	var ct *ColumnTypeError
	assert.ErrorAs(t, err, &ct)

	_, err = NewAnalyzer(MustTable(NewFloatColumn(ColRevenue, []float64{math.NaN()}))).RevenueMetrics()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSegmentAnalysis(t *testing.T) {
	a := NewAnalyzer(MustTable(
		NewStringColumn("region", []string{"North", "South", "North"}),
		NewFloatColumn(ColRevenue, []float64{15, 20, 25}),
	))

	stats, err := a.SegmentAnalysis("region", ColRevenue)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	north, south := stats[0], stats[1]
	assert.Equal(t, "North", north.Segment)
	assert.Equal(t, 40.0, north.Sum)
	require.NotNil(t, north.Mean)
	assert.Equal(t, 20.0, *north.Mean)
	assert.Equal(t, 2, north.Count)
	require.NotNil(t, north.Std)
	assert.InDelta(t, math.Sqrt(50), *north.Std, 1e-9)
	require.NotNil(t, north.Percentage)
	assert.Equal(t, 66.67, *north.Percentage)

	assert.Equal(t, "South", south.Segment)
	assert.Nil(t, south.Std, "a single value has no sample deviation")
	assert.Equal(t, 33.33, *south.Percentage)
}

func TestSegmentAnalysisEdgeCases(t *testing.T) {
	tbl := salesFixture()
	a := NewAnalyzer(tbl)

	_, err := a.SegmentAnalysis("segment", ColRevenue)
	assert.True(t, IsMissingColumn(err))

	_, err = a.SegmentAnalysis("region", "profit")
	assert.True(t, IsMissingColumn(err))

	// Food has one present and one missing revenue value.
	stats, err := a.SegmentAnalysis("product_category", ColRevenue)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "Food", stats[1].Segment)
	assert.Equal(t, 1, stats[1].Count)
	assert.Equal(t, 50.0, stats[1].Sum)

	unpriced := NewAnalyzer(MustTable(
		NewStringColumn("region", []string{"North", "East", "East"}),
		NewFloatColumn(ColRevenue, []float64{10, math.NaN(), math.NaN()}),
	))
	stats, err = unpriced.SegmentAnalysis("region", ColRevenue)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	east := stats[0]
	require.Equal(t, "East", east.Segment)
	assert.Equal(t, 0, east.Count)
	assert.Equal(t, 0.0, east.Sum)
	assert.Nil(t, east.Mean, "no values leaves the mean undefined")
	assert.Nil(t, east.Std)
	require.NotNil(t, east.Percentage)
	assert.Equal(t, 0.0, *east.Percentage)

	zero := NewAnalyzer(MustTable(
		NewStringColumn("k", []string{"a", "b"}),
		NewFloatColumn("v", []float64{0, 0}),
	))
	stats, err = zero.SegmentAnalysis("k", "v")
	require.NoError(t, err)
	for _, s := range stats {
		assert.Nil(t, s.Percentage)
	}
}

func TestSegmentAnalysisIsIdempotent(t *testing.T) {
	a := NewAnalyzer(salesFixture())
	first, err := a.SegmentAnalysis("product_category", ColRevenue)
	require.NoError(t, err)
	second, err := a.SegmentAnalysis("product_category", ColRevenue)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTopPerformers(t *testing.T) {
	a := NewAnalyzer(MustTable(
		NewStringColumn("id", []string{"a", "b", "c", "d", "e"}),
		NewFloatColumn(ColRevenue, []float64{5, 9, math.NaN(), 9, 1}),
	))

	top, err := a.TopPerformers(ColRevenue, 3)
	require.NoError(t, err)
	ids, _ := top.Column("id")
	assert.Equal(t, []string{"b", "d", "a"}, ids.Strings, "ties keep row order")

	all, err := a.TopPerformers(ColRevenue, 100)
	require.NoError(t, err)
	assert.Equal(t, 4, all.Len(), "missing metrics never qualify")

	none, err := a.TopPerformers(ColRevenue, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, none.Len())

	_, err = a.TopPerformers("profit", 3)
	assert.True(t, IsMissingColumn(err))
}

func TestCustomerMetrics(t *testing.T) {
	cm, err := NewAnalyzer(salesFixture()).CustomerMetrics()
	require.NoError(t, err)
	assert.Equal(t, 3, cm.TotalCustomers)
	assert.InDelta(t, 5.0/3.0, cm.TransactionsPerCustomer, 1e-12)
	require.NotNil(t, cm.RevenuePerCustomer)
	// 1001: 250, 1002: 250, 1003: 0 (missing revenue)
	assert.InDelta(t, 500.0/3.0, *cm.RevenuePerCustomer, 1e-9)
}

func TestCustomerMetricsWithoutRevenue(t *testing.T) {
	a := NewAnalyzer(MustTable(NewStringColumn(ColCustomerID, []string{"x", "y", "x", ""})))
	cm, err := a.CustomerMetrics()
	require.NoError(t, err)
	assert.Equal(t, 2, cm.TotalCustomers)
	assert.Equal(t, 1.5, cm.TransactionsPerCustomer)
	assert.Nil(t, cm.RevenuePerCustomer)

	_, err = NewAnalyzer(MustTable(NewFloatColumn(ColRevenue, []float64{1}))).CustomerMetrics()
	assert.True(t, IsMissingColumn(err))

	_, err = NewAnalyzer(MustTable(NewStringColumn(ColCustomerID, []string{""}))).CustomerMetrics()
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCorrelation(t *testing.T) {
	a := NewAnalyzer(MustTable(
		NewFloatColumn("x", []float64{1, 2, 3, 4}),
		NewFloatColumn("y", []float64{2, 4, 6, 8}),
		NewFloatColumn("z", []float64{4, 3, 2, 1}),
		NewStringColumn("label", []string{"a", "b", "c", "d"}),
	))

	m, err := a.Correlation()
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, m.Columns)
	assert.InDelta(t, 1.0, m.Values[0][0], 1e-12)
	assert.InDelta(t, 1.0, m.Values[0][1], 1e-12)
	assert.InDelta(t, -1.0, m.Values[0][2], 1e-12)
	assert.Equal(t, m.Values[1][2], m.Values[2][1])

	_, err = a.Correlation("x", "label")
	var ct *ColumnTypeError
	assert.ErrorAs(t, err, &ct)

	_, err = NewAnalyzer(MustTable(NewStringColumn("s", []string{"a"}))).Correlation()
	assert.ErrorIs(t, err, ErrNoData)

	sparse := NewAnalyzer(MustTable(
		NewFloatColumn("x", []float64{1, math.NaN()}),
		NewFloatColumn("y", []float64{math.NaN(), 2}),
	))
	m, err = sparse.Correlation()
	require.NoError(t, err)
	assert.True(t, math.IsNaN(m.Values[0][1]))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 66.67, round2(200.0/3.0))
	assert.Equal(t, 0.13, round2(0.125))
	assert.Equal(t, -0.13, round2(-0.125))
	assert.True(t, math.IsNaN(round2(math.NaN())))
}

// revenueTable draws a table of whole-dollar revenues so sums are exact.
func revenueTable(t *rapid.T) *Table {
	n := rapid.IntRange(1, 60).Draw(t, "rows")
	segments := rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c", "d"}), n, n).Draw(t, "segments")
	amounts := rapid.SliceOfN(rapid.IntRange(-500, 100000), n, n).Draw(t, "revenue")
	revs := make([]float64, n)
	for i, c := range amounts {
		revs[i] = float64(c)
	}
	return MustTable(NewStringColumn("segment", segments), NewFloatColumn(ColRevenue, revs))
}

func TestRevenueMetricsProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := revenueTable(t)
		revs, _ := tbl.Floats(ColRevenue)

		rm, err := NewAnalyzer(tbl).RevenueMetrics()
		require.NoError(t, err)

		var total float64
		for _, v := range revs {
			total += v
		}
		assert.Equal(t, total, rm.TotalRevenue)
		assert.GreaterOrEqual(t, rm.MaxRevenue, rm.AverageRevenue)
		assert.GreaterOrEqual(t, rm.AverageRevenue, rm.MinRevenue)
		assert.GreaterOrEqual(t, rm.MedianRevenue, rm.MinRevenue)
		assert.LessOrEqual(t, rm.MedianRevenue, rm.MaxRevenue)
	})
}

func TestSegmentPartitionProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := revenueTable(t)
		revs, _ := tbl.Floats(ColRevenue)

		stats, err := NewAnalyzer(tbl).SegmentAnalysis("segment", ColRevenue)
		require.NoError(t, err)

		seen := make(map[string]bool)
		var sum, pct float64
		var count int
		for _, s := range stats {
			assert.False(t, seen[s.Segment], "segment %q repeated", s.Segment)
			seen[s.Segment] = true
			sum += s.Sum
			count += s.Count
			if s.Percentage != nil {
				pct += *s.Percentage
			}
		}
		assert.Equal(t, Sum(revs), sum)
		assert.Equal(t, tbl.Len(), count)
		if total := Sum(revs); total != 0 && !hasMixedSigns(revs) {
			assert.InDelta(t, 100.0, pct, 0.005*float64(len(stats))+1e-9)
		}
	})
}

func TestTopPerformersProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := revenueTable(t)
		n := rapid.IntRange(0, 80).Draw(t, "n")
		revs, _ := tbl.Floats(ColRevenue)

		top, err := NewAnalyzer(tbl).TopPerformers(ColRevenue, n)
		require.NoError(t, err)

		want := n
		if tbl.Len() < want {
			want = tbl.Len()
		}
		require.Equal(t, want, top.Len())

		got, _ := top.Floats(ColRevenue)
		assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i] > got[j] }))

		rest := append([]float64(nil), revs...)
		sort.Float64s(rest)
		if want > 0 && want < len(rest) {
			// The smallest returned value beats every value left out.
			assert.GreaterOrEqual(t, got[want-1], rest[len(rest)-want-1])
		}
	})
}

func hasMixedSigns(xs []float64) bool {
	var pos, neg bool
	for _, v := range xs {
		pos = pos || v > 0
		neg = neg || v < 0
	}
	return pos && neg
}
