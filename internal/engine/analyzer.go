package engine

import (
	"math"
	"sort"

	"bizmetrics/internal/models"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Well-known column names.
const (
	ColRevenue    = "revenue"
	ColCustomerID = "customer_id"
	ColDate       = "date"
)

// Analyzer computes descriptive statistics over one table. It never mutates
// the table and holds no state besides the table reference.
type Analyzer struct {
	table *Table
}

func NewAnalyzer(t *Table) *Analyzer {
	return &Analyzer{table: t}
}

// Table returns the analyzed table.
func (a *Analyzer) Table() *Table { return a.table }

// RevenueMetrics summarizes the revenue column.
func (a *Analyzer) RevenueMetrics() (models.RevenueMetrics, error) {
	revs, err := a.table.Floats(ColRevenue)
	if err != nil {
		return models.RevenueMetrics{}, err
	}
	s, err := Describe(revs)
	if err != nil {
		return models.RevenueMetrics{}, err
	}
	rm := models.RevenueMetrics{
		TotalRevenue:   s.Sum,
		AverageRevenue: s.Mean,
		MedianRevenue:  s.Median,
		MinRevenue:     s.Min,
		MaxRevenue:     s.Max,
	}
	if s.Count > 1 {
		rm.RevenueStd = ptr(s.Std)
	}
	return rm, nil
}

// SegmentAnalysis breaks metricColumn down by the distinct values of segmentColumn.
func (a *Analyzer) SegmentAnalysis(segmentColumn, metricColumn string) ([]models.SegmentStat, error) {
	groups, err := a.table.GroupBy(segmentColumn)
	if err != nil {
		return nil, err
	}
	values, err := a.table.Floats(metricColumn)
	if err != nil {
		return nil, err
	}
	total := Sum(values)

	out := make([]models.SegmentStat, 0, len(groups))
	for _, g := range groups {
		xs := present(values, rowsOf(g.Rows))
		st := models.SegmentStat{Segment: g.Key, Count: len(xs)}
		// A segment whose metric is entirely missing keeps a zero sum and no mean.
		if s, err := describe(xs); err == nil {
			st.Sum = s.Sum
			st.Mean = ptr(s.Mean)
			if s.Count > 1 {
				st.Std = ptr(s.Std)
			}
		}
		if total != 0 {
			st.Percentage = ptr(round2(st.Sum / total * 100))
		}
		out = append(out, st)
	}
	return out, nil
}

// TopPerformers returns the n rows with the largest metricColumn values,
// descending, ties in original row order. Rows with a missing metric never qualify.
func (a *Analyzer) TopPerformers(metricColumn string, n int) (*Table, error) {
	values, err := a.table.Floats(metricColumn)
	if err != nil {
		return nil, err
	}
	rows := make([]int, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return values[rows[i]] > values[rows[j]] })

	if n < 0 {
		n = 0
	}
	if n < len(rows) {
		rows = rows[:n]
	}
	return a.table.Take(rows), nil
}

// CustomerMetrics counts customers and their average activity.
func (a *Analyzer) CustomerMetrics() (models.CustomerMetrics, error) {
	groups, err := a.table.GroupBy(ColCustomerID)
	if err != nil {
		return models.CustomerMetrics{}, err
	}
	if len(groups) == 0 {
		return models.CustomerMetrics{}, ErrNoData
	}

	var tx int
	for _, g := range groups {
		tx += g.Len()
	}
	m := models.CustomerMetrics{
		TotalCustomers:          len(groups),
		TransactionsPerCustomer: float64(tx) / float64(len(groups)),
	}

	if revs, err := a.table.Floats(ColRevenue); err == nil {
		sums := make([]float64, len(groups))
		for i, g := range groups {
			sums[i] = Sum(present(revs, rowsOf(g.Rows)))
		}
		m.RevenuePerCustomer = ptr(stat.Mean(sums, nil))
	}
	return m, nil
}

// Correlation computes the Pearson correlation matrix of the given numeric
// columns, or of every float column when none are named. Each pair uses
// the rows where both values are present.
func (a *Analyzer) Correlation(columns ...string) (models.CorrelationMatrix, error) {
	if len(columns) == 0 {
		for _, f := range a.table.Schema() {
			if f.Kind == KindFloat {
				columns = append(columns, f.Name)
			}
		}
	}
	if len(columns) == 0 {
		return models.CorrelationMatrix{}, ErrNoData
	}

	data := make([][]float64, len(columns))
	for i, name := range columns {
		vals, err := a.table.Floats(name)
		if err != nil {
			return models.CorrelationMatrix{}, err
		}
		data[i] = vals
	}

	m := models.CorrelationMatrix{Columns: columns, Values: make([][]float64, len(columns))}
	for i := range columns {
		m.Values[i] = make([]float64, len(columns))
	}
	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := pearson(data[i], data[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// round2 rounds half away from zero at two decimals.
func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func ptr(v float64) *float64 { return &v }
