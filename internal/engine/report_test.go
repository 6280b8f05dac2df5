package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryReport(t *testing.T) {
	report := SummaryReport(NewAnalyzer(salesFixture()))

	assert.True(t, strings.HasPrefix(report, "Business Metrics Summary Report\n"+strings.Repeat("=", 50)+"\n"))
	assert.Contains(t, report, "  Total Revenue: $500.00")
	assert.Contains(t, report, "  Average Revenue: $125.00")
	assert.Contains(t, report, "  Revenue Range: $50.00 - $200.00")
	assert.Contains(t, report, "  Total Customers: 3")
	assert.Contains(t, report, "  Avg Transactions/Customer: 1.67")
	assert.Contains(t, report, "  Revenue per Customer: $166.67")
	assert.NotContains(t, report, "not available")
}

func TestSummaryReportThousandsSeparators(t *testing.T) {
	a := NewAnalyzer(MustTable(NewFloatColumn(ColRevenue, []float64{1234.5, 1000})))
	assert.Contains(t, SummaryReport(a), "Total Revenue: $2,234.50")
}

func TestSummaryReportDegrades(t *testing.T) {
	noRevenue := NewAnalyzer(MustTable(NewStringColumn(ColCustomerID, []string{"a", "b", "a"})))
	report := SummaryReport(noRevenue)
	assert.Contains(t, report, revenueUnavailable+"\n")
	assert.Contains(t, report, "  Total Customers: 2")
	assert.NotContains(t, report, "Revenue per Customer")

	nothing := NewAnalyzer(MustTable(NewFloatColumn("amount", []float64{1})))
	report = SummaryReport(nothing)
	assert.Contains(t, report, revenueUnavailable)
	assert.Contains(t, report, customerUnavailable)
}
