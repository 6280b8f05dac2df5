package engine

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	revenueUnavailable  = "Revenue metrics not available."
	customerUnavailable = "Customer metrics not available."
)

// SummaryReport renders revenue and customer metrics as text. A section
// whose data is missing is replaced by a fixed notice so the report is
// always complete.
func SummaryReport(a *Analyzer) string {
	p := message.NewPrinter(language.English)
	lines := []string{"Business Metrics Summary Report", strings.Repeat("=", 50), ""}

	if rm, err := a.RevenueMetrics(); err == nil {
		lines = append(lines,
			"Revenue Metrics:",
			p.Sprintf("  Total Revenue: $%.2f", rm.TotalRevenue),
			p.Sprintf("  Average Revenue: $%.2f", rm.AverageRevenue),
			p.Sprintf("  Median Revenue: $%.2f", rm.MedianRevenue),
			p.Sprintf("  Revenue Range: $%.2f - $%.2f", rm.MinRevenue, rm.MaxRevenue),
			"",
		)
	} else {
		lines = append(lines, revenueUnavailable, "")
	}

	if cm, err := a.CustomerMetrics(); err == nil {
		lines = append(lines,
			"Customer Metrics:",
			p.Sprintf("  Total Customers: %d", cm.TotalCustomers),
			p.Sprintf("  Avg Transactions/Customer: %.2f", cm.TransactionsPerCustomer),
		)
		if cm.RevenuePerCustomer != nil {
			lines = append(lines, p.Sprintf("  Revenue per Customer: $%.2f", *cm.RevenuePerCustomer))
		}
		lines = append(lines, "")
	} else {
		lines = append(lines, customerUnavailable, "")
	}

	return strings.Join(lines, "\n")
}
