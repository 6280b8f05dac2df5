package models

import "time"

type RevenueMetrics struct {
	TotalRevenue   float64  `json:"total_revenue"`
	AverageRevenue float64  `json:"average_revenue"`
	MedianRevenue  float64  `json:"median_revenue"`
	RevenueStd     *float64 `json:"revenue_std"`
	MinRevenue     float64  `json:"min_revenue"`
	MaxRevenue     float64  `json:"max_revenue"`
}

type CustomerMetrics struct {
	TotalCustomers          int      `json:"total_customers"`
	TransactionsPerCustomer float64  `json:"transactions_per_customer"`
	RevenuePerCustomer      *float64 `json:"revenue_per_customer,omitempty"`
}

// GrowthPoint is one calendar period of a growth series.
// GrowthRate is nil for the first period and after a zero-total period.
type GrowthPoint struct {
	PeriodEnd  time.Time `json:"period_end"`
	Value      float64   `json:"value"`
	GrowthRate *float64  `json:"growth_rate"`
}

type SegmentStat struct {
	Segment    string   `json:"segment"`
	Sum        float64  `json:"sum"`
	Mean       *float64 `json:"mean"`
	Count      int      `json:"count"`
	Std        *float64 `json:"std"`
	Percentage *float64 `json:"percentage"`
}

type SegmentBreakdown struct {
	Column   string        `json:"column"`
	Metric   string        `json:"metric"`
	Segments []SegmentStat `json:"segments"`
}

type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

type DashboardData struct {
	Rows        int                `json:"rows"`
	Revenue     *RevenueMetrics    `json:"revenue,omitempty"`
	Customers   *CustomerMetrics   `json:"customers,omitempty"`
	Growth      []GrowthPoint      `json:"growth,omitempty"`
	Segments    []SegmentBreakdown `json:"segments,omitempty"`
	TopRows     []map[string]any   `json:"top_transactions,omitempty"`
	Unavailable map[string]string  `json:"unavailable,omitempty"`
}
