package engine

import (
	"bizmetrics/internal/models"
)

// DashboardOptions selects what BuildDashboard precomputes.
type DashboardOptions struct {
	DateColumn     string
	MetricColumn   string
	SegmentColumns []string
	Period         Period
	TopN           int
}

// DefaultDashboardOptions mirrors the sample data layout.
func DefaultDashboardOptions() DashboardOptions {
	return DashboardOptions{
		DateColumn:     ColDate,
		MetricColumn:   ColRevenue,
		SegmentColumns: []string{"product_category", "region"},
		Period:         PeriodMonth,
		TopN:           10,
	}
}

// BuildDashboard runs every analysis the table supports. Sections whose
// columns are missing are left out and listed under Unavailable.
func BuildDashboard(a *Analyzer, opts DashboardOptions) *models.DashboardData {
	data := &models.DashboardData{
		Rows:        a.table.Len(),
		Segments:    make([]models.SegmentBreakdown, 0, len(opts.SegmentColumns)),
		Unavailable: make(map[string]string),
	}

	// 1. Revenue
	if rm, err := a.RevenueMetrics(); err == nil {
		data.Revenue = &rm
	} else {
		data.Unavailable["revenue"] = err.Error()
	}

	// 2. Customers
	if cm, err := a.CustomerMetrics(); err == nil {
		data.Customers = &cm
	} else {
		data.Unavailable["customers"] = err.Error()
	}

	// 3. Growth
	if g, err := a.GrowthRate(opts.DateColumn, opts.MetricColumn, opts.Period); err == nil {
		data.Growth = g
	} else {
		data.Unavailable["growth"] = err.Error()
	}

	// 4. Segments
	for _, col := range opts.SegmentColumns {
		stats, err := a.SegmentAnalysis(col, opts.MetricColumn)
		if err != nil {
			data.Unavailable["segments."+col] = err.Error()
			continue
		}
		data.Segments = append(data.Segments, models.SegmentBreakdown{
			Column: col, Metric: opts.MetricColumn, Segments: stats,
		})
	}

	// 5. Top rows
	if opts.TopN > 0 {
		if top, err := a.TopPerformers(opts.MetricColumn, opts.TopN); err == nil {
			data.TopRows = top.Records()
		} else {
			data.Unavailable["top"] = err.Error()
		}
	}

	if len(data.Unavailable) == 0 {
		data.Unavailable = nil
	}
	return data
}
