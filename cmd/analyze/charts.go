package main

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"bizmetrics/internal/charts"
	"bizmetrics/internal/engine"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type chartJob struct {
	name   string
	render func(path string) (string, error)
}

// renderCharts draws every chart the table supports into out concurrently.
// Charts without enough data, or without dated revenue for the trend and
// dashboard, are skipped with a warning.
func renderCharts(ctx context.Context, t *engine.Table, out, segment string, logger *zap.Logger) ([]string, error) {
	jobs := []chartJob{
		{"revenue_distribution.png", func(p string) (string, error) {
			return charts.Distribution(t, engine.ColRevenue, "Revenue Distribution", p)
		}},
		{"correlation_heatmap.png", func(p string) (string, error) {
			return charts.CorrelationHeatmap(t, nil, "Correlation Matrix", p)
		}},
	}
	if monthly, err := monthlyRevenue(t); err != nil {
		logger.Warn("no dated revenue, skipping trend and dashboard", zap.Error(err))
	} else {
		jobs = append(jobs,
			chartJob{"revenue_trend.png", func(p string) (string, error) {
				return charts.RevenueTrend(monthly, engine.ColDate, engine.ColRevenue, "Monthly Revenue Trend", p)
			}},
			chartJob{"dashboard.png", func(p string) (string, error) {
				return charts.Dashboard(t, engine.ColDate, engine.ColRevenue, segment, p)
			}},
		)
	}
	if t.Has(segment) {
		jobs = append(jobs, chartJob{"segment_comparison.png", func(p string) (string, error) {
			return charts.SegmentComparison(t, segment, engine.ColRevenue, "Revenue by "+segment, p)
		}})
	} else {
		logger.Warn("segment column not found, skipping segment chart", zap.String("column", segment))
	}

	var mu sync.Mutex
	var paths []string
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := job.render(filepath.Join(out, job.name))
			if errors.Is(err, charts.ErrNotEnoughData) {
				logger.Warn("chart skipped", zap.String("chart", job.name), zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}
			logger.Info("chart written", zap.String("path", path))
			mu.Lock()
			paths = append(paths, path)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	sort.Strings(paths)
	return paths, err
}

// monthlyRevenue collapses the table into one row per calendar month.
func monthlyRevenue(t *engine.Table) (*engine.Table, error) {
	growth, err := engine.NewAnalyzer(t).GrowthRate(engine.ColDate, engine.ColRevenue, engine.PeriodMonth)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(growth))
	values := make([]float64, len(growth))
	for i, g := range growth {
		dates[i] = g.PeriodEnd
		values[i] = g.Value
	}
	return engine.NewTable(
		engine.NewTimeColumn(engine.ColDate, dates),
		engine.NewFloatColumn(engine.ColRevenue, values),
	)
}
