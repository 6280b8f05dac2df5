// Package charts renders PNG charts of transaction tables with go-chart.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bizmetrics/internal/engine"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	defaultWidth  = 1200
	defaultHeight = 600
)

var (
	trendColor = drawing.ColorFromHex("2E86AB")
	histColor  = drawing.ColorFromHex("A23B72")
	palette    = []drawing.Color{
		{R: 77, G: 184, B: 255, A: 255},
		{R: 250, G: 134, B: 94, A: 255},
		{R: 165, G: 235, B: 91, A: 255},
		{R: 252, G: 201, B: 100, A: 255},
		{R: 208, G: 134, B: 255, A: 255},
		{R: 102, G: 194, B: 165, A: 255},
	}
)

var money = message.NewPrinter(language.English)

// ErrNotEnoughData is returned when a chart has nothing meaningful to draw.
var ErrNotEnoughData = errors.New("not enough data to chart")

// save writes a rendered chart to path, or to a new temp file when path is empty.
func save(path string, render func(io.Writer) error) (string, error) {
	var f *os.File
	var err error
	if path == "" {
		f, err = os.CreateTemp("", "chart-*.png")
	} else {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("failed to create chart directory: %w", err)
			}
		}
		f, err = os.Create(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}

	if err := render(f); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}

// RevenueTrend plots valueCol against dateCol, sorted by date.
func RevenueTrend(t *engine.Table, dateCol, valueCol, title, path string) (string, error) {
	render, err := trendRenderer(t, dateCol, valueCol, title, defaultWidth, defaultHeight)
	if err != nil {
		return "", err
	}
	return save(path, render)
}

func trendRenderer(t *engine.Table, dateCol, valueCol, title string, width, height int) (func(io.Writer) error, error) {
	dates, err := t.Times(dateCol)
	if err != nil {
		return nil, err
	}
	values, err := t.Floats(valueCol)
	if err != nil {
		return nil, err
	}

	rows := make([]int, 0, len(dates))
	for i := range dates {
		if !dates[i].IsZero() && !math.IsNaN(values[i]) {
			rows = append(rows, i)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return dates[rows[i]].Before(dates[rows[j]]) })
	if len(rows) < 2 || !dates[rows[0]].Before(dates[rows[len(rows)-1]]) {
		return nil, ErrNotEnoughData
	}

	xs := make([]time.Time, len(rows))
	ys := make([]float64, len(rows))
	for k, r := range rows {
		xs[k] = dates[r]
		ys[k] = values[r]
	}

	graph := chart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			Name:           "Date",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02"),
		},
		YAxis: chart.YAxis{
			Name:           "Revenue ($)",
			ValueFormatter: moneyFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    valueCol,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: trendColor,
					StrokeWidth: 2,
					DotColor:    trendColor,
					DotWidth:    3,
				},
			},
		},
	}
	return func(w io.Writer) error { return graph.Render(chart.PNG, w) }, nil
}

// SegmentComparison draws the per-segment totals of metricCol, largest first.
func SegmentComparison(t *engine.Table, segCol, metricCol, title, path string) (string, error) {
	render, err := segmentRenderer(t, segCol, metricCol, title, defaultWidth, defaultHeight)
	if err != nil {
		return "", err
	}
	return save(path, render)
}

func segmentRenderer(t *engine.Table, segCol, metricCol, title string, width, height int) (func(io.Writer) error, error) {
	stats, err := engine.NewAnalyzer(t).SegmentAnalysis(segCol, metricCol)
	if err != nil {
		return nil, err
	}
	if len(stats) == 0 {
		return nil, ErrNotEnoughData
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Sum > stats[j].Sum })

	bars := make([]chart.Value, len(stats))
	top := 0.0
	for i, s := range stats {
		color := palette[i%len(palette)]
		bars[i] = chart.Value{
			Label: money.Sprintf("%s ($%.0f)", s.Segment, s.Sum),
			Value: s.Sum,
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 0},
		}
		if s.Sum > top {
			top = s.Sum
		}
	}

	bc := chart.BarChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		BarWidth: barWidth(width, len(bars)),
		Bars:     bars,
		YAxis: chart.YAxis{
			Name:           "Total " + titleCase(metricCol),
			Range:          &chart.ContinuousRange{Min: 0, Max: headroom(top)},
			ValueFormatter: moneyFormatter,
		},
	}
	return func(w io.Writer) error { return bc.Render(chart.PNG, w) }, nil
}

func moneyFormatter(v interface{}) string {
	if vf, ok := v.(float64); ok {
		return money.Sprintf("$%.0f", vf)
	}
	return ""
}

func barWidth(width, n int) int {
	if n == 0 {
		return 40
	}
	w := (width - 200) / (n * 2)
	if w > 120 {
		w = 120
	}
	if w < 4 {
		w = 4
	}
	return w
}

func headroom(max float64) float64 {
	if max <= 0 {
		return 1
	}
	return max * 1.1
}

// titleCase turns snake_case column names into "Title Case" labels.
func titleCase(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
