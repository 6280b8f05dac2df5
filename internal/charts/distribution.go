package charts

import (
	"fmt"
	"image"
	"io"
	"math"
	"sort"

	"bizmetrics/internal/engine"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const histogramBins = 30

var (
	axisColor  = drawing.Color{R: 80, G: 80, B: 80, A: 255}
	gridColor  = drawing.Color{R: 225, G: 225, B: 225, A: 255}
	boxFill    = drawing.Color{R: 198, G: 219, B: 239, A: 255}
	medianLine = drawing.Color{R: 230, G: 120, B: 20, A: 255}
)

// Distribution draws a histogram and a box plot of col side by side.
func Distribution(t *engine.Table, col, title, path string) (string, error) {
	values, err := t.Floats(col)
	if err != nil {
		return "", err
	}
	xs := finite(values)
	if len(xs) == 0 {
		return "", ErrNotEnoughData
	}

	half := defaultWidth * 7 / 12
	hist, err := renderImage(histogramRenderer(xs, title+" - Histogram", half, 500, histColor))
	if err != nil {
		return "", err
	}
	box, err := renderImage(boxPlotRenderer(xs, col, title+" - Box Plot", half, 500))
	if err != nil {
		return "", err
	}
	return save(path, func(w io.Writer) error {
		return composite(w, half*2, 500,
			panel{img: hist, at: image.Point{}},
			panel{img: box, at: image.Point{X: half}},
		)
	})
}

// histogramCounts buckets xs into equal-width bins spanning its range. The
// last bin is closed so the maximum lands in it.
func histogramCounts(xs []float64, bins int) (dividers, counts []float64) {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if hi == lo {
		bins = 1
	}
	dividers = floats.Span(make([]float64, bins+1), lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	return dividers, stat.Histogram(nil, dividers, sorted, nil)
}

// histogramRenderer draws xs as equal-width histogram bars.
func histogramRenderer(xs []float64, title string, width, height int, color drawing.Color) func(io.Writer) error {
	dividers, counts := histogramCounts(xs, histogramBins)
	bins := len(counts)

	bars := make([]chart.Value, bins)
	top := 0.0
	for i, n := range counts {
		label := ""
		if i%5 == 0 {
			label = fmt.Sprintf("%.0f", dividers[i])
		}
		bars[i] = chart.Value{
			Label: label,
			Value: n,
			Style: chart.Style{FillColor: color.WithAlpha(180), StrokeColor: drawing.ColorBlack, StrokeWidth: 1},
		}
		if n > top {
			top = n
		}
	}

	bc := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   (width - 160) / bins,
		BarSpacing: 1,
		Background: chart.Style{
			Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Bars: bars,
		XAxis: chart.Style{
			FontSize: 8,
		},
		YAxis: chart.YAxis{
			Name:  "Frequency",
			Range: &chart.ContinuousRange{Min: 0, Max: headroom(top)},
			ValueFormatter: func(v interface{}) string {
				if vf, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", vf)
				}
				return ""
			},
		},
	}
	return func(w io.Writer) error { return bc.Render(chart.PNG, w) }
}

// boxStats are Tukey box plot statistics.
type boxStats struct {
	q1, median, q3   float64
	whiskLo, whiskHi float64
	outliers         []float64
}

func computeBox(xs []float64) boxStats {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	s := boxStats{
		q1:     quantile(sorted, 0.25),
		median: quantile(sorted, 0.5),
		q3:     quantile(sorted, 0.75),
	}
	iqr := s.q3 - s.q1
	lo, hi := s.q1-1.5*iqr, s.q3+1.5*iqr
	s.whiskLo, s.whiskHi = s.q1, s.q3
	for _, v := range sorted {
		if v < lo || v > hi {
			s.outliers = append(s.outliers, v)
			continue
		}
		s.whiskLo = math.Min(s.whiskLo, v)
		s.whiskHi = math.Max(s.whiskHi, v)
	}
	return s
}

// quantile interpolates linearly between the closest ranks of a sorted sample.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	i := int(pos)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(i)
	return sorted[i] + frac*(sorted[i+1]-sorted[i])
}

func boxPlotRenderer(xs []float64, col, title string, width, height int) func(io.Writer) error {
	s := computeBox(xs)
	return func(w io.Writer) error {
		c, err := newCanvas(width, height)
		if err != nil {
			return err
		}

		left, right, top, bottom := 90, width-40, 60, height-40
		lo, hi := s.whiskLo, s.whiskHi
		for _, o := range s.outliers {
			lo = math.Min(lo, o)
			hi = math.Max(hi, o)
		}
		if hi == lo {
			lo, hi = lo-1, hi+1
		}
		pad := (hi - lo) * 0.05
		lo, hi = lo-pad, hi+pad
		y := func(v float64) int {
			return bottom - int((v-lo)/(hi-lo)*float64(bottom-top))
		}

		c.text(title, width/2, 25, 12, drawing.ColorBlack)
		for k := 0; k <= 5; k++ {
			v := lo + (hi-lo)*float64(k)/5
			c.line(left, y(v), right, y(v), gridColor, 1)
			c.textRight(fmt.Sprintf("%.0f", v), left-6, y(v), 9, axisColor)
		}
		c.line(left, top, left, bottom, axisColor, 1)
		c.line(left, bottom, right, bottom, axisColor, 1)
		c.text(titleCase(col), left/2-10, top-20, 10, axisColor)

		mid := (left + right) / 2
		boxHalf := (right - left) / 6
		capHalf := boxHalf / 2

		c.line(mid, y(s.whiskLo), mid, y(s.q1), drawing.ColorBlack, 1)
		c.line(mid, y(s.q3), mid, y(s.whiskHi), drawing.ColorBlack, 1)
		c.line(mid-capHalf, y(s.whiskLo), mid+capHalf, y(s.whiskLo), drawing.ColorBlack, 1)
		c.line(mid-capHalf, y(s.whiskHi), mid+capHalf, y(s.whiskHi), drawing.ColorBlack, 1)

		c.rect(mid-boxHalf, y(s.q3), mid+boxHalf, y(s.q1), boxFill)
		c.line(mid-boxHalf, y(s.q3), mid+boxHalf, y(s.q3), drawing.ColorBlack, 1)
		c.line(mid-boxHalf, y(s.q1), mid+boxHalf, y(s.q1), drawing.ColorBlack, 1)
		c.line(mid-boxHalf, y(s.q3), mid-boxHalf, y(s.q1), drawing.ColorBlack, 1)
		c.line(mid+boxHalf, y(s.q3), mid+boxHalf, y(s.q1), drawing.ColorBlack, 1)
		c.line(mid-boxHalf, y(s.median), mid+boxHalf, y(s.median), medianLine, 2)

		for _, o := range s.outliers {
			c.circle(mid, y(o), 3, drawing.ColorBlack)
		}
		return c.save(w)
	}
}

func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
