package charts

import (
	"fmt"
	"io"
	"math"

	"bizmetrics/internal/engine"
	"bizmetrics/internal/models"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	coolBlue = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	neutral  = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	warmRed  = drawing.Color{R: 180, G: 4, B: 38, A: 255}
	noValue  = drawing.Color{R: 160, G: 160, B: 160, A: 255}
)

// CorrelationHeatmap draws the annotated correlation matrix of columns,
// or of every numeric column when columns is empty.
func CorrelationHeatmap(t *engine.Table, columns []string, title, path string) (string, error) {
	m, err := engine.NewAnalyzer(t).Correlation(columns...)
	if err != nil {
		return "", err
	}
	return save(path, heatmapRenderer(m, title, 1000, 800))
}

func heatmapRenderer(m models.CorrelationMatrix, title string, width, height int) func(io.Writer) error {
	return func(w io.Writer) error {
		c, err := newCanvas(width, height)
		if err != nil {
			return err
		}
		n := len(m.Columns)
		left, top := 160, 70
		cell := (width - left - 40) / n
		if alt := (height - top - 110) / n; alt < cell {
			cell = alt
		}

		c.text(title, width/2, 30, 14, drawing.ColorBlack)
		for i, name := range m.Columns {
			cy := top + i*cell + cell/2
			c.textRight(name, left-8, cy, 10, axisColor)
			cx := left + i*cell + cell/2
			c.text(name, cx, top+n*cell+14, 10, axisColor)
		}

		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := m.Values[i][j]
				x0, y0 := left+j*cell, top+i*cell
				fill, label := noValue, "n/a"
				if !math.IsNaN(v) {
					fill, label = coolwarm(v), fmt.Sprintf("%.2f", v)
				}
				c.rect(x0, y0, x0+cell, y0+cell, fill)
				c.line(x0, y0, x0+cell, y0, drawing.ColorWhite, 1)
				c.line(x0, y0, x0, y0+cell, drawing.ColorWhite, 1)
				fg := drawing.ColorBlack
				if math.Abs(v) > 0.6 {
					fg = drawing.ColorWhite
				}
				c.text(label, x0+cell/2, y0+cell/2, 10, fg)
			}
		}
		return c.save(w)
	}
}

// coolwarm maps [-1, 1] onto a diverging blue-grey-red scale centered at zero.
func coolwarm(v float64) drawing.Color {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return blend(neutral, coolBlue, -v)
	}
	return blend(neutral, warmRed, v)
}

func blend(a, b drawing.Color, f float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
