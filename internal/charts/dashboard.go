package charts

import (
	"image"
	"io"

	"bizmetrics/internal/engine"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	dashWidth  = 1600
	dashBanner = 50
	dashRow    = 330
)

// Dashboard combines the revenue trend, distribution and, when segCol is
// given and present, the segment comparison into one image.
func Dashboard(t *engine.Table, dateCol, revenueCol, segCol, path string) (string, error) {
	values, err := t.Floats(revenueCol)
	if err != nil {
		return "", err
	}
	xs := finite(values)
	if len(xs) == 0 {
		return "", ErrNotEnoughData
	}

	trendRender, err := trendRenderer(t, dateCol, revenueCol, "Revenue Trend", dashWidth, dashRow)
	if err != nil {
		return "", err
	}
	trend, err := renderImage(trendRender)
	if err != nil {
		return "", err
	}
	hist, err := renderImage(histogramRenderer(xs, "Revenue Distribution", dashWidth/2, dashRow, histColor))
	if err != nil {
		return "", err
	}
	box, err := renderImage(boxPlotRenderer(xs, revenueCol, "Revenue Box Plot", dashWidth/2, dashRow))
	if err != nil {
		return "", err
	}

	rows := 2
	var seg image.Image
	if segCol != "" && t.Has(segCol) {
		segRender, err := segmentRenderer(t, segCol, revenueCol, "Revenue by Segment", dashWidth, dashRow)
		if err != nil {
			return "", err
		}
		if seg, err = renderImage(segRender); err != nil {
			return "", err
		}
		rows = 3
	}

	banner, err := renderImage(bannerRenderer("Business Analytics Dashboard", dashWidth, dashBanner))
	if err != nil {
		return "", err
	}

	height := dashBanner + rows*dashRow
	return save(path, func(w io.Writer) error {
		return composite(w, dashWidth, height,
			panel{img: banner, at: image.Point{}},
			panel{img: trend, at: image.Point{Y: dashBanner}},
			panel{img: hist, at: image.Point{Y: dashBanner + dashRow}},
			panel{img: box, at: image.Point{X: dashWidth / 2, Y: dashBanner + dashRow}},
			panel{img: seg, at: image.Point{Y: dashBanner + 2*dashRow}},
		)
	})
}

func bannerRenderer(title string, width, height int) func(io.Writer) error {
	return func(w io.Writer) error {
		c, err := newCanvas(width, height)
		if err != nil {
			return err
		}
		c.text(title, width/2, height/2, 16, drawing.ColorBlack)
		return c.save(w)
	}
}
