package charts

import (
	"bytes"
	"image"
	"image/png"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	xdraw "golang.org/x/image/draw"
)

// canvas wraps a raster go-chart renderer for the charts go-chart has no type for.
type canvas struct {
	r      chart.Renderer
	width  int
	height int
}

func newCanvas(width, height int) (*canvas, error) {
	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r.SetFont(font)
	c := &canvas{r: r, width: width, height: height}
	c.rect(0, 0, width, height, drawing.ColorWhite)
	return c, nil
}

func (c *canvas) rect(x0, y0, x1, y1 int, fill drawing.Color) {
	c.r.ResetStyle()
	c.r.SetFillColor(fill)
	c.r.SetStrokeColor(fill)
	c.r.SetStrokeWidth(0)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y0)
	c.r.LineTo(x1, y1)
	c.r.LineTo(x0, y1)
	c.r.Close()
	c.r.Fill()
}

func (c *canvas) line(x0, y0, x1, y1 int, stroke drawing.Color, width float64) {
	c.r.ResetStyle()
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(width)
	c.r.MoveTo(x0, y0)
	c.r.LineTo(x1, y1)
	c.r.Stroke()
}

func (c *canvas) circle(x, y int, radius float64, stroke drawing.Color) {
	c.r.ResetStyle()
	c.r.SetStrokeColor(stroke)
	c.r.SetStrokeWidth(1)
	c.r.Circle(radius, x, y)
	c.r.Stroke()
}

// text draws body centered on (x, y).
func (c *canvas) text(body string, x, y int, size float64, color drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(color)
	box := c.r.MeasureText(body)
	c.r.Text(body, x-box.Width()/2, y+box.Height()/2)
}

// textRight draws body right-aligned so it ends at x.
func (c *canvas) textRight(body string, x, y int, size float64, color drawing.Color) {
	c.r.SetFontSize(size)
	c.r.SetFontColor(color)
	box := c.r.MeasureText(body)
	c.r.Text(body, x-box.Width(), y+box.Height()/2)
}

func (c *canvas) save(w io.Writer) error {
	return c.r.Save(w)
}

// renderImage runs a PNG render into memory and decodes it for compositing.
func renderImage(render func(io.Writer) error) (image.Image, error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

// panel places one rendered image at an offset of a composite.
type panel struct {
	img image.Image
	at  image.Point
}

// composite pastes panels onto a white background and encodes the result.
func composite(w io.Writer, width, height int, panels ...panel) error {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, xdraw.Src)
	for _, p := range panels {
		if p.img == nil {
			continue
		}
		b := p.img.Bounds()
		xdraw.Draw(dst, image.Rectangle{Min: p.at, Max: p.at.Add(b.Size())}, p.img, b.Min, xdraw.Over)
	}
	return png.Encode(w, dst)
}
