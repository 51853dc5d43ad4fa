// Package render draws point sets, their hulls and inscribed rectangles onto
// raster images and exports them as PNG, JPEG or PDF.
package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
)

// Query is a containment query marker.
type Query struct {
	Point  geometry.Point
	Inside bool
}

// Scene is everything that can be drawn, in world coordinates.
type Scene struct {
	Title     string
	Points    []geometry.Point
	Hull      []geometry.Point // polygon outline, any orientation
	Rectangle []geometry.Point // polygon outline
	Queries   []Query
	Notes     []string
}

// SceneFromReport builds a scene from the input points and a pipeline report.
func SceneFromReport(points []geometry.Point, rep *pipeline.Report) Scene {
	s := Scene{Points: points}
	if rep == nil {
		return s
	}
	s.Title = rep.Source
	if rep.Hull != nil {
		s.Hull = rep.Hull.Vertices
		s.Notes = append(s.Notes, fmt.Sprintf("hull: %d vertices, area %.4g", len(rep.Hull.Vertices), rep.Hull.Area))
	}
	if r := rep.Rectangle; r != nil && len(r.Corners) == 4 {
		rect := rectangle.Rectangle{Orientation: r.Orientation}
		copy(rect.Corners[:], r.Corners)
		s.Rectangle = rect.Outline()
		s.Notes = append(s.Notes, fmt.Sprintf("rectangle: area %.4g, fill %.1f%%", r.Area, 100*r.FillRatio))
	}
	for _, q := range rep.Containment {
		s.Queries = append(s.Queries, Query{Point: q.Point, Inside: q.Inside})
	}
	if rep.Error != "" {
		s.Notes = append(s.Notes, "error: "+rep.Error)
	}
	return s
}

func (s Scene) allPoints() []geometry.Point {
	all := make([]geometry.Point, 0, len(s.Points)+len(s.Hull)+len(s.Rectangle)+len(s.Queries))
	all = append(all, s.Points...)
	all = append(all, s.Hull...)
	all = append(all, s.Rectangle...)
	for _, q := range s.Queries {
		all = append(all, q.Point)
	}
	return all
}

// viewport maps world coordinates onto the canvas, preserving aspect ratio.
type viewport struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	height     int
	screen     bool
}

func newViewport(pts []geometry.Point, o Options) viewport {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		if !p.IsFinite() {
			continue
		}
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	if math.IsInf(minX, 1) {
		minX, minY, maxX, maxY = 0, 0, 1, 1
	}
	dx, dy := maxX-minX, maxY-minY
	if dx == 0 {
		minX, dx = minX-0.5, 1
	}
	if dy == 0 {
		minY, dy = minY-0.5, 1
	}

	innerW := float64(o.Width - 2*o.Padding)
	innerH := float64(o.Height - 2*o.Padding)
	scale := math.Min(innerW/dx, innerH/dy)
	return viewport{
		minX:   minX,
		minY:   minY,
		scale:  scale,
		offX:   (float64(o.Width) - dx*scale) / 2,
		offY:   (float64(o.Height) - dy*scale) / 2,
		height: o.Height,
		screen: o.ScreenFrame,
	}
}

func (v viewport) toPixel(p geometry.Point) (float64, float64) {
	px := v.offX + (p.X-v.minX)*v.scale
	py := v.offY + (p.Y-v.minY)*v.scale
	if !v.screen {
		py = float64(v.height) - py
	}
	return px, py
}

// worldRange returns the world interval visible across n pixels along an axis.
func (v viewport) worldRange(origin, off float64, n int) (float64, float64) {
	return origin - off/v.scale, origin + (float64(n)-off)/v.scale
}

type canvas struct {
	img *image.NRGBA
	ras *vector.Rasterizer
	vp  viewport
}

func (c *canvas) fill(pts [][2]float64, col color.NRGBA) {
	if len(pts) < 3 {
		return
	}
	b := c.img.Bounds()
	c.ras.Reset(b.Dx(), b.Dy())
	c.ras.MoveTo(float32(pts[0][0]), float32(pts[0][1]))
	for _, p := range pts[1:] {
		c.ras.LineTo(float32(p[0]), float32(p[1]))
	}
	c.ras.ClosePath()
	c.ras.Draw(c.img, b, image.NewUniform(col), image.Point{})
}

func (c *canvas) segment(ax, ay, bx, by, width float64, col color.NRGBA) {
	dx, dy := bx-ax, by-ay
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	c.fill([][2]float64{{ax + nx, ay + ny}, {bx + nx, by + ny}, {bx - nx, by - ny}, {ax - nx, ay - ny}}, col)
}

func (c *canvas) disc(cx, cy, r float64, col color.NRGBA) {
	const sides = 16
	pts := make([][2]float64, sides)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / sides
		pts[i] = [2]float64{cx + r*math.Cos(a), cy + r*math.Sin(a)}
	}
	c.fill(pts, col)
}

func (c *canvas) pixels(world []geometry.Point) [][2]float64 {
	out := make([][2]float64, 0, len(world))
	for _, p := range world {
		if !p.IsFinite() {
			continue
		}
		x, y := c.vp.toPixel(p)
		out = append(out, [2]float64{x, y})
	}
	return out
}

func (c *canvas) polygon(world []geometry.Point, width float64, stroke color.NRGBA, fillAlpha uint8) {
	px := c.pixels(world)
	if len(px) < 2 {
		return
	}
	if fillAlpha > 0 {
		f := stroke
		f.A = fillAlpha
		c.fill(px, f)
	}
	for i := range px {
		a, b := px[i], px[(i+1)%len(px)]
		c.segment(a[0], a[1], b[0], b[1], width, stroke)
	}
}

func (c *canvas) grid(step float64, col color.NRGBA) {
	b := c.img.Bounds()
	vp := c.vp
	x0, x1 := vp.worldRange(vp.minX, vp.offX, b.Dx())
	y0, y1 := vp.worldRange(vp.minY, vp.offY, b.Dy())
	span := math.Max(x1-x0, y1-y0)
	if step <= 0 || span/step > maxGridLines {
		step = niceStep(span)
	}
	for k := math.Ceil(x0 / step); k*step <= x1; k++ {
		px, _ := vp.toPixel(geometry.Point{X: k * step, Y: vp.minY})
		c.segment(px, 0, px, float64(b.Dy()), 1, col)
	}
	for k := math.Ceil(y0 / step); k*step <= y1; k++ {
		_, py := vp.toPixel(geometry.Point{X: vp.minX, Y: k * step})
		c.segment(0, py, float64(b.Dx()), py, 1, col)
	}
}

func (c *canvas) text(lines []string, col color.NRGBA) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	lineHeight := basicfont.Face7x13.Metrics().Height.Ceil()
	for i, line := range lines {
		d.Dot = fixed.P(8, (i+1)*lineHeight+4)
		d.DrawString(line)
	}
}

const maxGridLines = 500

// niceStep picks a 1/2/5 x 10^k spacing giving roughly ten grid lines.
func niceStep(span float64) float64 {
	if !(span > 0) || math.IsInf(span, 0) {
		return 1
	}
	raw := span / 10
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	switch norm := raw / mag; {
	case norm < 1.5:
		return mag
	case norm < 3.5:
		return 2 * mag
	case norm < 7.5:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// Render draws scene onto a new canvas.
func Render(scene Scene, o Options) (*image.NRGBA, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	c := &canvas{
		img: imaging.New(o.Width, o.Height, o.Background),
		ras: vector.NewRasterizer(o.Width, o.Height),
		vp:  newViewport(scene.allPoints(), o),
	}

	if o.Grid {
		c.grid(o.GridStep, o.GridColor)
	}
	c.polygon(scene.Hull, o.LineWidth, o.HullColor, 0x30)
	c.polygon(scene.Rectangle, o.LineWidth, o.RectangleColor, 0x50)
	for _, p := range c.pixels(scene.Points) {
		c.disc(p[0], p[1], o.PointRadius, o.PointColor)
	}
	for _, q := range scene.Queries {
		if !q.Point.IsFinite() {
			continue
		}
		col := o.OutsideColor
		if q.Inside {
			col = o.InsideColor
		}
		x, y := c.vp.toPixel(q.Point)
		c.disc(x, y, o.PointRadius*1.6, col)
	}
	if o.Labels {
		var lines []string
		if scene.Title != "" {
			lines = append(lines, scene.Title)
		}
		c.text(append(lines, scene.Notes...), o.PointColor)
	}

	slog.Debug("Scene rendered",
		"points", len(scene.Points),
		"hull_vertices", len(scene.Hull),
		"rectangle", len(scene.Rectangle) > 0,
		"width", o.Width,
		"height", o.Height)
	return c.img, nil
}
