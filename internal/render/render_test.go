package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareReport(t *testing.T) ([]geometry.Point, *pipeline.Report) {
	t.Helper()
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 3, Y: 4}}
	p, err := pipeline.NewBuilder().Build()
	require.NoError(t, err)
	rep, err := p.Process(context.Background(), pipeline.Request{
		Source:      "square",
		Points:      pts,
		Queries:     []geometry.Point{{X: 5, Y: 5}, {X: 12, Y: 5}},
		Orientation: pipeline.Orientation(0),
	})
	require.NoError(t, err)
	return pts, rep
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#fff", color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{"1f77b4", color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}},
		{"#d6272880", color.NRGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0x80}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "#12", "#zzzzzz", "#1234567"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, bad)
	}

	c := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	back, err := ParseColor(FormatColor(c))
	require.NoError(t, err)
	assert.Equal(t, c, back)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	o := DefaultOptions()
	o.Width = 0
	assert.Error(t, o.Validate())

	o = DefaultOptions()
	o.Padding = 300
	assert.Error(t, o.Validate())

	o = DefaultOptions()
	o.GridStep = -1
	assert.Error(t, o.Validate())
}

func TestViewport(t *testing.T) {
	o := DefaultOptions()
	o.Width, o.Height, o.Padding = 200, 100, 10
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}

	vp := newViewport(pts, o)
	assert.InDelta(t, 8.0, vp.scale, 1e-12)

	x, y := vp.toPixel(geometry.Point{X: 0, Y: 0})
	assert.InDelta(t, 60.0, x, 1e-9)
	assert.InDelta(t, 90.0, y, 1e-9, "y-up puts the origin at the bottom")

	o.ScreenFrame = true
	vp = newViewport(pts, o)
	_, y = vp.toPixel(geometry.Point{X: 0, Y: 0})
	assert.InDelta(t, 10.0, y, 1e-9)

	// Degenerate extents still produce a finite scale.
	vp = newViewport([]geometry.Point{{X: 3, Y: 3}}, o)
	assert.False(t, vp.scale <= 0)
	vp = newViewport(nil, o)
	assert.InDelta(t, 80.0, vp.scale, 1e-12)
}

func TestNiceStep(t *testing.T) {
	assert.Equal(t, 1.0, niceStep(10))
	assert.Equal(t, 2.0, niceStep(20))
	assert.Equal(t, 5.0, niceStep(50))
	assert.Equal(t, 10.0, niceStep(90))
	assert.Equal(t, 1.0, niceStep(0))
}

func TestSceneFromReport(t *testing.T) {
	pts, rep := squareReport(t)
	s := SceneFromReport(pts, rep)

	assert.Equal(t, "square", s.Title)
	assert.Len(t, s.Hull, 4)
	assert.Len(t, s.Rectangle, 4)
	assert.Len(t, s.Queries, 2)
	assert.True(t, s.Queries[0].Inside)
	assert.Len(t, s.Notes, 2)

	empty := SceneFromReport(pts, nil)
	assert.Empty(t, empty.Hull)
	assert.Equal(t, pts, empty.Points)
}

func TestRender(t *testing.T) {
	pts, rep := squareReport(t)
	o := DefaultOptions()
	o.Width, o.Height = 200, 200
	o.Labels = false
	o.Grid = false

	img, err := Render(SceneFromReport(pts, rep), o)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 200), img.Bounds())

	// The corner lies in the padding, the centre under the translucent rectangle.
	assert.Equal(t, o.Background, img.NRGBAAt(1, 1))
	assert.NotEqual(t, o.Background, img.NRGBAAt(100, 100))

	o.Width = -1
	_, err = Render(Scene{}, o)
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	img, err := Render(Scene{Points: []geometry.Point{{X: 1, Y: 1}}}, DefaultOptions())
	require.NoError(t, err)

	for _, format := range []string{FormatPNG, FormatJPEG} {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, img, format))
		cfg, _, err := image.DecodeConfig(&buf)
		require.NoError(t, err, format)
		assert.Equal(t, 800, cfg.Width)
		assert.Equal(t, 600, cfg.Height)
	}

	assert.Error(t, Encode(&bytes.Buffer{}, img, FormatPDF))
}

func TestSave(t *testing.T) {
	pts, rep := squareReport(t)
	img, err := Render(SceneFromReport(pts, rep), DefaultOptions())
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"scene.png", "scene.jpg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(img, path))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	pdfPath := filepath.Join(dir, "scene.pdf")
	require.NoError(t, Save(img, pdfPath))
	pages, err := PageCount(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, 1, pages)

	assert.Error(t, Save(img, filepath.Join(dir, "scene.bmp")))
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("a.JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)

	_, err = FormatFromPath("a.gif")
	assert.Error(t, err)
}
