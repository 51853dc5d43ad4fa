package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
)

// Fixture is a point set with hand-computed expectations.
type Fixture struct {
	Name          string
	Points        []geometry.Point
	HullSize      int     // vertices of the convex hull
	HullArea      float64 // area of the convex hull
	RectangleArea float64 // largest inscribed rectangle at orientation 0
	Degenerate    bool    // hull construction fails
}

// Square is a 10x10 square with one interior point.
func Square() Fixture {
	return Fixture{
		Name:          "square",
		Points:        []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 4, Y: 6}},
		HullSize:      4,
		HullArea:      100,
		RectangleArea: 100,
	}
}

// Triangle is the right triangle with legs of length 4.
func Triangle() Fixture {
	return Fixture{
		Name:          "triangle",
		Points:        []geometry.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 4}, {X: 1, Y: 1}},
		HullSize:      3,
		HullArea:      8,
		RectangleArea: 4,
	}
}

// Diamond is the unit diamond; its best axis-aligned rectangle is the
// inner square of area 1.
func Diamond() Fixture {
	return Fixture{
		Name:          "diamond",
		Points:        []geometry.Point{{X: 0, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: -1}, {X: -1, Y: 0}},
		HullSize:      4,
		HullArea:      2,
		RectangleArea: 1,
	}
}

// Collinear has no interior.
func Collinear() Fixture {
	return Fixture{
		Name:       "collinear",
		Points:     []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}},
		Degenerate: true,
	}
}

// Fixtures returns every fixture.
func Fixtures() []Fixture {
	return []Fixture{Square(), Triangle(), Diamond(), Collinear()}
}

// WritePointFile saves the fixture below dir as name, in the format the
// extension selects, and returns the path.
func WritePointFile(t *testing.T, dir, name string, f Fixture) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, pointset.SaveFile(path, &pointset.Set{Points: f.Points}))
	return path
}
