package pointset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
)

// Generator names accepted by Generate.
const (
	GenRandom  = "random"
	GenRegular = "regular"
	GenZigZag  = "zigzag"
)

// DefaultExtent is the coordinate range used by the benchmark generators.
const DefaultExtent = 100000

// NewRand returns a deterministic source for the generators.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Random returns n integer-valued points uniform in [0, extent)².
func Random(rng *rand.Rand, n int, extent int) []geometry.Point {
	pts := make([]geometry.Point, n)
	for i := range pts {
		pts[i] = geometry.Point{X: float64(rng.IntN(extent)), Y: float64(rng.IntN(extent))}
	}
	return pts
}

// RegularPolygon returns the n vertices of a regular polygon of the given
// radius centred on the origin, starting on the positive x axis.
func RegularPolygon(n int, radius float64) []geometry.Point {
	pts := make([]geometry.Point, n)
	for i := range pts {
		a := 2 * math.Pi / float64(n) * float64(i)
		pts[i] = geometry.Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return pts
}

// ZigZag returns n points whose x drifts right by one per point, with x
// jittered below the drift, while y alternately jumps up and down inside
// [0, extent). Most points end up on the hull, which stresses the solver.
func ZigZag(rng *rand.Rand, n int, extent int) []geometry.Point {
	pts := make([]geometry.Point, n)
	x, y := 0, 0
	for i := range pts {
		px := 0
		if x > 0 {
			px = rng.IntN(x)
		}
		pts[i] = geometry.Point{X: float64(px), Y: float64(y)}
		x++
		if i%2 == 0 {
			if room := extent - y; room > 0 {
				y += rng.IntN(room)
			}
		} else if y > 0 {
			y -= rng.IntN(y)
		}
	}
	return pts
}

// Generate dispatches to a generator by name.
func Generate(kind string, rng *rand.Rand, n int) ([]geometry.Point, error) {
	if n < 1 {
		return nil, fmt.Errorf("point count must be positive, got %d", n)
	}
	switch kind {
	case GenRandom:
		return Random(rng, n, DefaultExtent), nil
	case GenRegular:
		return RegularPolygon(n, DefaultExtent), nil
	case GenZigZag:
		return ZigZag(rng, n, DefaultExtent), nil
	default:
		return nil, fmt.Errorf("unknown generator %q (must be random, regular or zigzag)", kind)
	}
}
