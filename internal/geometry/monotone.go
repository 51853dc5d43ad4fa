package geometry

import (
	"fmt"
	"math"
	"slices"
)

// MonotoneHull computes the convex hull using the monotone chain algorithm and
// returns it in the same canonical form as BuildHull (clockwise, pivot first).
func MonotoneHull(pts []Point) (ConvexHull, error) {
	if err := validatePoints(pts); err != nil {
		return ConvexHull{}, err
	}

	p := slices.Clone(pts)
	sortPoints(p)
	p = removeDuplicatePoints(p)
	if len(p) < 3 {
		return ConvexHull{}, fmt.Errorf("%w: fewer than 3 distinct points", ErrDegenerateInput)
	}

	lower := buildLowerHull(p)
	upper := buildUpperHull(p)
	// Concatenate lower and upper, dropping the duplicated endpoint of each.
	ccw := make([]Point, 0, len(lower)+len(upper)-2)
	ccw = append(ccw, lower[:len(lower)-1]...)
	ccw = append(ccw, upper[:len(upper)-1]...)
	if len(ccw) < 3 {
		return ConvexHull{}, fmt.Errorf("%w: all points are collinear", ErrDegenerateInput)
	}

	slices.Reverse(ccw)
	start := pivotIndex(ccw)
	return ConvexHull{vertices: slices.Concat(ccw[start:], ccw[:start])}, nil
}

func sortPoints(p []Point) {
	slices.SortFunc(p, func(a, b Point) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		}
		return 0
	})
}

func removeDuplicatePoints(p []Point) []Point {
	return slices.Compact(p)
}

func buildLowerHull(p []Point) []Point {
	lower := make([]Point, 0, len(p))
	for _, pt := range p {
		for len(lower) >= 2 && Turn(lower[len(lower)-2], lower[len(lower)-1], pt) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, pt)
	}
	return lower
}

func buildUpperHull(p []Point) []Point {
	upper := make([]Point, 0, len(p))
	for i := len(p) - 1; i >= 0; i-- {
		pt := p[i]
		for len(upper) >= 2 && Turn(upper[len(upper)-2], upper[len(upper)-1], pt) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, pt)
	}
	return upper
}

// MinimumBoundingRectangle returns the minimum-area enclosing rectangle of the
// hull using rotating calipers over its edges. Corners are counter-clockwise.
func (h ConvexHull) MinimumBoundingRectangle() []Point {
	if len(h.vertices) < 3 {
		return nil
	}
	hull := h.vertices
	bestArea := math.Inf(1)
	var bestU, bestV Point
	var bestMinS, bestMaxS, bestMinT, bestMaxT float64
	for i := range hull {
		a, b := h.Edge(i)
		d := b.Sub(a)
		l := math.Hypot(d.X, d.Y)
		if l == 0 {
			continue
		}
		u := d.Scale(1 / l)
		v := Point{X: -u.Y, Y: u.X}
		minS, maxS := math.Inf(1), math.Inf(-1)
		minT, maxT := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			s, t := p.Dot(u), p.Dot(v)
			minS, maxS = math.Min(minS, s), math.Max(maxS, s)
			minT, maxT = math.Min(minT, t), math.Max(maxT, t)
		}
		if area := (maxS - minS) * (maxT - minT); area < bestArea {
			bestArea = area
			bestU, bestV = u, v
			bestMinS, bestMaxS, bestMinT, bestMaxT = minS, maxS, minT, maxT
		}
	}
	corner := func(s, t float64) Point {
		return bestU.Scale(s).Add(bestV.Scale(t))
	}
	return []Point{
		corner(bestMinS, bestMinT),
		corner(bestMaxS, bestMinT),
		corner(bestMaxS, bestMaxT),
		corner(bestMinS, bestMaxT),
	}
}
