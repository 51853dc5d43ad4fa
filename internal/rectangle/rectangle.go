// Package rectangle finds the largest rectangle of a given orientation that
// fits inside a convex hull. The problem is solved as a convex program with a
// log-barrier interior point method and damped Newton steps.
package rectangle

import (
	"math"
	"slices"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
)

// Rectangle is a solved rectangle. Corners follow the solver contract
// p1, p2, p3, p4 = p2 + p3 - p1, where p1 is the anchor x, p2 = x+u and
// p3 = x+v. For orientation 0 the first two corners are swapped so the list
// traces the outline.
type Rectangle struct {
	Corners     [4]geometry.Point `json:"corners" yaml:"corners"`
	Orientation float64           `json:"orientation" yaml:"orientation"`
}

// Area returns the rectangle area.
func (r Rectangle) Area() float64 {
	c := r.Corners
	return math.Abs(geometry.Cross(c[1].Sub(c[0]), c[2].Sub(c[0])))
}

// Center returns the intersection of the diagonals.
func (r Rectangle) Center() geometry.Point {
	var sum geometry.Point
	for _, c := range r.Corners {
		sum = sum.Add(c)
	}
	return sum.Scale(0.25)
}

// Outline returns the corners in counter-clockwise drawing order.
func (r Rectangle) Outline() []geometry.Point {
	center := r.Center()
	out := slices.Clone(r.Corners[:])
	slices.SortFunc(out, func(a, b geometry.Point) int {
		aa := math.Atan2(a.Y-center.Y, a.X-center.X)
		ab := math.Atan2(b.Y-center.Y, b.X-center.X)
		switch {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		}
		return 0
	})
	return out
}

// Sides returns the lengths of the two edge directions.
func (r Rectangle) Sides() (float64, float64) {
	o := r.Outline()
	return geometry.Distance(o[0], o[1]), geometry.Distance(o[1], o[2])
}

// Stats describes how a solve progressed.
type Stats struct {
	OuterIterations  int           `json:"outer_iterations" yaml:"outer_iterations"`
	NewtonIterations int           `json:"newton_iterations" yaml:"newton_iterations"`
	FinalMu          float64       `json:"final_mu" yaml:"final_mu"`
	GapBound         float64       `json:"gap_bound" yaml:"gap_bound"`
	Duration         time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// Result bundles a rectangle with its solve statistics.
type Result struct {
	Rectangle Rectangle `json:"rectangle" yaml:"rectangle"`
	Stats     Stats     `json:"stats" yaml:"stats"`
}
