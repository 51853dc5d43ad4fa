// Package geometry provides the planar primitives, convex hull construction,
// half-plane representation and containment tests used by the rectangle solver.
//
// All routines assume a y-up coordinate frame. Callers working in screen
// coordinates (y grows downwards) must mirror their input first, see FlipY.
package geometry

import (
	"fmt"
	"math"
)

// Point is an immutable 2-D coordinate. Equality is exact.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// String implements fmt.Stringer.
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p scaled by k.
func (p Point) Scale(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Cross returns the 2-D cross product of v1 and v2. A positive value means v2
// is counter-clockwise from v1.
func Cross(v1, v2 Point) float64 {
	return v1.X*v2.Y - v1.Y*v2.X
}

// Turn returns the signed turn at p2 formed by the edges p1->p2 and p2->p3.
// Positive is a left (counter-clockwise) turn; zero or negative is not.
func Turn(p1, p2, p3 Point) float64 {
	return Cross(p2.Sub(p1), p3.Sub(p2))
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// DistanceSq returns the squared Euclidean distance between p and q.
func DistanceSq(p, q Point) float64 {
	dx, dy := q.X-p.X, q.Y-p.Y
	return dx*dx + dy*dy
}

// FlipY mirrors points across the x axis, converting between screen and
// y-up frames. The input slice is not modified.
func FlipY(pts []Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{X: p.X, Y: -p.Y}
	}
	return out
}
