package geometry

import (
	"fmt"
	"math"
)

// containEps is the relative slack granted to boundary points so that hull
// vertices satisfy their own constraints despite rounding.
const containEps = 1e-9

// HalfPlane is the closed region A·x + B·y ≤ C.
type HalfPlane struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// EdgeHalfPlane returns the half-plane to the right of the directed edge
// from->to, which is the interior side for a clockwise polygon.
func EdgeHalfPlane(from, to Point) HalfPlane {
	return HalfPlane{
		A: from.Y - to.Y,
		B: to.X - from.X,
		C: to.X*from.Y - from.X*to.Y,
	}
}

// Slack returns C - (A·p.X + B·p.Y). Non-negative slack means p is inside.
func (h HalfPlane) Slack(p Point) float64 {
	return h.C - (h.A*p.X + h.B*p.Y)
}

// Contains reports whether p satisfies the inequality, boundary included.
func (h HalfPlane) Contains(p Point) bool {
	ax, by := h.A*p.X, h.B*p.Y
	scale := math.Abs(ax) + math.Abs(by) + math.Abs(h.C)
	return ax+by-h.C <= containEps*scale
}

// Normal returns (A, B).
func (h HalfPlane) Normal() Point {
	return Point{X: h.A, Y: h.B}
}

// Normalized returns an equivalent half-plane with a unit normal, so Slack
// becomes the Euclidean distance to the boundary line. A zero normal is
// returned unchanged.
func (h HalfPlane) Normalized() HalfPlane {
	n := math.Hypot(h.A, h.B)
	if n == 0 {
		return h
	}
	return HalfPlane{A: h.A / n, B: h.B / n, C: h.C / n}
}

// Transformed rewrites the half-plane for coordinates q where p = origin + scale·q.
func (h HalfPlane) Transformed(origin Point, scale float64) HalfPlane {
	return HalfPlane{
		A: h.A * scale,
		B: h.B * scale,
		C: h.C - (h.A*origin.X + h.B*origin.Y),
	}
}

// String implements fmt.Stringer.
func (h HalfPlane) String() string {
	return fmt.Sprintf("%g·x + %g·y <= %g", h.A, h.B, h.C)
}

// HalfPlaneSystem is the ordered set of edge half-planes of a hull. Entry i
// belongs to the edge from vertex i to vertex i+1 mod n.
type HalfPlaneSystem []HalfPlane

// HalfPlanes converts a clockwise hull into its half-plane system.
func HalfPlanes(h ConvexHull) (HalfPlaneSystem, error) {
	n := h.Len()
	if n < 3 {
		return nil, fmt.Errorf("%w: hull has %d vertices", ErrDegenerateInput, n)
	}
	sys := make(HalfPlaneSystem, n)
	for i := range n {
		sys[i] = EdgeHalfPlane(h.Edge(i))
	}
	return sys, nil
}

// Contains reports whether p satisfies every inequality.
func (s HalfPlaneSystem) Contains(p Point) bool {
	for _, h := range s {
		if !h.Contains(p) {
			return false
		}
	}
	return true
}

// Normalized returns the system with unit normals.
func (s HalfPlaneSystem) Normalized() HalfPlaneSystem {
	out := make(HalfPlaneSystem, len(s))
	for i, h := range s {
		out[i] = h.Normalized()
	}
	return out
}

// MinSlack returns the smallest slack of p over all inequalities. For a
// normalized system this is the distance from p to the nearest edge line.
func (s HalfPlaneSystem) MinSlack(p Point) float64 {
	m := math.Inf(1)
	for _, h := range s {
		m = math.Min(m, h.Slack(p))
	}
	return m
}
