package geometry

import "math"

// Contains reports whether p lies inside the hull or on its boundary using the
// turn test: p is inside iff it is never strictly left of a clockwise edge.
func (h ConvexHull) Contains(p Point) bool {
	return ContainsTurn(h, p)
}

// ContainsTurn is the turn-based containment test.
func ContainsTurn(h ConvexHull, p Point) bool {
	n := h.Len()
	if n < 3 {
		return false
	}
	for i := range n {
		a, b := h.Edge(i)
		e, d := b.Sub(a), p.Sub(b)
		turn := Cross(e, d)
		scale := math.Abs(e.X*d.Y) + math.Abs(e.Y*d.X)
		if turn > containEps*scale {
			return false
		}
	}
	return true
}

// ContainsHalfPlane is the half-plane based containment test. It agrees with
// ContainsTurn away from rounding noise on the boundary.
func ContainsHalfPlane(h ConvexHull, p Point) bool {
	sys, err := HalfPlanes(h)
	if err != nil {
		return false
	}
	return sys.Contains(p)
}
