package pipeline

import (
	"context"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
)

// BuildHull returns the clockwise convex hull of points, starting at the
// pivot (largest y, then smallest x).
func BuildHull(points []geometry.Point) (geometry.ConvexHull, error) {
	return geometry.BuildHull(points)
}

// TestContainment reports whether p lies inside or on the boundary of hull.
func TestContainment(hull geometry.ConvexHull, p geometry.Point) bool {
	return hull.Contains(p)
}

// SolveMaxInscribedRectangle returns the largest rectangle with edge
// directions (1, orientation) and (-orientation, 1) whose corners lie in hull.
func SolveMaxInscribedRectangle(hull geometry.ConvexHull, orientation float64) (rectangle.Rectangle, error) {
	return rectangle.Solve(context.Background(), hull, orientation)
}
