package geometry

import (
	"fmt"
	"math"
	"slices"
	"sort"
)

// angleEps is the tolerance under which two polar angles are considered equal.
const angleEps = 1e-9

// Algorithm selects the hull construction method.
type Algorithm string

const (
	// AlgorithmGraham is the polar-angle Graham scan around the top-left pivot.
	AlgorithmGraham Algorithm = "graham"
	// AlgorithmMonotone is Andrew's monotone chain.
	AlgorithmMonotone Algorithm = "monotone"
)

// ParseAlgorithm validates an algorithm name. The empty string selects Graham.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", AlgorithmGraham:
		return AlgorithmGraham, nil
	case AlgorithmMonotone:
		return AlgorithmMonotone, nil
	default:
		return "", fmt.Errorf("unknown hull algorithm %q (must be graham or monotone)", name)
	}
}

// ConvexHull is a clockwise convex polygon (y-up frame) whose first vertex is
// the pivot: the point with maximum Y, ties broken by minimum X. No three
// consecutive vertices are collinear. A ConvexHull is never modified after
// construction.
type ConvexHull struct {
	vertices []Point
}

// Vertices returns a copy of the hull vertices in clockwise order.
func (h ConvexHull) Vertices() []Point {
	return slices.Clone(h.vertices)
}

// CounterClockwise returns a copy of the vertices in counter-clockwise order,
// still starting at the pivot.
func (h ConvexHull) CounterClockwise() []Point {
	if len(h.vertices) == 0 {
		return nil
	}
	out := make([]Point, 0, len(h.vertices))
	out = append(out, h.vertices[0])
	for i := len(h.vertices) - 1; i > 0; i-- {
		out = append(out, h.vertices[i])
	}
	return out
}

// Len returns the number of hull vertices.
func (h ConvexHull) Len() int {
	return len(h.vertices)
}

// Vertex returns vertex i.
func (h ConvexHull) Vertex(i int) Point {
	return h.vertices[i]
}

// Edge returns the endpoints of edge i, from vertex i to vertex i+1 mod n.
func (h ConvexHull) Edge(i int) (Point, Point) {
	n := len(h.vertices)
	return h.vertices[i], h.vertices[(i+1)%n]
}

// Area returns the enclosed area.
func (h ConvexHull) Area() float64 {
	return math.Abs(signedArea(h.vertices))
}

// Centroid returns the area centroid of the hull polygon.
func (h ConvexHull) Centroid() Point {
	return polygonCentroid(h.vertices)
}

// IsEmpty reports whether the hull holds no vertices (the zero value).
func (h ConvexHull) IsEmpty() bool {
	return len(h.vertices) == 0
}

// NewConvexHull validates a caller-supplied convex polygon and returns it in
// canonical form: clockwise, starting at the pivot. Counter-clockwise input is
// accepted and reversed. Collinear or reflex vertices are rejected.
func NewConvexHull(vertices []Point) (ConvexHull, error) {
	if len(vertices) < 3 {
		return ConvexHull{}, fmt.Errorf("%w: hull needs at least 3 vertices, got %d", ErrDegenerateInput, len(vertices))
	}
	for _, p := range vertices {
		if !p.IsFinite() {
			return ConvexHull{}, fmt.Errorf("%w: non-finite vertex %v", ErrDegenerateInput, p)
		}
	}
	v := slices.Clone(vertices)
	if signedArea(v) > 0 {
		slices.Reverse(v)
	}
	n := len(v)
	for i := range n {
		if Turn(v[i], v[(i+1)%n], v[(i+2)%n]) >= 0 {
			return ConvexHull{}, fmt.Errorf("%w: vertices %d..%d are not strictly convex", ErrDegenerateInput, i, (i+2)%n)
		}
	}
	p := pivotIndex(v)
	return ConvexHull{vertices: slices.Concat(v[p:], v[:p])}, nil
}

// BuildHull computes the convex hull of pts with the Graham scan.
func BuildHull(pts []Point) (ConvexHull, error) {
	return WalkHull(pts, nil)
}

// BuildHullWith computes the convex hull with the selected algorithm. Both
// algorithms return the same canonical vertex sequence.
func BuildHullWith(alg Algorithm, pts []Point) (ConvexHull, error) {
	switch alg {
	case "", AlgorithmGraham:
		return BuildHull(pts)
	case AlgorithmMonotone:
		return MonotoneHull(pts)
	default:
		return ConvexHull{}, fmt.Errorf("unknown hull algorithm %q", alg)
	}
}

// WalkHull runs the Graham scan and calls step with a snapshot of the scan
// stack (bottom to top, counter-clockwise) after every push. A non-nil error
// from step aborts the scan and is returned. step may be nil.
func WalkHull(pts []Point, step func(stack []Point) error) (ConvexHull, error) {
	if err := validatePoints(pts); err != nil {
		return ConvexHull{}, err
	}

	pivot := pts[pivotIndex(pts)]
	candidates := sortByAngle(pts, pivot)

	emit := func(stack []Point) error {
		if step == nil {
			return nil
		}
		return step(slices.Clone(stack))
	}

	stack := make([]Point, 0, len(candidates)+1)
	for _, c := range candidates {
		for len(stack) >= 2 && Turn(stack[len(stack)-2], stack[len(stack)-1], c) <= 0 {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, c)
		if err := emit(stack); err != nil {
			return ConvexHull{}, err
		}
	}

	// Close against the pivot; this also drops the pivot itself when it was
	// the last candidate.
	for len(stack) >= 2 && Turn(stack[len(stack)-2], stack[len(stack)-1], pivot) <= 0 {
		stack = stack[:len(stack)-1]
	}
	stack = append(stack, pivot)
	if err := emit(stack); err != nil {
		return ConvexHull{}, err
	}

	if len(stack) < 3 {
		return ConvexHull{}, fmt.Errorf("%w: all points are collinear or coincident", ErrDegenerateInput)
	}

	slices.Reverse(stack)
	return ConvexHull{vertices: stack}, nil
}

// HullSteps returns every intermediate scan stack produced while building the
// hull of pts, in order. The final entry is the closed stack including the
// pivot.
func HullSteps(pts []Point) ([][]Point, error) {
	var steps [][]Point
	_, err := WalkHull(pts, func(stack []Point) error {
		steps = append(steps, stack)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func validatePoints(pts []Point) error {
	if len(pts) < 3 {
		return fmt.Errorf("%w: need at least 3 points, got %d", ErrDegenerateInput, len(pts))
	}
	for i, p := range pts {
		if !p.IsFinite() {
			return fmt.Errorf("%w: point %d is not finite", ErrDegenerateInput, i)
		}
	}
	return nil
}

// pivotIndex returns the index of the point with maximum Y, then minimum X.
func pivotIndex(pts []Point) int {
	best := 0
	for i := 1; i < len(pts); i++ {
		p, b := pts[i], pts[best]
		if p.Y > b.Y || (p.Y == b.Y && p.X < b.X) {
			best = i
		}
	}
	return best
}

type angularKey struct {
	point  Point
	angle  float64
	distSq float64
}

// sortByAngle orders pts by polar angle around pivot and keeps, for every
// group of equal angles, only the point farthest from the pivot.
func sortByAngle(pts []Point, pivot Point) []Point {
	keys := make([]angularKey, len(pts))
	for i, p := range pts {
		a := math.Atan2(p.Y-pivot.Y, p.X-pivot.X)
		if a < 0 {
			a += 2 * math.Pi
		}
		// The pivot's own direction must sort last.
		if a < angleEps {
			a += 2 * math.Pi
		}
		keys[i] = angularKey{point: p, angle: a, distSq: DistanceSq(pivot, p)}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].angle < keys[j].angle })

	candidates := make([]Point, 0, len(keys))
	for i := 0; i < len(keys); {
		best := i
		j := i
		for j < len(keys) && math.Abs(keys[j].angle-keys[i].angle) <= angleEps {
			if keys[j].distSq > keys[best].distSq {
				best = j
			}
			j++
		}
		candidates = append(candidates, keys[best].point)
		i = j
	}
	return candidates
}

// signedArea returns the shoelace area, positive for counter-clockwise input.
func signedArea(pts []Point) float64 {
	var s float64
	n := len(pts)
	for i := range n {
		a, b := pts[i], pts[(i+1)%n]
		s += a.X*b.Y - b.X*a.Y
	}
	return s / 2
}

func polygonCentroid(pts []Point) Point {
	n := len(pts)
	if n == 0 {
		return Point{}
	}
	var cx, cy, a float64
	for i := range n {
		p, q := pts[i], pts[(i+1)%n]
		w := p.X*q.Y - q.X*p.Y
		a += w
		cx += (p.X + q.X) * w
		cy += (p.Y + q.Y) * w
	}
	if a == 0 {
		// Degenerate polygon: fall back to the vertex average.
		for _, p := range pts {
			cx += p.X
			cy += p.Y
		}
		return Point{X: cx / float64(n), Y: cy / float64(n)}
	}
	return Point{X: cx / (3 * a), Y: cy / (3 * a)}
}
