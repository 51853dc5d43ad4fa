package geometry

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genPoint generates a random point.
func genPoint() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
	).Map(func(vals []interface{}) Point {
		return Point{X: vals[0].(float64), Y: vals[1].(float64)}
	})
}

// genGridPoint generates a point with small integer coordinates so that
// collinear and duplicate points are common.
func genGridPoint() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(-5, 5),
		gen.IntRange(-5, 5),
	).Map(func(vals []interface{}) Point {
		return Point{X: float64(vals[0].(int)), Y: float64(vals[1].(int))}
	})
}

func genPointSet(size int) gopter.Gen {
	return gen.SliceOfN(size, genPoint())
}

// TestBuildHull_VerticesAreInputPoints verifies the hull never invents points.
func TestBuildHull_VerticesAreInputPoints(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("hull vertices are a subset of the input", prop.ForAll(
		func(points []Point) bool {
			h, err := BuildHull(points)
			if err != nil {
				return true
			}
			for _, v := range h.Vertices() {
				if !slices.Contains(points, v) {
					return false
				}
			}
			return h.Len() >= 3
		},
		genPointSet(20),
	))

	properties.TestingRun(t)
}

// TestBuildHull_ContainsAllInputs verifies every input point is inside its hull.
func TestBuildHull_ContainsAllInputs(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every input point is contained", prop.ForAll(
		func(points []Point) bool {
			h, err := BuildHull(points)
			if err != nil {
				return true
			}
			for _, p := range points {
				if !ContainsTurn(h, p) || !ContainsHalfPlane(h, p) {
					return false
				}
			}
			return true
		},
		genPointSet(25),
	))

	properties.Property("grid points are contained", prop.ForAll(
		func(points []Point) bool {
			h, err := BuildHull(points)
			if err != nil {
				return true
			}
			for _, p := range points {
				if !h.Contains(p) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(15, genGridPoint()),
	))

	properties.TestingRun(t)
}

// TestBuildHull_OrderInvariant verifies that shuffling the input does not
// change the hull.
func TestBuildHull_OrderInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("hull is invariant under reordering", prop.ForAll(
		func(points []Point, seed int64) bool {
			h1, err1 := BuildHull(points)

			shuffled := slices.Clone(points)
			r := rand.New(rand.NewSource(seed))
			r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
			h2, err2 := BuildHull(shuffled)

			if (err1 == nil) != (err2 == nil) {
				return false
			}
			return err1 != nil || slices.Equal(h1.Vertices(), h2.Vertices())
		},
		gen.SliceOfN(12, genGridPoint()),
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// TestBuildHull_AgreesWithMonotone cross-checks the two hull algorithms on
// exact integer input.
func TestBuildHull_AgreesWithMonotone(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("graham and monotone chain agree", prop.ForAll(
		func(points []Point) bool {
			g, errG := BuildHull(points)
			m, errM := MonotoneHull(points)
			if (errG == nil) != (errM == nil) {
				return false
			}
			return errG != nil || slices.Equal(g.Vertices(), m.Vertices())
		},
		gen.SliceOfN(15, genGridPoint()),
	))

	properties.TestingRun(t)
}

// TestHalfPlanes_VerticesSatisfyOwnSystem verifies the hull satisfies its own
// constraint set.
func TestHalfPlanes_VerticesSatisfyOwnSystem(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every hull vertex satisfies every half-plane", prop.ForAll(
		func(points []Point) bool {
			h, err := BuildHull(points)
			if err != nil {
				return true
			}
			sys, err := HalfPlanes(h)
			if err != nil || len(sys) != h.Len() {
				return false
			}
			for _, v := range h.Vertices() {
				if !sys.Contains(v) {
					return false
				}
			}
			return sys.Contains(h.Centroid())
		},
		genPointSet(20),
	))

	properties.TestingRun(t)
}

// TestContainment_PredicatesAgree samples many query points per hull and
// requires both containment tests to give the same answer.
func TestContainment_PredicatesAgree(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("turn and half-plane containment agree", prop.ForAll(
		func(points []Point, seed int64) bool {
			h, err := BuildHull(points)
			if err != nil {
				return true
			}
			r := rand.New(rand.NewSource(seed))
			for range 1200 {
				q := Point{X: r.Float64()*260 - 130, Y: r.Float64()*260 - 130}
				if ContainsTurn(h, q) != ContainsHalfPlane(h, q) {
					return false
				}
			}
			return true
		},
		genPointSet(10),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
