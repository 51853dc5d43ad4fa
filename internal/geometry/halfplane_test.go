package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalfPlanes_Square(t *testing.T) {
	h, err := BuildHull(squarePoints())
	require.NoError(t, err)

	sys, err := HalfPlanes(h)
	require.NoError(t, err)
	require.Len(t, sys, 4)

	// Top edge (0,10) -> (10,10) bounds y <= 10.
	assert.Equal(t, HalfPlane{A: 0, B: 10, C: 100}, sys[0])

	assert.True(t, sys.Contains(Point{X: 5, Y: 5}))
	assert.True(t, sys.Contains(Point{X: 0, Y: 5}), "boundary counts as inside")
	assert.True(t, sys.Contains(Point{X: 10, Y: 10}), "vertex counts as inside")
	assert.False(t, sys.Contains(Point{X: 10.001, Y: 5}))
	assert.False(t, sys.Contains(Point{X: 5, Y: -0.5}))
}

func TestHalfPlanes_EmptyHull(t *testing.T) {
	_, err := HalfPlanes(ConvexHull{})
	assert.ErrorIs(t, err, ErrDegenerateInput)
	assert.False(t, ContainsTurn(ConvexHull{}, Point{}))
	assert.False(t, ContainsHalfPlane(ConvexHull{}, Point{}))
}

func TestHalfPlane_Normalized(t *testing.T) {
	hp := EdgeHalfPlane(Point{X: 0, Y: 10}, Point{X: 10, Y: 10}).Normalized()
	assert.InDelta(t, 1.0, math.Hypot(hp.A, hp.B), 1e-15)
	// Slack of a normalized half-plane is the distance to the edge line.
	assert.InDelta(t, 4.0, hp.Slack(Point{X: 3, Y: 6}), 1e-12)

	zero := HalfPlane{C: 1}
	assert.Equal(t, zero, zero.Normalized())
}

func TestHalfPlane_Transformed(t *testing.T) {
	hp := EdgeHalfPlane(Point{X: 0, Y: 10}, Point{X: 10, Y: 10})
	origin := Point{X: 5, Y: 5}
	tr := hp.Transformed(origin, 2)

	for _, q := range []Point{{0, 0}, {1, 2}, {-3, 2.5}, {2, 3}} {
		p := origin.Add(q.Scale(2))
		assert.InDelta(t, hp.Slack(p), tr.Slack(q), 1e-12, "q=%v", q)
	}
}

func TestHalfPlaneSystem_MinSlack(t *testing.T) {
	h, err := BuildHull(squarePoints())
	require.NoError(t, err)
	sys, err := HalfPlanes(h)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, sys.Normalized().MinSlack(h.Centroid()), 1e-12)
	assert.InDelta(t, 2.0, sys.Normalized().MinSlack(Point{X: 2, Y: 7}), 1e-12)
}

func TestContainment_Triangle(t *testing.T) {
	h, err := BuildHull([]Point{{0, 0}, {6, 0}, {3, 6}})
	require.NoError(t, err)

	tests := []struct {
		p    Point
		want bool
	}{
		{Point{X: 3, Y: 2}, true},
		{Point{X: 3, Y: 0}, true},
		{Point{X: 1.5, Y: 3}, true},
		{Point{X: 3, Y: 6}, true},
		{Point{X: 0, Y: 3}, false},
		{Point{X: 3, Y: -1}, false},
		{Point{X: 7, Y: 0}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsTurn(h, tt.p), "turn %v", tt.p)
		assert.Equal(t, tt.want, ContainsHalfPlane(h, tt.p), "half-plane %v", tt.p)
	}
}

func TestPointOps(t *testing.T) {
	p, q := Point{X: 1, Y: 2}, Point{X: 4, Y: 6}
	assert.Equal(t, Point{X: 5, Y: 8}, p.Add(q))
	assert.Equal(t, Point{X: 3, Y: 4}, q.Sub(p))
	assert.Equal(t, Point{X: 2, Y: 4}, p.Scale(2))
	assert.Equal(t, 16.0, p.Dot(q))
	assert.Equal(t, 5.0, Distance(p, q))
	assert.Equal(t, 25.0, DistanceSq(p, q))
	assert.Equal(t, -2.0, Cross(p, q))
	assert.Greater(t, Turn(Point{}, Point{X: 1}, Point{X: 1, Y: 1}), 0.0)
	assert.Equal(t, []Point{{1, -2}}, FlipY([]Point{p}))
	assert.Equal(t, "(1, 2)", p.String())
	assert.False(t, Point{X: math.NaN()}.IsFinite())
}
