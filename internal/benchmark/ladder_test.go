package benchmark

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/hullrect/internal/pointset"
)

func smallLadder() LadderConfig {
	cfg := DefaultLadderConfig()
	cfg.Steps = 3
	return cfg
}

func TestLadderSizes(t *testing.T) {
	assert.Equal(t, []int{5, 50, 500, 5000, 50000, 500000}, DefaultLadderConfig().Sizes())
	assert.Equal(t, []int{5, 50, 500}, smallLadder().Sizes())
}

func TestLadderValidate(t *testing.T) {
	require.NoError(t, DefaultLadderConfig().Validate())

	cfg := smallLadder()
	cfg.Generators = nil
	assert.Error(t, cfg.Validate())

	cfg = smallLadder()
	cfg.Start = 2
	assert.Error(t, cfg.Validate())

	cfg = smallLadder()
	cfg.Factor = 1
	assert.Error(t, cfg.Validate())

	cfg = smallLadder()
	cfg.Steps = 0
	assert.Error(t, cfg.Validate())

	cfg = smallLadder()
	cfg.Algorithm = "quickhull"
	assert.Error(t, cfg.Validate())

	cfg = smallLadder()
	cfg.Solver.MuFactor = 0
	assert.Error(t, cfg.Validate())
}

func TestRunLadder(t *testing.T) {
	cfg := smallLadder()
	cfg.Generators = []string{pointset.GenRandom, pointset.GenRegular}
	var seen int
	results, err := RunLadder(context.Background(), cfg, func(LadderResult) { seen++ })
	require.NoError(t, err)
	require.Len(t, results, 6)
	assert.Equal(t, 6, seen)

	for _, r := range results {
		require.Empty(t, r.Error, "%s/%d", r.Generator, r.Points)
		assert.GreaterOrEqual(t, r.HullVertices, 3)
		assert.LessOrEqual(t, r.HullVertices, r.Points)
		assert.Positive(t, r.Area)
		assert.Greater(t, r.FillRatio, 0.0)
		assert.LessOrEqual(t, r.FillRatio, 1.0+1e-9)
	}

	// A regular polygon keeps every vertex on its hull.
	for _, r := range results {
		if r.Generator == pointset.GenRegular {
			assert.Equal(t, r.Points, r.HullVertices)
		}
	}
}

func TestRunLadderZigZag(t *testing.T) {
	cfg := smallLadder()
	cfg.Generators = []string{pointset.GenZigZag}
	results, err := RunLadder(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	// The five-point rung may collapse onto a line; larger rungs never do.
	for _, r := range results[1:] {
		require.Empty(t, r.Error, "%d points", r.Points)
		assert.Positive(t, r.Area)
	}
}

func TestRunLadderReproducible(t *testing.T) {
	cfg := smallLadder()
	cfg.Generators = []string{pointset.GenRandom}
	a, err := RunLadder(context.Background(), cfg, nil)
	require.NoError(t, err)
	b, err := RunLadder(context.Background(), cfg, nil)
	require.NoError(t, err)
	for i := range a {
		assert.Equal(t, a[i].HullVertices, b[i].HullVertices)
		assert.InDelta(t, a[i].Area, b[i].Area, 1e-6*a[i].Area)
	}
}

func TestRunLadderRecordsFailures(t *testing.T) {
	cfg := smallLadder()
	cfg.Generators = []string{"spiral"}
	results, err := RunLadder(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Contains(t, results[0].Error, "unknown generator")
}

func TestRunLadderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := RunLadder(ctx, smallLadder(), nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestWriteLadder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLadder(&buf, []LadderResult{
		{Generator: "random", Points: 50000, HullVertices: 20, FillRatio: 0.5},
		{Generator: "zigzag", Points: 5, Error: "boom"},
	}))
	out := buf.String()
	assert.Contains(t, out, "generator")
	assert.Contains(t, out, "50,000")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "error: boom")
}
