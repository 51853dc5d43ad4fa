package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
)

func TestFixturesMatchHull(t *testing.T) {
	for _, f := range Fixtures() {
		t.Run(f.Name, func(t *testing.T) {
			hull, err := geometry.BuildHull(f.Points)
			if f.Degenerate {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, f.HullSize, hull.Len())
			assert.InDelta(t, f.HullArea, hull.Area(), 1e-9)
		})
	}
}

func TestWritePointFile(t *testing.T) {
	dir := CreateTempDir(t)
	for _, name := range []string{"sq.txt", "sq.json", "sub/sq.yaml"} {
		path := WritePointFile(t, dir, name, Square())
		set, err := pointset.LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, Square().Points, set.Points, name)
	}
}
