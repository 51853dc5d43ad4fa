package config

import (
	"testing"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
	"github.com/MeKo-Tech/hullrect/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const infoLevel = "info"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, infoLevel, cfg.LogLevel)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, "graham", cfg.Hull.Algorithm)
	assert.Equal(t, pipeline.FormatText, cfg.Output.Format)
	assert.Equal(t, 5000, cfg.Solver.TimeoutMS)
	assert.Zero(t, cfg.Solver.Orientation)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.False(t, cfg.Server.RateLimit.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"output format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"algorithm", func(c *Config) { c.Hull.Algorithm = "quickhull" }, "unknown hull algorithm"},
		{"mu factor", func(c *Config) { c.Solver.MuFactor = 1.5 }, "invalid solver settings"},
		{"newton iterations", func(c *Config) { c.Solver.MaxNewtonIterations = 0 }, "invalid solver settings"},
		{"negative timeout", func(c *Config) { c.Solver.TimeoutMS = -1 }, "invalid solver settings"},
		{"color", func(c *Config) { c.Render.HullColor = "#nothex" }, "hull_color"},
		{"canvas", func(c *Config) { c.Render.Width = 0 }, "invalid render settings"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "invalid server port"},
		{"max points", func(c *Config) { c.Server.MaxPoints = 0 }, "invalid max points"},
		{"body size", func(c *Config) { c.Server.MaxBodyMB = -1 }, "invalid max body size"},
		{"timeout", func(c *Config) { c.Server.TimeoutSec = 0 }, "invalid timeout"},
		{"rate limit", func(c *Config) {
			c.Server.RateLimit.Enabled = true
			c.Server.RateLimit.RequestsPerMinute = 0
		}, "invalid rate limit"},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }, "invalid batch workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateAcceptsEmptyFormatAndAlgorithm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = ""
	cfg.Hull.Algorithm = ""
	assert.NoError(t, cfg.Validate())
}

func TestToSolverConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, rectangle.DefaultConfig(), cfg.ToSolverConfig())

	cfg.Solver.TimeoutMS = 250
	cfg.Solver.MaxOuterIterations = 7
	sc := cfg.ToSolverConfig()
	assert.Equal(t, 250*time.Millisecond, sc.Timeout)
	assert.Equal(t, 7, sc.MaxOuterIterations)
}

func TestToPipelineConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hull.Algorithm = "monotone"
	cfg.Hull.FlipY = true
	cfg.Hull.BoundingBox = true
	cfg.Batch.Workers = 3

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, geometry.AlgorithmMonotone, pc.Algorithm)
	assert.True(t, pc.FlipY)
	assert.True(t, pc.BoundingBoxes)
	assert.Equal(t, 3, pc.Parallel.MaxWorkers)
	assert.Equal(t, cfg.ToSolverConfig(), pc.Solver)

	cfg.Hull.Algorithm = ""
	assert.Equal(t, geometry.AlgorithmGraham, cfg.ToPipelineConfig().Algorithm)

	_, err := pipeline.NewBuilder().WithConfig(cfg.ToPipelineConfig()).Build()
	assert.NoError(t, err)
}

func TestToRenderOptions(t *testing.T) {
	cfg := DefaultConfig()
	o, err := cfg.ToRenderOptions()
	require.NoError(t, err)
	def := render.DefaultOptions()
	assert.Equal(t, def.HullColor, o.HullColor)
	assert.Equal(t, def.Width, o.Width)
	assert.False(t, o.ScreenFrame)

	cfg.Render.RectangleColor = "#00ff00"
	cfg.Render.Background = ""
	cfg.Hull.FlipY = true
	o, err = cfg.ToRenderOptions()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), o.RectangleColor.G)
	assert.Equal(t, def.Background, o.Background, "empty colors keep the default")
	assert.True(t, o.ScreenFrame)
}

func TestServerAddress(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:8080", cfg.ServerAddress())
}
