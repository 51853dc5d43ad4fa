package config

import (
	"fmt"
	"image/color"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
	"github.com/MeKo-Tech/hullrect/internal/render"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	solver := rectangle.DefaultConfig()
	ro := render.DefaultOptions()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Solver: SolverConfig{
			InitialMu:           solver.InitialMu,
			MuFactor:            solver.MuFactor,
			Tolerance:           solver.Tolerance,
			NewtonTolerance:     solver.NewtonTolerance,
			MaxNewtonIterations: solver.MaxNewtonIterations,
			MaxOuterIterations:  solver.MaxOuterIterations,
			TimeoutMS:           int(solver.Timeout / time.Millisecond),
			Orientation:         0,
		},
		Hull: HullConfig{
			Algorithm: string(geometry.AlgorithmGraham),
		},
		Output: OutputConfig{
			Format: pipeline.FormatText,
		},
		Render: RenderConfig{
			Width:          ro.Width,
			Height:         ro.Height,
			Padding:        ro.Padding,
			Grid:           ro.Grid,
			Labels:         ro.Labels,
			PointRadius:    ro.PointRadius,
			LineWidth:      ro.LineWidth,
			Background:     render.FormatColor(ro.Background),
			PointColor:     render.FormatColor(ro.PointColor),
			HullColor:      render.FormatColor(ro.HullColor),
			RectangleColor: render.FormatColor(ro.RectangleColor),
			GridColor:      render.FormatColor(ro.GridColor),
		},
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			CORSOrigin:      "*",
			MaxPoints:       100000,
			MaxBodyMB:       16,
			TimeoutSec:      30,
			ShutdownTimeout: 10,
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerMinute: 120,
				RequestsPerHour:   3000,
				MaxRequestsPerDay: 20000,
				MaxDataPerDayMB:   512,
			},
		},
		Batch: BatchConfig{
			Workers:         4,
			Include:         []string{"*.txt", "*.json", "*.yaml", "*.yml"},
			ContinueOnError: false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	validFormats := []string{pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatYAML, pipeline.FormatCSV}
	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}

	if _, err := geometry.ParseAlgorithm(c.Hull.Algorithm); err != nil {
		return err
	}
	if err := c.ToSolverConfig().Validate(); err != nil {
		return fmt.Errorf("invalid solver settings: %w", err)
	}
	if _, err := c.ToRenderOptions(); err != nil {
		return fmt.Errorf("invalid render settings: %w", err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be between 1 and 65535)", c.Server.Port)
	}
	if c.Server.MaxPoints <= 0 {
		return fmt.Errorf("invalid max points: %d (must be positive)", c.Server.MaxPoints)
	}
	if c.Server.MaxBodyMB <= 0 {
		return fmt.Errorf("invalid max body size: %d (must be positive)", c.Server.MaxBodyMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("invalid timeout: %d (must be positive)", c.Server.TimeoutSec)
	}
	if rl := c.Server.RateLimit; rl.Enabled && (rl.RequestsPerMinute <= 0 || rl.RequestsPerHour <= 0) {
		return fmt.Errorf("invalid rate limit: %d/min, %d/h (must be positive when enabled)", rl.RequestsPerMinute, rl.RequestsPerHour)
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("invalid batch workers: %d (must be positive)", c.Batch.Workers)
	}
	return nil
}

// ToSolverConfig converts the solver section to the rectangle solver format.
func (c *Config) ToSolverConfig() rectangle.Config {
	return rectangle.Config{
		InitialMu:           c.Solver.InitialMu,
		MuFactor:            c.Solver.MuFactor,
		Tolerance:           c.Solver.Tolerance,
		NewtonTolerance:     c.Solver.NewtonTolerance,
		MaxNewtonIterations: c.Solver.MaxNewtonIterations,
		MaxOuterIterations:  c.Solver.MaxOuterIterations,
		Timeout:             time.Duration(c.Solver.TimeoutMS) * time.Millisecond,
	}
}

// ToPipelineConfig converts the config to the internal pipeline configuration format.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Algorithm = geometry.Algorithm(c.Hull.Algorithm)
	if cfg.Algorithm == "" {
		cfg.Algorithm = geometry.AlgorithmGraham
	}
	cfg.FlipY = c.Hull.FlipY
	cfg.BoundingBoxes = c.Hull.BoundingBox
	cfg.Solver = c.ToSolverConfig()
	if c.Batch.Workers > 0 {
		cfg.Parallel.MaxWorkers = c.Batch.Workers
	}
	return cfg
}

// ToRenderOptions converts the render section, parsing its colors.
func (c *Config) ToRenderOptions() (render.Options, error) {
	o := render.DefaultOptions()
	o.Width = c.Render.Width
	o.Height = c.Render.Height
	o.Padding = c.Render.Padding
	o.Grid = c.Render.Grid
	o.GridStep = c.Render.GridStep
	o.Labels = c.Render.Labels
	o.ScreenFrame = c.Hull.FlipY
	if c.Render.PointRadius > 0 {
		o.PointRadius = c.Render.PointRadius
	}
	if c.Render.LineWidth > 0 {
		o.LineWidth = c.Render.LineWidth
	}

	colors := []struct {
		name  string
		value string
		dst   *color.NRGBA
	}{
		{"background", c.Render.Background, &o.Background},
		{"point_color", c.Render.PointColor, &o.PointColor},
		{"hull_color", c.Render.HullColor, &o.HullColor},
		{"rectangle_color", c.Render.RectangleColor, &o.RectangleColor},
		{"grid_color", c.Render.GridColor, &o.GridColor},
	}
	for _, col := range colors {
		if col.value == "" {
			continue
		}
		parsed, err := render.ParseColor(col.value)
		if err != nil {
			return render.Options{}, fmt.Errorf("%s: %w", col.name, err)
		}
		*col.dst = parsed
	}

	if err := o.Validate(); err != nil {
		return render.Options{}, err
	}
	return o, nil
}

// ServerAddress returns host:port.
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
