package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/pipeline"
	"github.com/MeKo-Tech/hullrect/internal/render"
)

// Config holds all configuration for batch processing.
type Config struct {
	// Geometry settings
	Pipeline    pipeline.Config
	Orientation *float64 // solve files that carry no orientation of their own (nil = hull only)

	// Output settings
	Format     string
	OutputFile string

	// Rendering settings
	RenderDir     string // write one PNG per file when set
	RenderOptions render.Options

	// Parallel processing settings
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Progress settings
	ShowProgress     bool
	Quiet            bool
	ShowStats        bool
	ProgressInterval time.Duration
}

// DefaultConfig returns the batch defaults.
func DefaultConfig() *Config {
	return &Config{
		Pipeline:         pipeline.DefaultConfig(),
		Format:           pipeline.FormatText,
		RenderOptions:    render.DefaultOptions(),
		Workers:          4,
		IncludePatterns:  []string{"*.txt", "*.json", "*.yaml", "*.yml"},
		ProgressInterval: 100 * time.Millisecond,
	}
}

// Validate checks the settings that the pipeline does not validate itself.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("batch config is nil")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	switch c.Format {
	case "", pipeline.FormatText, pipeline.FormatJSON, pipeline.FormatYAML, pipeline.FormatCSV:
	default:
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
	if c.RenderDir != "" {
		if err := c.RenderOptions.Validate(); err != nil {
			return fmt.Errorf("render options: %w", err)
		}
	}
	return nil
}
