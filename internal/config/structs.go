//nolint:lll
package config

// Config represents the complete configuration for the hullrect tool.
// It includes settings for all commands (hull, contains, rect, render, batch,
// bench, serve) and supports loading from configuration files, environment
// variables, and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Rectangle solver
	Solver SolverConfig `mapstructure:"solver" yaml:"solver" json:"solver"`

	// Hull construction
	Hull HullConfig `mapstructure:"hull" yaml:"hull" json:"hull"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Image rendering
	Render RenderConfig `mapstructure:"render" yaml:"render" json:"render"`

	// Server configuration (for serve command)
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// SolverConfig contains log-barrier solver settings.
type SolverConfig struct {
	InitialMu           float64 `mapstructure:"initial_mu" yaml:"initial_mu" json:"initial_mu"`
	MuFactor            float64 `mapstructure:"mu_factor" yaml:"mu_factor" json:"mu_factor"`
	Tolerance           float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
	NewtonTolerance     float64 `mapstructure:"newton_tolerance" yaml:"newton_tolerance" json:"newton_tolerance"`
	MaxNewtonIterations int     `mapstructure:"max_newton_iterations" yaml:"max_newton_iterations" json:"max_newton_iterations"`
	MaxOuterIterations  int     `mapstructure:"max_outer_iterations" yaml:"max_outer_iterations" json:"max_outer_iterations"`
	TimeoutMS           int     `mapstructure:"timeout_ms" yaml:"timeout_ms" json:"timeout_ms"`
	Orientation         float64 `mapstructure:"orientation" yaml:"orientation" json:"orientation"`
}

// HullConfig contains hull construction settings.
type HullConfig struct {
	Algorithm   string `mapstructure:"algorithm" yaml:"algorithm" json:"algorithm"`
	FlipY       bool   `mapstructure:"flip_y" yaml:"flip_y" json:"flip_y"`
	BoundingBox bool   `mapstructure:"bounding_box" yaml:"bounding_box" json:"bounding_box"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// RenderConfig contains canvas and color settings.
type RenderConfig struct {
	Width          int     `mapstructure:"width" yaml:"width" json:"width"`
	Height         int     `mapstructure:"height" yaml:"height" json:"height"`
	Padding        int     `mapstructure:"padding" yaml:"padding" json:"padding"`
	Grid           bool    `mapstructure:"grid" yaml:"grid" json:"grid"`
	GridStep       float64 `mapstructure:"grid_step" yaml:"grid_step" json:"grid_step"`
	Labels         bool    `mapstructure:"labels" yaml:"labels" json:"labels"`
	PointRadius    float64 `mapstructure:"point_radius" yaml:"point_radius" json:"point_radius"`
	LineWidth      float64 `mapstructure:"line_width" yaml:"line_width" json:"line_width"`
	Background     string  `mapstructure:"background" yaml:"background" json:"background"`
	PointColor     string  `mapstructure:"point_color" yaml:"point_color" json:"point_color"`
	HullColor      string  `mapstructure:"hull_color" yaml:"hull_color" json:"hull_color"`
	RectangleColor string  `mapstructure:"rectangle_color" yaml:"rectangle_color" json:"rectangle_color"`
	GridColor      string  `mapstructure:"grid_color" yaml:"grid_color" json:"grid_color"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxPoints       int             `mapstructure:"max_points" yaml:"max_points" json:"max_points"`
	MaxBodyMB       int             `mapstructure:"max_body_mb" yaml:"max_body_mb" json:"max_body_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig contains per-client request limits.
type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int  `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int  `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int  `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int      `mapstructure:"workers" yaml:"workers" json:"workers"`
	Recursive       bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include         []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude         []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	ContinueOnError bool     `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	RenderDir       string   `mapstructure:"render_dir" yaml:"render_dir" json:"render_dir"`
}
