package rectangle

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the tuning constants of the barrier solver.
type Config struct {
	InitialMu           float64       // barrier weight of the first centering step
	MuFactor            float64       // multiplier applied to mu after every centering step (0-1)
	Tolerance           float64       // stop once the duality gap bound (terms * mu) drops below this
	NewtonTolerance     float64       // Newton stops when half the squared decrement is below this
	MaxNewtonIterations int           // Newton iterations allowed per centering step
	MaxOuterIterations  int           // centering steps allowed before giving up
	Timeout             time.Duration // wall-clock budget for one solve (0 = unbounded)
}

// DefaultConfig returns sensible defaults for the solver.
func DefaultConfig() Config {
	return Config{
		InitialMu:           1.0,
		MuFactor:            0.1,
		Tolerance:           1e-8,
		NewtonTolerance:     1e-10,
		MaxNewtonIterations: 100,
		MaxOuterIterations:  50,
		Timeout:             5 * time.Second,
	}
}

// Validate checks that the configuration can drive a solve.
func (c Config) Validate() error {
	var errs []error
	if !(c.InitialMu > 0) {
		errs = append(errs, fmt.Errorf("initial mu must be positive, got %g", c.InitialMu))
	}
	if !(c.MuFactor > 0 && c.MuFactor < 1) {
		errs = append(errs, fmt.Errorf("mu factor must be in (0, 1), got %g", c.MuFactor))
	}
	if !(c.Tolerance > 0) {
		errs = append(errs, fmt.Errorf("tolerance must be positive, got %g", c.Tolerance))
	}
	if !(c.NewtonTolerance > 0) {
		errs = append(errs, fmt.Errorf("newton tolerance must be positive, got %g", c.NewtonTolerance))
	}
	if c.MaxNewtonIterations < 1 {
		errs = append(errs, fmt.Errorf("max newton iterations must be at least 1, got %d", c.MaxNewtonIterations))
	}
	if c.MaxOuterIterations < 1 {
		errs = append(errs, fmt.Errorf("max outer iterations must be at least 1, got %d", c.MaxOuterIterations))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	return errors.Join(errs...)
}
