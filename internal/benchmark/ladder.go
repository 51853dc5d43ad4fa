package benchmark

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
)

// LadderConfig describes a size ladder: Steps point counts starting at Start
// and growing by Factor, for every generator.
type LadderConfig struct {
	Generators  []string
	Start       int
	Factor      int
	Steps       int
	Seed        uint64
	Orientation float64
	Algorithm   geometry.Algorithm
	Solver      rectangle.Config
}

// DefaultLadderConfig runs 5, 50, ..., 500000 points on all generators.
func DefaultLadderConfig() LadderConfig {
	return LadderConfig{
		Generators: []string{pointset.GenRandom, pointset.GenZigZag, pointset.GenRegular},
		Start:      5,
		Factor:     10,
		Steps:      6,
		Seed:       1,
		Algorithm:  geometry.AlgorithmGraham,
		Solver:     rectangle.DefaultConfig(),
	}
}

// Validate checks the ladder shape.
func (c LadderConfig) Validate() error {
	if len(c.Generators) == 0 {
		return errors.New("at least one generator is required")
	}
	if c.Start < 3 {
		return fmt.Errorf("start size must be at least 3, got %d", c.Start)
	}
	if c.Factor < 2 {
		return fmt.Errorf("growth factor must be at least 2, got %d", c.Factor)
	}
	if c.Steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if _, err := geometry.ParseAlgorithm(string(c.Algorithm)); err != nil {
		return err
	}
	return c.Solver.Validate()
}

// Sizes returns the point counts of the ladder.
func (c LadderConfig) Sizes() []int {
	sizes := make([]int, c.Steps)
	n := c.Start
	for i := range sizes {
		sizes[i] = n
		n *= c.Factor
	}
	return sizes
}

// LadderResult is one rung of the ladder.
type LadderResult struct {
	Generator    string        `json:"generator"`
	Points       int           `json:"points"`
	HullVertices int           `json:"hull_vertices"`
	HullTime     time.Duration `json:"hull_ns"`
	SolveTime    time.Duration `json:"solve_ns"`
	Area         float64       `json:"area"`
	FillRatio    float64       `json:"fill_ratio"`
	Stats        rectangle.Stats
	Memory       MemoryStats `json:"memory"`
	Error        string      `json:"error,omitempty"`
}

// RunLadder generates every rung, builds its hull and solves for the
// inscribed rectangle. A failed rung is recorded and the ladder continues;
// only cancellation stops it early. onResult, when set, sees every rung as
// soon as it finishes.
func RunLadder(ctx context.Context, cfg LadderConfig, onResult func(LadderResult)) ([]LadderResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	solver, err := rectangle.New(cfg.Solver)
	if err != nil {
		return nil, err
	}

	var results []LadderResult
	for _, gen := range cfg.Generators {
		rng := pointset.NewRand(cfg.Seed)
		for _, n := range cfg.Sizes() {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			res := runRung(ctx, solver, cfg, gen, rng, n)
			slog.Debug("Benchmark rung finished",
				"generator", gen,
				"points", n,
				"hull_vertices", res.HullVertices,
				"hull_time", res.HullTime,
				"solve_time", res.SolveTime,
				"error", res.Error)
			results = append(results, res)
			if onResult != nil {
				onResult(res)
			}
		}
	}
	return results, nil
}

func runRung(ctx context.Context, solver *rectangle.Solver, cfg LadderConfig, gen string, rng *rand.Rand, n int) LadderResult {
	res := LadderResult{Generator: gen, Points: n}

	pts, err := pointset.Generate(gen, rng, n)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	runtime.GC()
	before := GetMemoryStats()

	timer := NewTimer("hull")
	hull, err := geometry.BuildHullWith(cfg.Algorithm, pts)
	res.HullTime = timer.Stop()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.HullVertices = hull.Len()

	timer = NewTimer("solve")
	out, err := solver.Solve(ctx, hull, cfg.Orientation)
	res.SolveTime = timer.Stop()
	res.Memory = GetMemoryStats().Sub(before)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Area = out.Rectangle.Area()
	if a := hull.Area(); a > 0 {
		res.FillRatio = res.Area / a
	}
	res.Stats = out.Stats
	return res
}

// WriteLadder prints results as an aligned table.
func WriteLadder(w io.Writer, results []LadderResult) error {
	pr := message.NewPrinter(language.English)
	if _, err := pr.Fprintf(w, "%-9s %10s %8s %14s %14s %8s %6s %10s\n",
		"generator", "points", "hull", "hull time", "solve time", "fill", "steps", "alloc KB"); err != nil {
		return err
	}
	for _, r := range results {
		if r.Error != "" {
			if _, err := pr.Fprintf(w, "%-9s %10d  error: %s\n", r.Generator, r.Points, r.Error); err != nil {
				return err
			}
			continue
		}
		if _, err := pr.Fprintf(w, "%-9s %10d %8d %14v %14v %7.1f%% %6d %10d\n",
			r.Generator, r.Points, r.HullVertices,
			r.HullTime.Round(time.Microsecond), r.SolveTime.Round(time.Microsecond),
			r.FillRatio*100, r.Stats.NewtonIterations, r.Memory.TotalAllocBytes/1024); err != nil {
			return err
		}
	}
	return nil
}
