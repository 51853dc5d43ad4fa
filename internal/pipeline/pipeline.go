package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/rectangle"
)

// Config holds configuration for the hull/rectangle pipeline.
type Config struct {
	Algorithm     geometry.Algorithm // hull construction method
	FlipY         bool               // input uses screen coordinates (y grows downwards)
	BoundingBoxes bool               // also report the minimum-area bounding rectangle of each hull
	Solver        rectangle.Config

	// Parallel processing configuration
	Parallel ParallelConfig
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Algorithm: geometry.AlgorithmGraham,
		FlipY:     false,
		Solver:    rectangle.DefaultConfig(),
		Parallel:  DefaultParallelConfig(),
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithAlgorithm selects the hull algorithm ("graham" or "monotone").
func (b *Builder) WithAlgorithm(alg geometry.Algorithm) *Builder {
	if alg != "" {
		b.cfg.Algorithm = alg
	}
	return b
}

// WithFlipY toggles screen-coordinate input.
func (b *Builder) WithFlipY(flip bool) *Builder {
	b.cfg.FlipY = flip
	return b
}

// WithBoundingBoxes toggles minimum bounding rectangle reporting.
func (b *Builder) WithBoundingBoxes(enabled bool) *Builder {
	b.cfg.BoundingBoxes = enabled
	return b
}

// WithSolverConfig replaces the rectangle solver settings.
func (b *Builder) WithSolverConfig(cfg rectangle.Config) *Builder {
	b.cfg.Solver = cfg
	return b
}

// WithTolerance sets the barrier gap tolerance.
func (b *Builder) WithTolerance(tol float64) *Builder {
	if tol > 0 {
		b.cfg.Solver.Tolerance = tol
	}
	return b
}

// WithIterationLimits bounds Newton steps per centering and centering steps per solve.
func (b *Builder) WithIterationLimits(newton, outer int) *Builder {
	if newton > 0 {
		b.cfg.Solver.MaxNewtonIterations = newton
	}
	if outer > 0 {
		b.cfg.Solver.MaxOuterIterations = outer
	}
	return b
}

// WithTimeout sets the wall-clock budget for a single solve.
func (b *Builder) WithTimeout(d time.Duration) *Builder {
	if d >= 0 {
		b.cfg.Solver.Timeout = d
	}
	return b
}

// WithParallelWorkers sets the number of parallel workers for batch processing.
func (b *Builder) WithParallelWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Parallel.MaxWorkers = workers
	}
	return b
}

// WithProgressCallback sets the progress callback for batch processing.
func (b *Builder) WithProgressCallback(callback ProgressCallback) *Builder {
	b.cfg.Parallel.ProgressCallback = callback
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Validate checks that the configuration looks sane.
func (b *Builder) Validate() error {
	if _, err := geometry.ParseAlgorithm(string(b.cfg.Algorithm)); err != nil {
		return err
	}
	if err := b.cfg.Solver.Validate(); err != nil {
		return fmt.Errorf("solver: %w", err)
	}
	if b.cfg.Parallel.MaxWorkers < 0 {
		return errors.New("parallel workers must be >= 0")
	}
	return nil
}

// Pipeline wires hull construction, containment queries and the rectangle
// solver together. A Pipeline is safe for concurrent use.
type Pipeline struct {
	cfg    Config
	Solver *rectangle.Solver
}

// Build initializes the pipeline components.
func (b *Builder) Build() (*Pipeline, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	solver, err := rectangle.New(b.cfg.Solver)
	if err != nil {
		return nil, fmt.Errorf("init solver: %w", err)
	}
	return &Pipeline{cfg: b.cfg, Solver: solver}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Info returns a map with key pipeline properties.
func (p *Pipeline) Info() map[string]interface{} {
	return map[string]interface{}{
		"algorithm":      string(p.cfg.Algorithm),
		"flip_y":         p.cfg.FlipY,
		"tolerance":      p.cfg.Solver.Tolerance,
		"max_newton":     p.cfg.Solver.MaxNewtonIterations,
		"max_outer":      p.cfg.Solver.MaxOuterIterations,
		"solver_timeout": p.cfg.Solver.Timeout.String(),
		"workers":        p.cfg.Parallel.MaxWorkers,
	}
}

// toInternal maps caller points into the y-up frame used by the geometry code.
func (p *Pipeline) toInternal(pts []geometry.Point) []geometry.Point {
	if !p.cfg.FlipY {
		return pts
	}
	return geometry.FlipY(pts)
}

// toCaller is the inverse of toInternal. Vertex order is kept, so a hull that
// is clockwise in the y-up frame is drawn clockwise on a y-down screen.
func (p *Pipeline) toCaller(pts []geometry.Point) []geometry.Point {
	return p.toInternal(pts)
}

func (p *Pipeline) buildHull(points []geometry.Point) (geometry.ConvexHull, error) {
	return geometry.BuildHullWith(p.cfg.Algorithm, p.toInternal(points))
}

// HullGiven is the Algorithm reported for caller-supplied hull vertices.
const HullGiven = "given"

// timedHull builds the hull of points, or with given validates points as the
// hull itself.
func (p *Pipeline) timedHull(given bool, points []geometry.Point) (*HullResult, geometry.ConvexHull, error) {
	start := time.Now()
	var (
		h   geometry.ConvexHull
		err error
	)
	if given {
		h, err = geometry.NewConvexHull(p.toInternal(points))
	} else {
		h, err = p.buildHull(points)
	}
	if err != nil {
		return nil, geometry.ConvexHull{}, err
	}
	hr := p.hullResult(h, len(points), time.Since(start))
	if given {
		hr.Algorithm = HullGiven
	}
	return hr, h, nil
}

func (p *Pipeline) hullResult(h geometry.ConvexHull, inputs int, elapsed time.Duration) *HullResult {
	res := &HullResult{
		InputPoints: inputs,
		Algorithm:   string(p.cfg.Algorithm),
		Vertices:    p.toCaller(h.Vertices()),
		Area:        h.Area(),
		Centroid:    p.toCaller([]geometry.Point{h.Centroid()})[0],
	}
	if p.cfg.BoundingBoxes {
		res.Bounding = p.toCaller(h.MinimumBoundingRectangle())
	}
	res.Processing.HullNs = elapsed.Nanoseconds()
	return res
}

// Hull builds the convex hull of points.
func (p *Pipeline) Hull(points []geometry.Point) (*HullResult, error) {
	start := time.Now()
	h, err := p.buildHull(points)
	if err != nil {
		return nil, err
	}
	res := p.hullResult(h, len(points), time.Since(start))
	slog.Debug("Hull built", "input_points", len(points), "vertices", len(res.Vertices), "algorithm", res.Algorithm)
	return res, nil
}

// HullSteps builds the hull with the Graham scan and calls fn with every
// intermediate stack, in the caller's frame. Returning an error from fn
// aborts the scan.
func (p *Pipeline) HullSteps(points []geometry.Point, fn func(step int, stack []geometry.Point) error) (*HullResult, error) {
	start := time.Now()
	step := 0
	h, err := geometry.WalkHull(p.toInternal(points), func(stack []geometry.Point) error {
		step++
		if fn == nil {
			return nil
		}
		return fn(step, p.toCaller(stack))
	})
	if err != nil {
		return nil, err
	}
	res := p.hullResult(h, len(points), time.Since(start))
	res.Algorithm = string(geometry.AlgorithmGraham)
	return res, nil
}

// Contains tests every query against the hull of points.
func (p *Pipeline) Contains(points, queries []geometry.Point) (*HullResult, []ContainmentResult, error) {
	return p.containsWith(false, points, queries)
}

// ContainsHull is Contains for callers that already hold the hull: vertices
// must form a strictly convex polygon in either winding.
func (p *Pipeline) ContainsHull(vertices, queries []geometry.Point) (*HullResult, []ContainmentResult, error) {
	return p.containsWith(true, vertices, queries)
}

func (p *Pipeline) containsWith(given bool, points, queries []geometry.Point) (*HullResult, []ContainmentResult, error) {
	hr, h, err := p.timedHull(given, points)
	if err != nil {
		return nil, nil, err
	}
	return hr, p.containment(h, queries), nil
}

func (p *Pipeline) containment(h geometry.ConvexHull, queries []geometry.Point) []ContainmentResult {
	out := make([]ContainmentResult, len(queries))
	internal := p.toInternal(queries)
	for i, q := range queries {
		out[i] = ContainmentResult{Point: q, Inside: TestContainment(h, internal[i])}
	}
	return out
}

// Rectangle builds the hull of points and solves for its largest inscribed
// rectangle with edge directions (1, orientation) and (-orientation, 1). In
// flipped mode orientation is interpreted in the caller's frame.
func (p *Pipeline) Rectangle(ctx context.Context, points []geometry.Point, orientation float64) (*HullResult, *RectangleResult, error) {
	return p.rectangleWith(ctx, false, points, orientation)
}

// RectangleInHull is Rectangle for a caller-supplied convex polygon.
func (p *Pipeline) RectangleInHull(ctx context.Context, vertices []geometry.Point, orientation float64) (*HullResult, *RectangleResult, error) {
	return p.rectangleWith(ctx, true, vertices, orientation)
}

func (p *Pipeline) rectangleWith(ctx context.Context, given bool, points []geometry.Point, orientation float64) (*HullResult, *RectangleResult, error) {
	hr, h, err := p.timedHull(given, points)
	if err != nil {
		return nil, nil, err
	}
	rr, err := p.solve(ctx, h, orientation)
	if err != nil {
		return hr, nil, err
	}
	return hr, rr, nil
}

func (p *Pipeline) solve(ctx context.Context, h geometry.ConvexHull, orientation float64) (*RectangleResult, error) {
	t := orientation
	if p.cfg.FlipY {
		t = -t
	}
	res, err := p.Solver.Solve(ctx, h, t)
	if err != nil {
		return nil, err
	}
	rect := res.Rectangle
	w, ht := rect.Sides()
	out := &RectangleResult{
		Orientation: orientation,
		Corners:     p.toCaller(rect.Corners[:]),
		Area:        rect.Area(),
		Width:       w,
		Height:      ht,
		Stats:       res.Stats,
	}
	if a := h.Area(); a > 0 {
		out.FillRatio = out.Area / a
	}
	return out, nil
}

// Process runs every stage a Request asks for. Hull failures abort the
// request; a failed rectangle solve is reported alongside the hull.
func (p *Pipeline) Process(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	rep := &Report{Source: req.Source}

	var steps [][]geometry.Point
	var h geometry.ConvexHull
	var err error
	if req.Steps {
		h, err = geometry.WalkHull(p.toInternal(req.Points), func(stack []geometry.Point) error {
			steps = append(steps, p.toCaller(stack))
			return nil
		})
	} else {
		h, err = p.buildHull(req.Points)
	}
	if err != nil {
		return nil, fmt.Errorf("hull: %w", err)
	}
	rep.Hull = p.hullResult(h, len(req.Points), time.Since(start))
	rep.Hull.Steps = steps

	if len(req.Queries) > 0 {
		rep.Containment = p.containment(h, req.Queries)
	}

	if req.Orientation != nil {
		rr, err := p.solve(ctx, h, *req.Orientation)
		if err != nil {
			rep.Error = err.Error()
			rep.Processing.TotalNs = time.Since(start).Nanoseconds()
			return rep, fmt.Errorf("rectangle: %w", err)
		}
		rep.Rectangle = rr
	}

	rep.Processing.TotalNs = time.Since(start).Nanoseconds()
	slog.Debug("Request processed",
		"source", req.Source,
		"vertices", len(rep.Hull.Vertices),
		"queries", len(req.Queries),
		"rectangle", rep.Rectangle != nil,
		"duration_ms", time.Since(start).Milliseconds())
	return rep, nil
}
