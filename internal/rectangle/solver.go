package rectangle

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
)

// Solver computes maximum inscribed rectangles. A Solver holds only its
// configuration and is safe for concurrent use.
type Solver struct {
	cfg Config
}

// New creates a solver after validating cfg.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver config: %w", err)
	}
	return &Solver{cfg: cfg}, nil
}

// Config returns the solver configuration.
func (s *Solver) Config() Config {
	return s.cfg
}

// Solve returns the largest rectangle with edge directions (1, t) and (-t, 1)
// whose four corners lie inside hull.
//
// It fails with geometry.ErrInfeasible when the hull has no interior and with
// geometry.ErrNotConverged when an iteration bound, the timeout, ctx or a
// numeric breakdown stops the barrier method. No partial result is returned.
func (s *Solver) Solve(ctx context.Context, hull geometry.ConvexHull, t float64) (*Result, error) {
	start := time.Now()
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return nil, fmt.Errorf("%w: orientation %v is not finite", geometry.ErrInfeasible, t)
	}

	fr, err := normalize(hull)
	if err != nil {
		return nil, err
	}
	prob := newBarrierProblem(fr.planes, t)
	z := startingPoint(t)
	if !prob.strictlyFeasible(z) {
		return nil, fmt.Errorf("%w: no strictly interior starting point", geometry.ErrInfeasible)
	}

	var deadline time.Time
	if s.cfg.Timeout > 0 {
		deadline = start.Add(s.cfg.Timeout)
	}
	settings := defaultNewtonSettings(s.cfg, deadline)

	slog.Debug("Starting rectangle solve", "hull_vertices", hull.Len(), "orientation", t, "barrier_terms", prob.terms())

	var stats Stats
	terms := float64(prob.terms())
	mu := s.cfg.InitialMu
	for {
		if stats.OuterIterations == s.cfg.MaxOuterIterations {
			return nil, fmt.Errorf("%w: barrier method exceeded %d centering steps (mu=%g)",
				geometry.ErrNotConverged, s.cfg.MaxOuterIterations, mu)
		}
		stats.OuterIterations++
		prob.mu = mu
		n, err := minimize(ctx, prob, z, settings)
		stats.NewtonIterations += n
		if err != nil {
			return nil, fmt.Errorf("centering step %d (mu=%g): %w", stats.OuterIterations, mu, err)
		}
		slog.Debug("Centering step completed", "step", stats.OuterIterations, "mu", mu, "newton_iterations", n)
		if terms*mu < s.cfg.Tolerance {
			break
		}
		mu *= s.cfg.MuFactor
	}

	rect := Rectangle{Corners: fr.toWorld(corners(z, t)), Orientation: t}
	for _, c := range rect.Corners {
		if !c.IsFinite() {
			return nil, fmt.Errorf("%w: non-finite corner", geometry.ErrNotConverged)
		}
	}
	if t == 0 {
		rect.Corners[0], rect.Corners[1] = rect.Corners[1], rect.Corners[0]
	}

	stats.FinalMu = mu
	stats.GapBound = terms * mu
	stats.Duration = time.Since(start)
	slog.Debug("Rectangle solve completed",
		"area", rect.Area(),
		"outer_iterations", stats.OuterIterations,
		"newton_iterations", stats.NewtonIterations,
		"duration_ms", stats.Duration.Milliseconds())

	return &Result{Rectangle: rect, Stats: stats}, nil
}

// SolveAxisAligned solves for orientation 0.
func (s *Solver) SolveAxisAligned(ctx context.Context, hull geometry.ConvexHull) (*Result, error) {
	return s.Solve(ctx, hull, 0)
}

// Solve runs a solver with DefaultConfig.
func Solve(ctx context.Context, hull geometry.ConvexHull, t float64) (Rectangle, error) {
	s := &Solver{cfg: DefaultConfig()}
	res, err := s.Solve(ctx, hull, t)
	if err != nil {
		return Rectangle{}, err
	}
	return res.Rectangle, nil
}

// frame maps hull coordinates to a well-scaled copy: centred on the hull
// centroid, scaled so the distance to the nearest edge is 1, and with unit
// constraint normals.
type frame struct {
	origin geometry.Point
	scale  float64
	planes []geometry.HalfPlane
}

func normalize(hull geometry.ConvexHull) (frame, error) {
	if hull.Len() < 3 {
		return frame{}, fmt.Errorf("%w: hull has %d edges", geometry.ErrInfeasible, hull.Len())
	}
	if !(hull.Area() > 0) {
		return frame{}, fmt.Errorf("%w: hull has zero area", geometry.ErrInfeasible)
	}
	sys, err := geometry.HalfPlanes(hull)
	if err != nil {
		return frame{}, fmt.Errorf("%w: %w", geometry.ErrInfeasible, err)
	}

	origin := hull.Centroid()
	unit := sys.Normalized()
	r := unit.MinSlack(origin)
	if !(r > 0) || math.IsInf(r, 0) {
		return frame{}, fmt.Errorf("%w: hull centroid is not strictly interior", geometry.ErrInfeasible)
	}

	planes := make([]geometry.HalfPlane, len(unit))
	for i, hp := range unit {
		planes[i] = hp.Transformed(origin, r).Normalized()
	}
	return frame{origin: origin, scale: r, planes: planes}, nil
}

func (f frame) toWorld(pts [4]geometry.Point) [4]geometry.Point {
	for i, p := range pts {
		pts[i] = f.origin.Add(p.Scale(f.scale))
	}
	return pts
}

// startingPoint returns a rectangle centred on the origin whose corners lie on
// the circle of radius 1/2, strictly inside the unit-inradius frame.
func startingPoint(t float64) []float64 {
	side := 0.5 * math.Sqrt2 / math.Hypot(1, t)
	u := geometry.Point{X: side, Y: side * t}
	v := geometry.Point{X: -side * t, Y: side}
	anchor := u.Add(v).Scale(-0.5)
	return []float64{anchor.X, anchor.Y, side, side}
}
