package geometry

import "errors"

// Sentinel errors shared by the hull builder and the rectangle solver. Callers
// match them with errors.Is; wrapped messages carry the details.
var (
	// ErrDegenerateInput means fewer than three usable points, non-finite
	// coordinates, or a point set whose hull has no interior.
	ErrDegenerateInput = errors.New("degenerate input")

	// ErrInfeasible means the solver could not find a strictly interior start.
	ErrInfeasible = errors.New("infeasible")

	// ErrNotConverged means an iteration bound, numeric breakdown, or cutoff
	// stopped the solver before it met its tolerance.
	ErrNotConverged = errors.New("not converged")
)
