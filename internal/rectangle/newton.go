package rectangle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/mempool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// objective is a twice differentiable function with a restricted domain.
type objective interface {
	Value(x []float64) (float64, bool)
	Gradient(grad, x []float64)
	Hessian(hess *mat.SymDense, x []float64)
}

type newtonSettings struct {
	tolerance     float64
	maxIterations int
	armijo        float64 // sufficient decrease constant
	shrink        float64 // backtracking factor
	minStep       float64
	deadline      time.Time
}

func defaultNewtonSettings(cfg Config, deadline time.Time) newtonSettings {
	return newtonSettings{
		tolerance:     cfg.NewtonTolerance,
		maxIterations: cfg.MaxNewtonIterations,
		armijo:        0.25,
		shrink:        0.5,
		minStep:       1e-14,
		deadline:      deadline,
	}
}

// minimize runs damped Newton from x, updating x in place. It returns the
// number of iterations used. x must start inside the domain of f.
func minimize(ctx context.Context, f objective, x []float64, s newtonSettings) (int, error) {
	n := len(x)
	scratch := mempool.GetFloat64Multiple(n, n, n, n, n)
	defer mempool.PutFloat64Multiple(scratch)
	grad, step, trial, scale, rhs := scratch[0], scratch[1], scratch[2], scratch[3], scratch[4]
	rhsVec := mat.NewVecDense(n, rhs)
	stepVec := mat.NewVecDense(n, step)
	hess := mat.NewSymDense(n, nil)
	scaled := mat.NewSymDense(n, nil)
	var chol mat.Cholesky

	for iter := 1; iter <= s.maxIterations; iter++ {
		if err := checkCutoff(ctx, s.deadline); err != nil {
			return iter - 1, err
		}

		fx, ok := f.Value(x)
		if !ok {
			return iter - 1, fmt.Errorf("%w: iterate left the barrier domain", geometry.ErrNotConverged)
		}
		f.Gradient(grad, x)
		if !allFinite(grad) {
			return iter - 1, fmt.Errorf("%w: non-finite gradient", geometry.ErrNotConverged)
		}
		f.Hessian(hess, x)
		if ok := factorizeScaled(&chol, scaled, hess, scale); !ok {
			return iter - 1, fmt.Errorf("%w: Newton system is not positive definite", geometry.ErrNotConverged)
		}
		floats.MulTo(rhs, scale, grad)
		if err := chol.SolveVecTo(stepVec, rhsVec); err != nil {
			// A condition warning still leaves a usable solution; the
			// finiteness check below catches real breakdowns.
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return iter - 1, fmt.Errorf("%w: solving Newton system: %v", geometry.ErrNotConverged, err)
			}
		}
		floats.Mul(step, scale)
		floats.Scale(-1, step)
		if !allFinite(step) {
			return iter - 1, fmt.Errorf("%w: non-finite Newton step", geometry.ErrNotConverged)
		}

		// slope is -λ², the squared Newton decrement.
		slope := floats.Dot(grad, step)
		if -slope/2 <= s.tolerance {
			return iter, nil
		}

		alpha := 1.0
		for {
			floats.AddScaledTo(trial, x, alpha, step)
			if ft, ok := f.Value(trial); ok && ft <= fx+s.armijo*alpha*slope {
				break
			}
			alpha *= s.shrink
			if alpha < s.minStep {
				return iter, fmt.Errorf("%w: line search step collapsed (decrement %.3g)", geometry.ErrNotConverged, -slope)
			}
		}
		copy(x, trial)
	}
	return s.maxIterations, fmt.Errorf("%w: Newton exceeded %d iterations", geometry.ErrNotConverged, s.maxIterations)
}

// Shifts tried on the unit diagonal of the scaled Hessian.
const (
	minShift = 1e-12
	maxShift = 1.0
)

// factorizeScaled factorizes D^-1/2·H·D^-1/2 + shift·I with D = diag(H),
// writing D^-1/2 into scale. Near the optimum some directions of H only carry
// curvature of order mu, so the shift starts tiny and grows tenfold until the
// factorization succeeds. The Newton step is then scale ⊙ solve(scale ⊙ grad).
func factorizeScaled(chol *mat.Cholesky, scaled, hess *mat.SymDense, scale []float64) bool {
	n := len(scale)
	for i := range n {
		d := hess.At(i, i)
		if !(d > 0) || math.IsInf(d, 0) {
			return false
		}
		scale[i] = 1 / math.Sqrt(d)
	}
	for shift := minShift; shift <= maxShift; shift *= 10 {
		for i := range n {
			scaled.SetSym(i, i, 1+shift)
			for j := i + 1; j < n; j++ {
				scaled.SetSym(i, j, hess.At(i, j)*scale[i]*scale[j])
			}
		}
		if chol.Factorize(scaled) {
			return true
		}
	}
	return false
}

func checkCutoff(ctx context.Context, deadline time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", geometry.ErrNotConverged, err)
	}
	if !deadline.IsZero() && time.Now().After(deadline) {
		return fmt.Errorf("%w: solve timed out", geometry.ErrNotConverged)
	}
	return nil
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
