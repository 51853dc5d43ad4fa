package rectangle

import (
	"math"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"gonum.org/v1/gonum/mat"
)

// The optimization variables are z = (x1, x2, u1, v2): anchor corner x and
// the free components of the edge vectors u = u1·(1, t) and v = v2·(-t, 1).
const (
	idxX1 = iota
	idxX2
	idxU1
	idxV2
	numVars
)

// cornerSelectors picks the corners x, x+u, x+v and x+u+v.
var cornerSelectors = [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

// barrierProblem is the centering objective
//
//	f(z) = -log u1 - log v2 - mu · Σ log(c_k - w_k·z)
//
// with one linear term per (half-plane, corner) pair.
type barrierProblem struct {
	rows [][numVars]float64
	rhs  []float64
	mu   float64

	w *mat.VecDense
}

func newBarrierProblem(planes []geometry.HalfPlane, t float64) *barrierProblem {
	p := &barrierProblem{
		rows: make([][numVars]float64, 0, 4*len(planes)),
		rhs:  make([]float64, 0, 4*len(planes)),
		w:    mat.NewVecDense(numVars, nil),
	}
	for _, hp := range planes {
		au := hp.A + t*hp.B // a·(1, t)
		av := hp.B - t*hp.A // a·(-t, 1)
		for _, sel := range cornerSelectors {
			p.rows = append(p.rows, [numVars]float64{hp.A, hp.B, sel[0] * au, sel[1] * av})
			p.rhs = append(p.rhs, hp.C)
		}
	}
	return p
}

// terms is the number of barrier terms, which bounds the duality gap as terms·mu.
func (p *barrierProblem) terms() int {
	return len(p.rows)
}

func (p *barrierProblem) slack(k int, z []float64) float64 {
	r := p.rows[k]
	return p.rhs[k] - (r[0]*z[0] + r[1]*z[1] + r[2]*z[2] + r[3]*z[3])
}

// strictlyFeasible reports whether z lies inside the domain of every logarithm.
func (p *barrierProblem) strictlyFeasible(z []float64) bool {
	if !(z[idxU1] > 0) || !(z[idxV2] > 0) {
		return false
	}
	for k := range p.rows {
		if !(p.slack(k, z) > 0) {
			return false
		}
	}
	return true
}

// Value returns f(z), or false when z is outside the domain.
func (p *barrierProblem) Value(z []float64) (float64, bool) {
	if !p.strictlyFeasible(z) {
		return 0, false
	}
	var sum float64
	for k := range p.rows {
		sum += math.Log(p.slack(k, z))
	}
	f := -math.Log(z[idxU1]) - math.Log(z[idxV2]) - p.mu*sum
	return f, !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Gradient writes ∇f(z) into grad. z must be strictly feasible.
func (p *barrierProblem) Gradient(grad, z []float64) {
	clear(grad)
	grad[idxU1] = -1 / z[idxU1]
	grad[idxV2] = -1 / z[idxV2]
	for k, r := range p.rows {
		s := p.mu / p.slack(k, z)
		for i := range numVars {
			grad[i] += s * r[i]
		}
	}
}

// Hessian writes ∇²f(z) into hess. Every barrier term contributes the rank-one
// matrix mu·w wᵀ/g²; the slacks are affine so there is no curvature term.
func (p *barrierProblem) Hessian(hess *mat.SymDense, z []float64) {
	hess.Zero()
	hess.SetSym(idxU1, idxU1, 1/(z[idxU1]*z[idxU1]))
	hess.SetSym(idxV2, idxV2, 1/(z[idxV2]*z[idxV2]))
	for k, r := range p.rows {
		g := p.slack(k, z)
		for i := range numVars {
			p.w.SetVec(i, r[i])
		}
		hess.SymRankOne(hess, p.mu/(g*g), p.w)
	}
}

// corners maps z to the rectangle corners x, x+u, x+v, x+u+v.
func corners(z []float64, t float64) [4]geometry.Point {
	var out [4]geometry.Point
	for i, sel := range cornerSelectors {
		out[i] = geometry.Point{
			X: z[idxX1] + sel[0]*z[idxU1] - sel[1]*t*z[idxV2],
			Y: z[idxX2] + sel[0]*t*z[idxU1] + sel[1]*z[idxV2],
		}
	}
	return out
}
