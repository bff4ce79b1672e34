// Package solve contains the nonlinear network core: a damped Newton-Raphson
// root finder with physical positivity constraints, finite-difference
// Jacobians, and the steady-state problem assembly over node pressure and
// enthalpy unknowns.
package solve

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/nkarsten/flownet/internal/simerr"
)

// VarKind tells the solver which physical quantity an unknown carries, so
// positivity and step limiting apply to the right entries.
type VarKind uint8

const (
	VarOther VarKind = iota
	VarPressure
	VarEnthalpy
)

// NewtonConfig bundles iteration tolerances with the physical regularization
// knobs. The named strategies in presets.go produce complete values; the
// fields stay public because the constants are empirical tuning, not claims
// of optimality.
type NewtonConfig struct {
	MaxIterations      int
	AbsTol             float64
	RelTol             float64
	Beta               float64 // line-search backtracking factor
	MaxLineSearchIters int

	MinPressure           float64 // Pa, hard floor for pressure unknowns
	WeakFlowThreshold     float64 // kg/s, below which energy balances are regularized
	WeakFlowEnthalpyScale float64 // stiffness of the weak-flow enthalpy pin
	MaxEnthalpyStep       float64 // J/kg, per-iteration cap on enthalpy updates
}

// ResidualFunc evaluates the balance residuals at x.
type ResidualFunc func(x []float64) ([]float64, error)

// JacobianFunc evaluates d(residual)/dx at x; r0 is the already-computed
// residual at x for variants that can reuse it.
type JacobianFunc func(x []float64, r0 []float64) (*mat.Dense, error)

// Result is a converged Newton solution.
type Result struct {
	X            []float64
	ResidualNorm float64
	Iterations   int
	Converged    bool
}

const lambdaFloor = 1e-10

// SolveNewton drives damped Newton iteration from x0. A trial step is
// accepted only if every pressure unknown stays at or above
// cfg.MinPressure and the residual norm strictly decreases; otherwise the
// step is backtracked by cfg.Beta. An empty unknown vector converges
// immediately without spending any iterations.
func SolveNewton(x0 []float64, kinds []VarKind, f ResidualFunc, jac JacobianFunc, cfg NewtonConfig) (Result, error) {
	n := len(x0)
	if len(kinds) != n {
		return Result{}, simerr.InvalidArgf("kinds length %d does not match unknowns %d", len(kinds), n)
	}
	if n == 0 {
		return Result{X: nil, Converged: true}, nil
	}

	x := append([]float64(nil), x0...)
	r, err := f(x)
	if err != nil {
		return Result{}, err
	}
	if len(r) != n {
		return Result{}, simerr.Numericf("residual length %d does not match unknowns %d", len(r), n)
	}
	norm := vecNorm(r)
	norm0 := norm
	tol := math.Max(cfg.AbsTol, cfg.RelTol*norm0)

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if norm <= tol {
			return Result{X: x, ResidualNorm: norm, Iterations: iter, Converged: true}, nil
		}

		jm, err := jac(x, r)
		if err != nil {
			return Result{}, err
		}

		dx, err := solveLinear(jm, r, iter)
		if err != nil {
			return Result{}, err
		}
		capEnthalpyStep(dx, kinds, cfg.MaxEnthalpyStep)

		x, r, norm, err = lineSearch(x, dx, r, norm, kinds, f, cfg, iter)
		if err != nil {
			return Result{}, err
		}
	}

	if norm <= tol {
		return Result{X: x, ResidualNorm: norm, Iterations: cfg.MaxIterations, Converged: true}, nil
	}
	return Result{}, simerr.Convergencef(
		"newton iteration budget %d exhausted, residual norm %g (tolerance %g)",
		cfg.MaxIterations, norm, tol)
}

// solveLinear computes the Newton step dx = -J^-1 r via dense LU.
func solveLinear(jm *mat.Dense, r []float64, iter int) ([]float64, error) {
	n := len(r)
	var lu mat.LU
	lu.Factorize(jm)
	rhs := mat.NewVecDense(n, nil)
	for i, v := range r {
		rhs.SetVec(i, -v)
	}
	dst := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(dst, false, rhs); err != nil {
		return nil, simerr.Numericf("singular jacobian at iteration %d", iter)
	}
	dx := make([]float64, n)
	for i := range dx {
		dx[i] = dst.AtVec(i)
	}
	return dx, nil
}

// capEnthalpyStep scales the whole step down so no enthalpy unknown moves
// more than maxStep in one iteration.
func capEnthalpyStep(dx []float64, kinds []VarKind, maxStep float64) {
	if maxStep <= 0 {
		return
	}
	scale := 1.0
	for i, d := range dx {
		if kinds[i] != VarEnthalpy {
			continue
		}
		if a := math.Abs(d); a > maxStep && maxStep/a < scale {
			scale = maxStep / a
		}
	}
	if scale < 1.0 {
		for i := range dx {
			dx[i] *= scale
		}
	}
}

func lineSearch(x, dx, r []float64, norm float64, kinds []VarKind, f ResidualFunc, cfg NewtonConfig, iter int) ([]float64, []float64, float64, error) {
	n := len(x)
	trial := make([]float64, n)
	lambda := 1.0
	for ls := 0; ls < cfg.MaxLineSearchIters; ls++ {
		if lambda < lambdaFloor {
			break
		}
		for i := range trial {
			trial[i] = x[i] + lambda*dx[i]
		}
		if !pressuresAdmissible(trial, kinds, cfg.MinPressure) {
			lambda *= cfg.Beta
			continue
		}
		rt, err := f(trial)
		if err != nil {
			// A backend rejection partway along the step is treated like a
			// failed trial: back off and try a shorter step.
			if simerr.KindOf(err) == simerr.KindInvalidState {
				lambda *= cfg.Beta
				continue
			}
			return nil, nil, 0, err
		}
		nt := vecNorm(rt)
		if nt < norm {
			return trial, rt, nt, nil
		}
		lambda *= cfg.Beta
	}
	return nil, nil, 0, simerr.Convergencef(
		"newton stagnated in line search at iteration %d (residual norm %g)", iter, norm)
}

func pressuresAdmissible(x []float64, kinds []VarKind, minPressure float64) bool {
	for i, v := range x {
		if kinds[i] == VarPressure && v < minPressure {
			return false
		}
	}
	return true
}

func vecNorm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
