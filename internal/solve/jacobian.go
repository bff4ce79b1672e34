package solve

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// DefaultFDEpsilon is the relative perturbation for finite differencing.
const DefaultFDEpsilon = 1e-7

// fdStep is the perturbation for column j: relative to |x_j| but floored so
// it never vanishes near zero.
func fdStep(xj, eps float64) float64 {
	return eps * math.Max(math.Abs(xj), 1.0)
}

// Forward builds a forward-difference Jacobian: one extra residual
// evaluation per column. Columns are pure functions of the base point, so
// evaluation order does not matter.
func Forward(f ResidualFunc, eps float64) JacobianFunc {
	if eps <= 0 {
		eps = DefaultFDEpsilon
	}
	return func(x []float64, r0 []float64) (*mat.Dense, error) {
		n := len(x)
		jm := mat.NewDense(n, n, nil)
		xp := append([]float64(nil), x...)
		for j := 0; j < n; j++ {
			h := fdStep(x[j], eps)
			xp[j] = x[j] + h
			rp, err := f(xp)
			if err != nil {
				return nil, err
			}
			xp[j] = x[j]
			for i := 0; i < n; i++ {
				jm.Set(i, j, (rp[i]-r0[i])/h)
			}
		}
		return jm, nil
	}
}

// Central builds a central-difference Jacobian: two extra evaluations per
// column, doubling cost for improved accuracy. The base residual is unused.
func Central(f ResidualFunc, eps float64) JacobianFunc {
	if eps <= 0 {
		eps = DefaultFDEpsilon
	}
	return func(x []float64, _ []float64) (*mat.Dense, error) {
		n := len(x)
		jm := mat.NewDense(n, n, nil)
		xp := append([]float64(nil), x...)
		for j := 0; j < n; j++ {
			h := fdStep(x[j], eps)
			xp[j] = x[j] + h
			rp, err := f(xp)
			if err != nil {
				return nil, err
			}
			xp[j] = x[j] - h
			rm, err := f(xp)
			if err != nil {
				return nil, err
			}
			xp[j] = x[j]
			for i := 0; i < n; i++ {
				jm.Set(i, j, (rp[i]-rm[i])/(2.0*h))
			}
		}
		return jm, nil
	}
}
