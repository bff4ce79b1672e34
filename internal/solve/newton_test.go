package solve

import (
	"math"
	"testing"

	"github.com/nkarsten/flownet/internal/simerr"
)

func testConfig() NewtonConfig {
	cfg := StrategyStrict.Config()
	cfg.AbsTol = 1e-10
	cfg.MinPressure = 0
	cfg.MaxEnthalpyStep = 0
	return cfg
}

func TestNewtonQuadratic(t *testing.T) {
	f := func(x []float64) ([]float64, error) {
		return []float64{x[0]*x[0] - 4}, nil
	}
	res, err := SolveNewton([]float64{1}, []VarKind{VarOther}, f, Forward(f, 0), testConfig())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !res.Converged {
		t.Fatal("expected convergence")
	}
	if math.Abs(res.X[0]-2) > 1e-6 {
		t.Errorf("expected root 2, got %g", res.X[0])
	}
	if res.Iterations == 0 {
		t.Error("expected at least one iteration")
	}
}

func TestNewtonCoupledLinear(t *testing.T) {
	f := func(x []float64) ([]float64, error) {
		return []float64{2*x[0] + x[1] - 3, x[0] - x[1]}, nil
	}
	res, err := SolveNewton([]float64{10, -5}, []VarKind{VarOther, VarOther}, f, Forward(f, 0), testConfig())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	for i, want := range []float64{1, 1} {
		if math.Abs(res.X[i]-want) > 1e-6 {
			t.Errorf("x[%d]: expected %g, got %g", i, want, res.X[i])
		}
	}
}

func TestNewtonEmptySystem(t *testing.T) {
	f := func(x []float64) ([]float64, error) { return nil, nil }
	res, err := SolveNewton(nil, nil, f, Forward(f, 0), testConfig())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !res.Converged {
		t.Error("empty system should converge trivially")
	}
	if res.Iterations != 0 {
		t.Errorf("expected zero iterations, got %d", res.Iterations)
	}
}

func TestNewtonResidualToleranceHonored(t *testing.T) {
	cfg := testConfig()
	cfg.AbsTol = 1e-8
	f := func(x []float64) ([]float64, error) {
		return []float64{math.Exp(x[0]) - 5}, nil
	}
	res, err := SolveNewton([]float64{0}, []VarKind{VarOther}, f, Forward(f, 0), cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	r, _ := f(res.X)
	if math.Abs(r[0]) > cfg.AbsTol {
		t.Errorf("converged residual %g exceeds abs tolerance %g", r[0], cfg.AbsTol)
	}
}

func TestNewtonIterationBudget(t *testing.T) {
	cfg := testConfig()
	cfg.MaxIterations = 1
	f := func(x []float64) ([]float64, error) {
		return []float64{x[0]*x[0]*x[0] - 1000}, nil
	}
	_, err := SolveNewton([]float64{1}, []VarKind{VarOther}, f, Forward(f, 0), cfg)
	if err == nil {
		t.Fatal("expected budget exhaustion")
	}
	if simerr.KindOf(err) != simerr.KindConvergenceFailed {
		t.Errorf("expected convergence failure, got %v", err)
	}
}

func TestNewtonStagnation(t *testing.T) {
	// x^2 + 1 has no real root; the iteration stalls in the line search.
	f := func(x []float64) ([]float64, error) {
		return []float64{x[0]*x[0] + 1}, nil
	}
	_, err := SolveNewton([]float64{1}, []VarKind{VarOther}, f, Forward(f, 0), testConfig())
	if err == nil {
		t.Fatal("expected stagnation failure")
	}
	if simerr.KindOf(err) != simerr.KindConvergenceFailed {
		t.Errorf("expected convergence failure, got %v", err)
	}
}

func TestNewtonSingularJacobian(t *testing.T) {
	f := func(x []float64) ([]float64, error) {
		return []float64{x[0] + x[1] - 1, x[0] + x[1] - 2}, nil
	}
	_, err := SolveNewton([]float64{0, 0}, []VarKind{VarOther, VarOther}, f, Forward(f, 0), testConfig())
	if err == nil {
		t.Fatal("expected failure on singular system")
	}
	if simerr.KindOf(err) != simerr.KindNumeric {
		t.Errorf("expected numeric failure, got %v", err)
	}
}

func TestNewtonPressureFloor(t *testing.T) {
	cfg := testConfig()
	cfg.MinPressure = 100

	// Root at x=500, well above the floor: the answer must respect it.
	f := func(x []float64) ([]float64, error) {
		return []float64{x[0] - 500}, nil
	}
	res, err := SolveNewton([]float64{5000}, []VarKind{VarPressure}, f, Forward(f, 0), cfg)
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if res.X[0] < cfg.MinPressure {
		t.Errorf("pressure %g fell below floor %g", res.X[0], cfg.MinPressure)
	}

	// Root at x=10, below the floor: no admissible step reaches it.
	f2 := func(x []float64) ([]float64, error) {
		return []float64{x[0] - 10}, nil
	}
	_, err = SolveNewton([]float64{5000}, []VarKind{VarPressure}, f2, Forward(f2, 0), cfg)
	if err == nil {
		t.Fatal("expected failure when the root violates the pressure floor")
	}
}

func TestNewtonEnthalpyStepCap(t *testing.T) {
	dx := []float64{-4e5, 2e5}
	capEnthalpyStep(dx, []VarKind{VarEnthalpy, VarPressure}, 1e5)
	if math.Abs(dx[0]) > 1e5+1e-9 {
		t.Errorf("enthalpy step %g exceeds cap", dx[0])
	}
	// The whole step scales down together, preserving direction.
	if math.Abs(dx[1]-0.5e5) > 1e-6 {
		t.Errorf("expected proportional scaling, got %g", dx[1])
	}
}
