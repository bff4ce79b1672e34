package solve

import (
	"math"
	"testing"
)

func TestForwardJacobian(t *testing.T) {
	f := func(x []float64) ([]float64, error) {
		return []float64{
			x[0]*x[0] + x[1],
			math.Sin(x[0]) * x[1],
		}, nil
	}
	x := []float64{1.5, 2.0}
	r0, _ := f(x)
	jm, err := Forward(f, 0)(x, r0)
	if err != nil {
		t.Fatalf("jacobian failed: %v", err)
	}
	want := [][]float64{
		{2 * x[0], 1},
		{math.Cos(x[0]) * x[1], math.Sin(x[0])},
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(jm.At(i, j)-want[i][j]) > 1e-5 {
				t.Errorf("J[%d][%d]: expected %g, got %g", i, j, want[i][j], jm.At(i, j))
			}
		}
	}
}

func TestCentralJacobianMoreAccurate(t *testing.T) {
	f := func(x []float64) ([]float64, error) {
		return []float64{math.Exp(2 * x[0])}, nil
	}
	x := []float64{0.5}
	r0, _ := f(x)
	exact := 2 * math.Exp(2*x[0])

	fw, err := Forward(f, 1e-5)(x, r0)
	if err != nil {
		t.Fatalf("forward failed: %v", err)
	}
	ct, err := Central(f, 1e-5)(x, nil)
	if err != nil {
		t.Fatalf("central failed: %v", err)
	}
	errFw := math.Abs(fw.At(0, 0) - exact)
	errCt := math.Abs(ct.At(0, 0) - exact)
	if errCt >= errFw {
		t.Errorf("central error %g not better than forward %g", errCt, errFw)
	}
}

func TestFDStepFloor(t *testing.T) {
	// Near-zero unknowns must still get a finite perturbation.
	if h := fdStep(0, 1e-7); h != 1e-7 {
		t.Errorf("expected floored step 1e-7, got %g", h)
	}
	if h := fdStep(2e5, 1e-7); math.Abs(h-0.02) > 1e-12 {
		t.Errorf("expected relative step 0.02, got %g", h)
	}
}
