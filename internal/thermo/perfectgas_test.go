package thermo

import (
	"math"
	"testing"

	"github.com/nkarsten/flownet/internal/simerr"
)

func TestPerfectGasPTState(t *testing.T) {
	g := Air()
	st, err := g.State(PT(101325, 300), Pure("air"))
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	if math.Abs(st.Temperature()-300) > 1e-9 {
		t.Errorf("temperature: got %g", st.Temperature())
	}
	if math.Abs(st.Density()-1.177) > 0.01 {
		t.Errorf("density: expected ~1.177 kg/m3, got %g", st.Density())
	}
	if math.Abs(st.SpeedOfSound()-347.2) > 1.0 {
		t.Errorf("speed of sound: expected ~347 m/s, got %g", st.SpeedOfSound())
	}
	if math.Abs(st.Gamma()-1.4) > 1e-3 {
		t.Errorf("gamma: expected ~1.4, got %g", st.Gamma())
	}
}

func TestPerfectGasConstantsConsistent(t *testing.T) {
	g := Air()
	st, err := g.State(PT(101325, 300), Pure("air"))
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}
	r := universalGas / g.MolarMass
	if d := st.Cp() - st.Cv() - r; math.Abs(d) > 1e-9 {
		t.Errorf("Cp - Cv - R = %g, want 0", d)
	}
	if d := st.Gamma()*st.Cv() - st.Cp(); math.Abs(d) > 1e-9 {
		t.Errorf("gamma*Cv - Cp = %g, want 0", d)
	}
	// With consistent constants, u = h - p/rho reduces to Cv*T exactly.
	u := st.Enthalpy() - st.Pressure()/st.Density()
	if d := u - st.Cv()*300; math.Abs(d) > 1e-6 {
		t.Errorf("internal energy off by %g J/kg", d)
	}
}

func TestPerfectGasPHRoundTrip(t *testing.T) {
	g := Air()
	comp := Pure("air")
	st, err := g.State(PT(200000, 350), comp)
	if err != nil {
		t.Fatalf("PT state: %v", err)
	}
	back, err := g.State(PH(200000, st.Enthalpy()), comp)
	if err != nil {
		t.Fatalf("PH state: %v", err)
	}
	if math.Abs(back.Temperature()-350) > 1e-9 {
		t.Errorf("round trip temperature: got %g", back.Temperature())
	}
}

func TestPerfectGasRejections(t *testing.T) {
	g := Air()
	comp := Pure("air")
	tests := []struct {
		name string
		in   Input
	}{
		{"negative pressure", PT(-100, 300)},
		{"enthalpy below table", PH(101325, g.CpRef*100)},
		{"enthalpy above table", PH(101325, g.CpRef*3000)},
		{"temperature too high", PT(101325, 7000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.State(tt.in, comp)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if simerr.KindOf(err) != simerr.KindInvalidState {
				t.Errorf("expected invalid-state error, got %v", err)
			}
		})
	}
}

func TestStorageInversion(t *testing.T) {
	g := Air()
	comp := Pure("air")
	st, err := g.State(PT(500000, 330), comp)
	if err != nil {
		t.Fatalf("PT state: %v", err)
	}
	u := st.Enthalpy() - st.Pressure()/st.Density()
	back, err := g.StateFromRhoU(st.Density(), u, comp)
	if err != nil {
		t.Fatalf("inversion failed: %v", err)
	}
	if math.Abs(back.Pressure()-500000) > 1e-6*500000 {
		t.Errorf("pressure: expected 500000, got %g", back.Pressure())
	}
	if math.Abs(back.Temperature()-330) > 1e-6 {
		t.Errorf("temperature: expected 330, got %g", back.Temperature())
	}
}

func TestCompositionSupport(t *testing.T) {
	g := Air()
	if !g.Supports(Pure("air")) {
		t.Error("air backend must support pure air")
	}
	if g.Supports(Pure("helium")) {
		t.Error("air backend must reject helium")
	}
}
