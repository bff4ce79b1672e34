package solve

import (
	"math"
	"testing"

	"github.com/nkarsten/flownet/internal/device"
	"github.com/nkarsten/flownet/internal/network"
	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/thermo"
)

func twoNodeOrifice(t *testing.T) (*Problem, network.CompID) {
	t.Helper()
	net := network.New()
	in := net.AddNode("inlet")
	out := net.AddNode("outlet")
	orf, err := net.Connect("orifice", in, out)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	p := NewProblem(net, thermo.Air(), thermo.Pure("air"))
	p.SetPressureBC(in, 200000)
	p.SetTemperatureBC(in, 300)
	p.SetPressureBC(out, 101325)
	p.SetTemperatureBC(out, 300)
	p.SetDevice(orf, &device.Orifice{Cd: 0.62, Area: 1e-4})
	return p, orf
}

func TestValidatePressureWithoutEnthalpy(t *testing.T) {
	net := network.New()
	a := net.AddNode("a")
	b := net.AddNode("b")
	c, _ := net.Connect("orifice", a, b)
	p := NewProblem(net, thermo.Air(), thermo.Pure("air"))
	p.SetPressureBC(a, 200000) // no enthalpy or temperature
	p.SetPressureBC(b, 101325)
	p.SetTemperatureBC(b, 300)
	p.SetDevice(c, &device.Orifice{Cd: 0.6, Area: 1e-4})
	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if simerr.KindOf(err) != simerr.KindProblemSetup {
		t.Errorf("expected setup error, got %v", err)
	}
}

func TestValidateMissingDevice(t *testing.T) {
	net := network.New()
	a := net.AddNode("a")
	b := net.AddNode("b")
	net.Connect("orifice", a, b)
	p := NewProblem(net, thermo.Air(), thermo.Pure("air"))
	p.SetPressureBC(a, 200000)
	p.SetTemperatureBC(a, 300)
	p.SetPressureBC(b, 101325)
	p.SetTemperatureBC(b, 300)
	if err := p.Validate(); err == nil {
		t.Fatal("expected failure for unregistered device")
	}
}

func TestNumFreeVars(t *testing.T) {
	net := network.New()
	a := net.AddNode("a")
	b := net.AddNode("b")
	mid := net.AddNode("mid")
	c1, _ := net.Connect("o1", a, mid)
	c2, _ := net.Connect("o2", mid, b)
	p := NewProblem(net, thermo.Air(), thermo.Pure("air"))
	p.SetDevice(c1, &device.Orifice{Cd: 0.6, Area: 1e-4})
	p.SetDevice(c2, &device.Orifice{Cd: 0.6, Area: 1e-4})

	if got := p.NumFreeVars(); got != 6 {
		t.Errorf("all free: expected 6, got %d", got)
	}
	p.SetPressureBC(a, 200000)
	p.SetTemperatureBC(a, 300)
	if got := p.NumFreeVars(); got != 4 {
		t.Errorf("one node fixed: expected 4, got %d", got)
	}
	p.SetEnthalpyBC(mid, 3e5)
	if got := p.NumFreeVars(); got != 3 {
		t.Errorf("mid enthalpy fixed: expected 3, got %d", got)
	}
}

func TestConvertTemperatureBCsIdempotent(t *testing.T) {
	p, _ := twoNodeOrifice(t)
	if err := p.ConvertTemperatureBCs(); err != nil {
		t.Fatalf("first conversion: %v", err)
	}
	h1 := append([]float64(nil), p.hBC...)
	if err := p.ConvertTemperatureBCs(); err != nil {
		t.Fatalf("second conversion: %v", err)
	}
	for i := range h1 {
		if p.hBC[i] != h1[i] {
			t.Errorf("node %d: enthalpy changed on re-conversion: %g vs %g", i, h1[i], p.hBC[i])
		}
	}
}

func TestConvertTemperatureRequiresPressure(t *testing.T) {
	net := network.New()
	a := net.AddNode("a")
	b := net.AddNode("b")
	c, _ := net.Connect("o", a, b)
	p := NewProblem(net, thermo.Air(), thermo.Pure("air"))
	p.SetTemperatureBC(a, 300)
	p.SetPressureBC(b, 101325)
	p.SetTemperatureBC(b, 300)
	p.SetDevice(c, &device.Orifice{Cd: 0.6, Area: 1e-4})
	if err := p.ConvertTemperatureBCs(); err == nil {
		t.Fatal("expected failure for temperature fix on pressure-free node")
	}
}

func TestSteadyTwoNodeOrifice(t *testing.T) {
	p, orf := twoNodeOrifice(t)
	if p.NumFreeVars() != 0 {
		t.Fatalf("expected fully determined problem, got %d free vars", p.NumFreeVars())
	}
	sol, err := p.Solve(StrategyStrict.Config())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if sol.Iterations != 0 {
		t.Errorf("zero free vars must take zero iterations, got %d", sol.Iterations)
	}
	if math.Abs(sol.Pressures[0]-200000) > 1.0 {
		t.Errorf("inlet pressure %g not within 1 Pa of boundary", sol.Pressures[0])
	}
	if math.Abs(sol.Pressures[1]-101325) > 1.0 {
		t.Errorf("outlet pressure %g not within 1 Pa of boundary", sol.Pressures[1])
	}
	if sol.MassFlows[orf.Index()] <= 0 {
		t.Errorf("expected strictly positive orifice flow, got %g", sol.MassFlows[orf.Index()])
	}
}

func TestSteadyJunction(t *testing.T) {
	net := network.New()
	in := net.AddNode("inlet")
	mid := net.AddNode("mid")
	out := net.AddNode("outlet")
	c1, _ := net.Connect("o1", in, mid)
	c2, _ := net.Connect("o2", mid, out)
	p := NewProblem(net, thermo.Air(), thermo.Pure("air"))
	p.SetPressureBC(in, 300000)
	p.SetTemperatureBC(in, 300)
	p.SetPressureBC(out, 101325)
	p.SetTemperatureBC(out, 290)
	p.SetDevice(c1, &device.Orifice{Cd: 0.62, Area: 1e-4})
	p.SetDevice(c2, &device.Orifice{Cd: 0.62, Area: 2e-4})

	sol, err := p.Solve(StrategyStrict.Config())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	pm := sol.Pressures[mid.Index()]
	if pm <= 101325 || pm >= 300000 {
		t.Errorf("junction pressure %g outside boundary bracket", pm)
	}
	// Flow continuity through the junction.
	if d := math.Abs(sol.MassFlows[0] - sol.MassFlows[1]); d > 1e-5 {
		t.Errorf("junction mass imbalance %g", d)
	}
	// With the only inflow coming from the inlet, the junction enthalpy
	// relaxes onto the inlet enthalpy.
	if d := math.Abs(sol.Enthalpies[mid.Index()] - sol.Enthalpies[in.Index()]); d > 1.0 {
		t.Errorf("junction enthalpy off by %g J/kg from upstream", d)
	}
	if sol.MassFlows[0] <= 0 {
		t.Errorf("expected forward flow, got %g", sol.MassFlows[0])
	}
}

func TestStrategyPresets(t *testing.T) {
	strict := StrategyStrict.Config()
	relaxed := StrategyRelaxed.Config()
	if relaxed.WeakFlowThreshold <= strict.WeakFlowThreshold {
		t.Error("relaxed must widen the weak-flow threshold")
	}
	if relaxed.MaxEnthalpyStep >= strict.MaxEnthalpyStep {
		t.Error("relaxed must tighten the enthalpy step bound")
	}
	if _, err := ParseStrategy("relaxed"); err != nil {
		t.Errorf("parse relaxed: %v", err)
	}
	if _, err := ParseStrategy("bogus"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
