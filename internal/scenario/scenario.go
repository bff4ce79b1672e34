// Package scenario bundles ready-to-solve demo systems shared by the CLI and
// the end-to-end tests.
package scenario

import (
	"sort"

	"github.com/nkarsten/flownet/internal/device"
	"github.com/nkarsten/flownet/internal/network"
	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/solve"
	"github.com/nkarsten/flownet/internal/thermo"
	"github.com/nkarsten/flownet/internal/transient"
)

// Setup is a built scenario: a steady problem and, for transient scenarios,
// a network model wrapping it.
type Setup struct {
	Problem *solve.Problem
	Model   *transient.NetworkModel
}

type Registry struct {
	builders map[string]func(strategy solve.Strategy) (*Setup, error)
}

func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]func(solve.Strategy) (*Setup, error))}
	r.builders["orifice"] = buildOrifice
	r.builders["blowdown"] = buildBlowdown
	r.builders["pumploop"] = buildPumpLoop
	return r
}

func (r *Registry) Build(name string, strategy solve.Strategy) (*Setup, error) {
	fn, ok := r.builders[name]
	if !ok {
		return nil, simerr.InvalidArgf("unknown scenario %q", name)
	}
	return fn(strategy)
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildOrifice is the minimal steady case: two fixed-state nodes joined by
// one orifice, 200 kPa / 300 K upstream against ambient downstream.
func buildOrifice(strategy solve.Strategy) (*Setup, error) {
	net := network.New()
	inlet := net.AddNode("inlet")
	outlet := net.AddNode("outlet")
	orf, err := net.Connect("orifice", inlet, outlet)
	if err != nil {
		return nil, err
	}

	prob := solve.NewProblem(net, thermo.Air(), thermo.Pure("air"))
	prob.SetPressureBC(inlet, 200000)
	prob.SetTemperatureBC(inlet, 300)
	prob.SetPressureBC(outlet, 101325)
	prob.SetTemperatureBC(outlet, 300)
	prob.SetDevice(orf, &device.Orifice{Cd: 0.62, Area: 1e-4})
	return &Setup{Problem: prob}, nil
}

// buildBlowdown discharges a pressurized tank through an opening valve into
// ambient: one control volume, one actuated valve, strong startup transient.
func buildBlowdown(strategy solve.Strategy) (*Setup, error) {
	net := network.New()
	tank := net.AddNode("tank")
	ambient := net.AddNode("ambient")
	vv, err := net.Connect("vent valve", tank, ambient)
	if err != nil {
		return nil, err
	}

	prob := solve.NewProblem(net, thermo.Air(), thermo.Pure("air"))
	prob.SetPressureBC(ambient, 101325)
	prob.SetTemperatureBC(ambient, 300)
	valve := &device.Valve{Kv: 5e-5, Opening: 0.05}
	prob.SetDevice(vv, valve)

	model := transient.NewNetworkModel(prob, strategy)
	model.AddVolume(&transient.ControlVolume{
		Node:         tank,
		Volume:       0.2,
		Pressure0:    500000,
		Temperature0: 330,
	})
	model.AddActuator(&transient.Actuator{
		Tau:       0.2,
		RateLimit: 2.0,
		Command:   func(t float64) float64 { return 1.0 },
		Valve:     valve,
		Initial:   0.05,
	})
	return &Setup{Problem: prob, Model: model}, nil
}

// buildPumpLoop pushes flow from a reservoir through a shaft-driven pump and
// a pipe into a back-pressure boundary, with one free junction between pump
// and pipe.
func buildPumpLoop(strategy solve.Strategy) (*Setup, error) {
	net := network.New()
	res := net.AddNode("reservoir")
	mid := net.AddNode("pump discharge")
	sink := net.AddNode("sink")
	pc, err := net.Connect("feed pump", res, mid)
	if err != nil {
		return nil, err
	}
	pp, err := net.Connect("discharge pipe", mid, sink)
	if err != nil {
		return nil, err
	}

	prob := solve.NewProblem(net, thermo.Air(), thermo.Pure("air"))
	prob.SetPressureBC(res, 101325)
	prob.SetTemperatureBC(res, 300)
	prob.SetPressureBC(sink, 101325)
	prob.SetTemperatureBC(sink, 305)
	prob.SetDevice(pc, &device.Pump{ShutoffDp: 80000, Coeff: 3e-5, Efficiency: 0.7})
	prob.SetDevice(pp, &device.Pipe{Length: 12, Diameter: 0.05, Friction: 0.025})

	model := transient.NewNetworkModel(prob, strategy)
	shaft := &transient.Shaft{
		Inertia:   0.8,
		LossCoeff: 0.02,
		OmegaMin:  5.0,
		Omega0:    260.0,
		OmegaRef:  300.0,
	}
	shaft.Attach(pc)
	model.AddShaft(shaft)
	return &Setup{Problem: prob, Model: model}, nil
}
