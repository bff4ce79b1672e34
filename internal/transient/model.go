package transient

import (
	"github.com/nkarsten/flownet/internal/device"
	"github.com/nkarsten/flownet/internal/network"
	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/solve"
	"github.com/nkarsten/flownet/internal/thermo"
)

// NetworkModel wraps a steady Problem plus auxiliary lumped dynamics into a
// time-derivative model. State layout: per control volume (mass, energy)
// interleaved, then shaft angular velocities, then actuator positions. The
// layout is internal; only Add/Scale fidelity is contractual.
//
// One model instance serves exactly one run and must not be shared across
// concurrent derivative evaluations.
type NetworkModel struct {
	prob     *solve.Problem
	cfg      solve.NewtonConfig
	fallback *thermo.FallbackPolicy // nil when running strict

	volumes   []*ControlVolume
	shafts    []*Shaft
	actuators []*Actuator

	jcfg      JunctionConfig
	junctions map[int]*JunctionThermalState // node index -> lagged state

	x0 State
}

func NewNetworkModel(prob *solve.Problem, strategy solve.Strategy) *NetworkModel {
	return &NetworkModel{
		prob:      prob,
		cfg:       strategy.Config(),
		jcfg:      DefaultJunctionConfig(),
		junctions: make(map[int]*JunctionThermalState),
	}
}

func (m *NetworkModel) AddVolume(cv *ControlVolume)  { m.volumes = append(m.volumes, cv) }
func (m *NetworkModel) AddShaft(s *Shaft)            { m.shafts = append(m.shafts, s) }
func (m *NetworkModel) AddActuator(a *Actuator)      { m.actuators = append(m.actuators, a) }
func (m *NetworkModel) SetJunctionConfig(c JunctionConfig) { m.jcfg = c }

// UseFallback installs a surrogate fallback policy on the wrapped problem.
// Surrogates are re-anchored from each accepted step's solved states.
func (m *NetworkModel) UseFallback(p *thermo.FallbackPolicy) {
	m.fallback = p
	m.prob.SetPolicy(p)
}

// Junction returns the lagged thermal state of a junction node, or nil.
func (m *NetworkModel) Junction(n network.NodeID) *JunctionThermalState {
	return m.junctions[n.Index()]
}

func (m *NetworkModel) offsets() (shaftOff, actOff, dim int) {
	shaftOff = 2 * len(m.volumes)
	actOff = shaftOff + len(m.shafts)
	dim = actOff + len(m.actuators)
	return
}

// Init resolves initial storage from fill conditions, runs one strict
// algebraic steady solve to seed junction lagged enthalpies, and freezes the
// initial state vector. Must be called once before integration.
func (m *NetworkModel) Init() (State, error) {
	_, _, dim := m.offsets()
	x := make(State, dim)
	for i, cv := range m.volumes {
		mass, energy, err := cv.InitialStorage(m.prob.Backend(), m.prob.Composition())
		if err != nil {
			return nil, err
		}
		x[2*i] = mass
		x[2*i+1] = energy
	}
	shaftOff, actOff, _ := m.offsets()
	for j, s := range m.shafts {
		x[shaftOff+j] = s.Omega0
	}
	for k, a := range m.actuators {
		a.Valve.Opening = ClampPosition(a.Initial)
		x[actOff+k] = a.Valve.Opening
	}

	// Seed junction enthalpies from an exact algebraic solve at t=0.
	sol, err := m.solveAt(0, x, true)
	if err != nil {
		return nil, err
	}
	for i := range m.junctionNodes() {
		m.junctions[i] = &JunctionThermalState{Enthalpy: sol.Enthalpies[i]}
	}
	m.x0 = x.Clone()
	return m.x0, nil
}

// junctionNodes identifies zero-storage nodes whose enthalpy is not fixed by
// a boundary condition or a control volume: the nodes needing relaxation.
func (m *NetworkModel) junctionNodes() map[int]struct{} {
	isVolume := make(map[int]struct{}, len(m.volumes))
	for _, cv := range m.volumes {
		isVolume[cv.Node.Index()] = struct{}{}
	}
	out := make(map[int]struct{})
	for i := 0; i < m.prob.Network().NumNodes(); i++ {
		if _, ok := isVolume[i]; ok {
			continue
		}
		if m.prob.NodeEnthalpyFixed(i) {
			continue
		}
		out[i] = struct{}{}
	}
	return out
}

func (m *NetworkModel) InitialState() State {
	return m.x0.Clone()
}

// solveAt applies the transient state to the problem's boundary conditions
// and runs the steady solver. With algebraic=true junction enthalpies stay
// free unknowns; otherwise (per the configured mode) lagged values are
// imposed.
func (m *NetworkModel) solveAt(t float64, x State, algebraic bool) (*solve.SteadySolution, error) {
	shaftOff, actOff, dim := m.offsets()
	if len(x) != dim {
		return nil, simerr.InvalidArgf("state length %d does not match model dimension %d", len(x), dim)
	}

	for k, a := range m.actuators {
		a.Valve.Opening = ClampPosition(x[actOff+k])
	}
	for j, s := range m.shafts {
		omega := x[shaftOff+j]
		if s.OmegaRef <= 0 {
			continue
		}
		for _, cid := range s.Attached() {
			if pump, ok := m.prob.Device(cid).(*device.Pump); ok {
				pump.Speed = omega / s.OmegaRef
			}
		}
	}

	for i, cv := range m.volumes {
		st, err := cv.Decode(m.prob.Backend(), m.prob.Composition(), x[2*i], x[2*i+1])
		if err != nil {
			return nil, err
		}
		m.prob.SetPressureBC(cv.Node, st.Pressure())
		m.prob.SetEnthalpyBC(cv.Node, st.Enthalpy())
	}

	useLagged := !algebraic && m.jcfg.Mode != ModeStrictAlgebraic
	for i, js := range m.junctions {
		node := network.NodeID(i + 1)
		if useLagged {
			m.prob.SetEnthalpyBC(node, js.Enthalpy)
		} else {
			m.prob.ClearEnthalpyBC(node)
		}
	}

	sol, err := m.prob.Solve(m.cfg)
	if err != nil {
		if simerr.KindOf(err) == simerr.KindConvergenceFailed {
			return nil, simerr.AsRetryable(err)
		}
		return nil, err
	}
	return sol, nil
}

// Solve exposes the consistent network solution at (t, x), for recording and
// presentation.
func (m *NetworkModel) Solve(t float64, x State) (*solve.SteadySolution, error) {
	return m.solveAt(t, x, false)
}

// RHS evaluates the transient derivative: decode storage, actuate devices,
// re-solve the network, then assemble mass/energy/torque/position rates.
func (m *NetworkModel) RHS(t float64, x State) (State, error) {
	sol, err := m.solveAt(t, x, false)
	if err != nil {
		return nil, err
	}

	shaftOff, actOff, dim := m.offsets()
	dx := make(State, dim)
	net := m.prob.Network()

	for i, cv := range m.volumes {
		ni := cv.Node.Index()
		var dm, de float64
		for _, port := range net.Ports(cv.Node) {
			ci := port.Comp.Index()
			mdot := sol.MassFlows[ci]
			hc := sol.Carried[ci]
			if !port.Inbound {
				mdot = -mdot
			}
			dm += mdot
			if mdot >= 0 {
				de += mdot * hc
			} else {
				de += mdot * sol.Enthalpies[ni]
			}
		}
		if cv.WallHeat != nil {
			de += cv.WallHeat(t)
		}
		dx[2*i] = dm
		dx[2*i+1] = de
	}

	for j, s := range m.shafts {
		omega := x[shaftOff+j]
		var torqueSum float64
		for _, cid := range s.Attached() {
			ci := cid.Index()
			c := net.Comp(cid)
			ps := device.PortStates{
				In:  sol.States[c.Inlet.Index()],
				Out: sol.States[c.Outlet.Index()],
			}
			power, err := device.ShaftPowerOf(m.prob.Device(cid), m.prob.Backend(), ps, sol.MassFlows[ci])
			if err != nil {
				return nil, err
			}
			torqueSum += s.Torque(power, omega)
		}
		dx[shaftOff+j] = s.Accel(torqueSum, omega)
	}

	for k, a := range m.actuators {
		dx[actOff+k] = a.Deriv(t, ClampPosition(x[actOff+k]))
	}

	return dx, nil
}

// StepAccepted relaxes junction lagged enthalpies toward the freshly mixed
// targets at the accepted state, and re-anchors fallback surrogates from the
// solved states. Called by the runner once per successful step with the step
// size actually taken.
func (m *NetworkModel) StepAccepted(t, dt float64, x State) {
	sol, err := m.solveAt(t, x, false)
	if err != nil {
		// Leave the lagged values as they are; the next RHS will retry.
		return
	}
	m.relaxJunctions(dt, sol)
	if m.fallback != nil {
		for i, st := range sol.States {
			m.fallback.RegisterSurrogate(network.NodeID(i+1), thermo.SurrogateFromState(st))
		}
	}
}

// relaxJunctions moves each lagged junction enthalpy toward the mixed target
// at the solved state. Strict-algebraic closure has no lagged values to move.
func (m *NetworkModel) relaxJunctions(dt float64, sol *solve.SteadySolution) {
	if m.jcfg.Mode == ModeStrictAlgebraic {
		return
	}
	net := m.prob.Network()
	for i, js := range m.junctions {
		var inMass, inEnergy float64
		for _, port := range net.Ports(network.NodeID(i + 1)) {
			ci := port.Comp.Index()
			mdot := sol.MassFlows[ci]
			if !port.Inbound {
				mdot = -mdot
			}
			if mdot > 0 {
				inMass += mdot
				inEnergy += mdot * sol.Carried[ci]
			}
		}
		target := js.Enthalpy
		if inMass > 1e-12 {
			target = inEnergy / inMass
		}
		js.UpdateRelaxed(dt, target, m.jcfg)
	}
}
