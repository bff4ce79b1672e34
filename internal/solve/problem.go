package solve

import (
	"math"

	"github.com/nkarsten/flownet/internal/device"
	"github.com/nkarsten/flownet/internal/network"
	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/thermo"
)

// Problem binds a network, a property backend, a composition, per-node
// boundary conditions and per-component devices into a solvable steady-state
// system. It is assembled once per run, mutated only through the setters,
// then solved read-mostly.
type Problem struct {
	net     *network.Network
	backend thermo.Backend
	comp    thermo.Composition
	policy  thermo.StatePolicy

	pBC, hBC, tBC    []float64
	pSet, hSet, tSet []bool

	devices []device.Device
}

func NewProblem(net *network.Network, backend thermo.Backend, comp thermo.Composition) *Problem {
	n := net.NumNodes()
	return &Problem{
		net:     net,
		backend: backend,
		comp:    comp,
		policy:  thermo.StrictPolicy{},
		pBC:     make([]float64, n),
		hBC:     make([]float64, n),
		tBC:     make([]float64, n),
		pSet:    make([]bool, n),
		hSet:    make([]bool, n),
		tSet:    make([]bool, n),
		devices: make([]device.Device, net.NumComps()),
	}
}

// SetPolicy replaces the node-state creation policy (default: strict).
func (p *Problem) SetPolicy(policy thermo.StatePolicy) { p.policy = policy }

func (p *Problem) Network() *network.Network       { return p.net }
func (p *Problem) Backend() thermo.Backend         { return p.backend }
func (p *Problem) Composition() thermo.Composition { return p.comp }

func (p *Problem) SetPressureBC(n network.NodeID, v float64) {
	p.pBC[n.Index()] = v
	p.pSet[n.Index()] = true
}

func (p *Problem) SetEnthalpyBC(n network.NodeID, v float64) {
	p.hBC[n.Index()] = v
	p.hSet[n.Index()] = true
}

func (p *Problem) SetTemperatureBC(n network.NodeID, v float64) {
	p.tBC[n.Index()] = v
	p.tSet[n.Index()] = true
}

// ClearEnthalpyBC frees a node's enthalpy again, leaving other fixes alone.
func (p *Problem) ClearEnthalpyBC(n network.NodeID) {
	p.hSet[n.Index()] = false
}

// NodeEnthalpyFixed reports whether the node's enthalpy is pinned by an
// enthalpy or temperature boundary condition.
func (p *Problem) NodeEnthalpyFixed(i int) bool {
	return p.hSet[i] || p.tSet[i]
}

// ClearBCs removes all boundary conditions from a node.
func (p *Problem) ClearBCs(n network.NodeID) {
	i := n.Index()
	p.pSet[i] = false
	p.hSet[i] = false
	p.tSet[i] = false
}

func (p *Problem) SetDevice(c network.CompID, d device.Device) {
	p.devices[c.Index()] = d
}

// Device returns the device registered for a component.
func (p *Problem) Device(c network.CompID) device.Device { return p.devices[c.Index()] }

// Validate checks the assembly preconditions: boundary arrays sized to the
// node count, every pressure-fixed node also enthalpy- or temperature-fixed,
// every component backed by a device, every node carrying a free unknown
// attached to at least one component, and the composition supported.
func (p *Problem) Validate() error {
	n := p.net.NumNodes()
	if len(p.pBC) != n || len(p.hBC) != n || len(p.tBC) != n {
		return simerr.Setupf("boundary condition arrays do not match node count %d", n)
	}
	if !p.backend.Supports(p.comp) {
		return simerr.Setupf("property backend does not support the composition")
	}
	for i := 0; i < n; i++ {
		if p.pSet[i] && !p.hSet[i] && !p.tSet[i] {
			return simerr.Setupf("pressure fixed without enthalpy or temperature").AtNode(i)
		}
		if p.tSet[i] && !p.pSet[i] {
			return simerr.Setupf("temperature boundary requires a fixed pressure").AtNode(i)
		}
		free := !p.pSet[i] || (!p.hSet[i] && !p.tSet[i])
		if free && len(p.net.Ports(network.NodeID(i+1))) == 0 {
			return simerr.Setupf("free node has no incident components").AtNode(i)
		}
	}
	for ci, d := range p.devices {
		if d == nil {
			return simerr.Setupf("component has no registered device").AtComp(ci)
		}
	}
	return nil
}

// NumFreeVars counts the Newton unknowns: per node, one for a free pressure
// plus one when both enthalpy and temperature are free.
func (p *Problem) NumFreeVars() int {
	count := 0
	for i := range p.pSet {
		if !p.pSet[i] {
			count++
		}
		if !p.hSet[i] && !p.tSet[i] {
			count++
		}
	}
	return count
}

// ConvertTemperatureBCs lazily converts each temperature boundary condition
// to an enthalpy one with a single backend call per node. Idempotent:
// converted nodes clear their temperature fix, so re-invoking is a no-op.
func (p *Problem) ConvertTemperatureBCs() error {
	for i := range p.tSet {
		if !p.tSet[i] {
			continue
		}
		if !p.pSet[i] {
			return simerr.Setupf("temperature boundary requires a fixed pressure").AtNode(i)
		}
		st, err := p.backend.State(thermo.PT(p.pBC[i], p.tBC[i]), p.comp)
		if err != nil {
			return simerr.Setupf("temperature boundary conversion failed at p=%g Pa T=%g K",
				p.pBC[i], p.tBC[i]).AtNode(i)
		}
		p.hBC[i] = st.Enthalpy()
		p.hSet[i] = true
		p.tSet[i] = false
	}
	return nil
}

// varIndex maps node index -> position of its pressure/enthalpy unknown in
// the interleaved vector, or -1 when fixed by a boundary condition.
type varIndex struct {
	pVar, hVar []int
	kinds      []VarKind
}

func (p *Problem) buildVarIndex() varIndex {
	n := p.net.NumNodes()
	vi := varIndex{pVar: make([]int, n), hVar: make([]int, n)}
	for i := 0; i < n; i++ {
		vi.pVar[i] = -1
		vi.hVar[i] = -1
		if !p.pSet[i] {
			vi.pVar[i] = len(vi.kinds)
			vi.kinds = append(vi.kinds, VarPressure)
		}
		if !p.hSet[i] && !p.tSet[i] {
			vi.hVar[i] = len(vi.kinds)
			vi.kinds = append(vi.kinds, VarEnthalpy)
		}
	}
	return vi
}

// decode expands the unknown vector into full per-node pressure and enthalpy
// arrays with boundary values filled in.
func (p *Problem) decode(vi varIndex, x []float64, pr, en []float64) {
	for i := range pr {
		if vi.pVar[i] >= 0 {
			pr[i] = x[vi.pVar[i]]
		} else {
			pr[i] = p.pBC[i]
		}
		if vi.hVar[i] >= 0 {
			en[i] = x[vi.hVar[i]]
		} else {
			en[i] = p.hBC[i]
		}
	}
}

// evaluate resolves node states and per-component flows at the given
// per-node (pressure, enthalpy) values.
func (p *Problem) evaluate(pr, en []float64) ([]thermo.State, []float64, []float64, error) {
	n := p.net.NumNodes()
	states := make([]thermo.State, n)
	for i := 0; i < n; i++ {
		res, err := p.policy.CreateState(pr[i], en[i], p.comp, p.backend, network.NodeID(i+1))
		if err != nil {
			return nil, nil, nil, err
		}
		states[i] = res.State
	}
	nc := p.net.NumComps()
	flows := make([]float64, nc)
	carried := make([]float64, nc)
	for ci, c := range p.net.Comps() {
		ps := device.PortStates{In: states[c.Inlet.Index()], Out: states[c.Outlet.Index()]}
		mdot, err := p.devices[ci].MassFlow(p.backend, ps)
		if err != nil {
			return nil, nil, nil, err
		}
		hc, err := device.CarriedEnthalpy(p.devices[ci], p.backend, ps, mdot)
		if err != nil {
			return nil, nil, nil, err
		}
		flows[ci] = mdot
		carried[ci] = hc
	}
	return states, flows, carried, nil
}

// residual assembles the mass balance for each free pressure and the
// (weak-flow regularized) energy balance for each free enthalpy.
func (p *Problem) residual(vi varIndex, cfg NewtonConfig, x []float64) ([]float64, error) {
	n := p.net.NumNodes()
	pr := make([]float64, n)
	en := make([]float64, n)
	p.decode(vi, x, pr, en)

	_, flows, carried, err := p.evaluate(pr, en)
	if err != nil {
		return nil, err
	}

	massNet := make([]float64, n)
	inMass := make([]float64, n)
	inEnergy := make([]float64, n)
	for ci, c := range p.net.Comps() {
		mdot := flows[ci]
		hc := carried[ci]
		in := c.Inlet.Index()
		out := c.Outlet.Index()
		massNet[in] -= mdot
		massNet[out] += mdot
		if mdot >= 0 {
			inMass[out] += mdot
			inEnergy[out] += mdot * hc
		} else {
			inMass[in] += -mdot
			inEnergy[in] += -mdot * hc
		}
	}

	r := make([]float64, len(vi.kinds))
	for i := 0; i < n; i++ {
		if vi.pVar[i] >= 0 {
			r[vi.pVar[i]] = massNet[i]
		}
		if vi.hVar[i] >= 0 {
			r[vi.hVar[i]] = p.energyResidual(i, en, inMass[i], inEnergy[i], cfg)
		}
	}
	return r, nil
}

// energyResidual is the mixed-enthalpy mismatch at a node in J/kg. Below the
// weak-flow threshold the balance is ill-conditioned, so it is blended with
// a pin toward the mean enthalpy of the node's neighbors.
func (p *Problem) energyResidual(i int, en []float64, inMass, inEnergy float64, cfg NewtonConfig) float64 {
	denom := math.Max(inMass, cfg.WeakFlowThreshold)
	r := (inEnergy - en[i]*inMass) / denom

	w := 1.0 - inMass/cfg.WeakFlowThreshold
	if w <= 0 {
		return r
	}
	if w > 1 {
		w = 1
	}
	sum, count := 0.0, 0
	for _, port := range p.net.Ports(network.NodeID(i + 1)) {
		c := p.net.Comp(port.Comp)
		other := c.Inlet.Index()
		if other == i {
			other = c.Outlet.Index()
		}
		sum += en[other]
		count++
	}
	if count == 0 {
		return r
	}
	hRef := sum / float64(count)
	return r + w*cfg.WeakFlowEnthalpyScale*(hRef-en[i])
}

// initialGuess seeds free pressures with the mean fixed pressure and free
// enthalpies with the mean fixed enthalpy, falling back to ambient values.
func (p *Problem) initialGuess(vi varIndex) []float64 {
	pSum, pCount := 0.0, 0
	hSum, hCount := 0.0, 0
	for i := range p.pSet {
		if p.pSet[i] {
			pSum += p.pBC[i]
			pCount++
		}
		if p.hSet[i] {
			hSum += p.hBC[i]
			hCount++
		}
	}
	pGuess := 101325.0
	if pCount > 0 {
		pGuess = pSum / float64(pCount)
	}
	hGuess := 3.0e5
	if hCount > 0 {
		hGuess = hSum / float64(hCount)
	}
	x := make([]float64, len(vi.kinds))
	for i, k := range vi.kinds {
		if k == VarPressure {
			x[i] = pGuess
		} else {
			x[i] = hGuess
		}
	}
	return x
}

// SteadySolution is a consistent network state: per-node values, resolved
// thermodynamic states and per-component mass flows.
type SteadySolution struct {
	Pressures  []float64
	Enthalpies []float64
	States     []thermo.State
	MassFlows  []float64
	Carried    []float64 // enthalpy transported by each component, J/kg

	Iterations   int
	ResidualNorm float64
}

// Solve validates, converts temperature boundaries, and runs damped Newton
// iteration over the interleaved (pressure, enthalpy) unknowns.
func (p *Problem) Solve(cfg NewtonConfig) (*SteadySolution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.ConvertTemperatureBCs(); err != nil {
		return nil, err
	}

	vi := p.buildVarIndex()
	f := func(x []float64) ([]float64, error) { return p.residual(vi, cfg, x) }
	res, err := SolveNewton(p.initialGuess(vi), vi.kinds, f, Forward(f, DefaultFDEpsilon), cfg)
	if err != nil {
		return nil, err
	}

	n := p.net.NumNodes()
	pr := make([]float64, n)
	en := make([]float64, n)
	p.decode(vi, res.X, pr, en)
	states, flows, carried, err := p.evaluate(pr, en)
	if err != nil {
		return nil, err
	}
	return &SteadySolution{
		Pressures:    pr,
		Enthalpies:   en,
		States:       states,
		MassFlows:    flows,
		Carried:      carried,
		Iterations:   res.Iterations,
		ResidualNorm: res.ResidualNorm,
	}, nil
}
