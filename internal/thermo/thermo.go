package thermo

import "github.com/nkarsten/flownet/internal/network"

// InputMode selects which pair of properties a flash call fixes.
type InputMode int

const (
	ModePH InputMode = iota // pressure + specific enthalpy
	ModePT                  // pressure + temperature
)

// Input is a flash specification for Backend.State.
type Input struct {
	Mode        InputMode
	Pressure    float64 // Pa
	Enthalpy    float64 // J/kg, ModePH only
	Temperature float64 // K, ModePT only
}

func PH(p, h float64) Input {
	return Input{Mode: ModePH, Pressure: p, Enthalpy: h}
}

func PT(p, t float64) Input {
	return Input{Mode: ModePT, Pressure: p, Temperature: t}
}

// Composition is a fixed fluid mixture by mole fraction.
type Composition struct {
	Species   []string
	MoleFracs []float64
}

func Pure(species string) Composition {
	return Composition{Species: []string{species}, MoleFracs: []float64{1.0}}
}

// State is a resolved thermodynamic state at one point.
type State interface {
	Pressure() float64     // Pa
	Temperature() float64  // K
	Enthalpy() float64     // J/kg
	Density() float64      // kg/m3
	Cp() float64           // J/(kg K)
	Cv() float64           // J/(kg K)
	Gamma() float64        // Cp/Cv
	SpeedOfSound() float64 // m/s
}

// Backend computes fluid states. Implementations reject inputs outside their
// validity domain with a KindInvalidState error.
type Backend interface {
	State(in Input, comp Composition) (State, error)
	Supports(comp Composition) bool
}

// StorageInverter recovers a state from lumped storage quantities
// (density and specific internal energy), used when decoding control-volume
// mass/energy into boundary conditions.
type StorageInverter interface {
	StateFromRhoU(rho, u float64, comp Composition) (State, error)
}

// StateResult is the outcome of a policy create: the state plus whether the
// surrogate fallback path produced it.
type StateResult struct {
	State    State
	Fallback bool
}

// StatePolicy creates node states, optionally recovering from backend
// rejection. One policy instance serves exactly one run.
type StatePolicy interface {
	CreateState(p, h float64, comp Composition, backend Backend, node network.NodeID) (StateResult, error)
}
