package transient

import (
	"github.com/nkarsten/flownet/internal/network"
	"github.com/nkarsten/flownet/internal/simerr"
	"github.com/nkarsten/flownet/internal/thermo"
)

// ControlVolume is a lumped mass/energy store at one node. Its (mass, energy)
// pair lives in the transient state vector; decoding back to a (pressure,
// enthalpy) boundary condition goes through the backend's storage inversion.
type ControlVolume struct {
	Node   network.NodeID
	Volume float64 // m3

	// initial fill
	Pressure0    float64 // Pa
	Temperature0 float64 // K

	// WallHeat is an optional external heat input to the volume contents, W.
	WallHeat func(t float64) float64
}

// InitialStorage resolves the initial (mass, internal energy) from the fill
// conditions.
func (cv *ControlVolume) InitialStorage(backend thermo.Backend, comp thermo.Composition) (mass, energy float64, err error) {
	st, err := backend.State(thermo.PT(cv.Pressure0, cv.Temperature0), comp)
	if err != nil {
		return 0, 0, err
	}
	mass = st.Density() * cv.Volume
	// u = h - p/rho
	u := st.Enthalpy() - st.Pressure()/st.Density()
	return mass, mass * u, nil
}

// Decode converts stored (mass, energy) back to a thermodynamic state.
func (cv *ControlVolume) Decode(backend thermo.Backend, comp thermo.Composition, mass, energy float64) (thermo.State, error) {
	inv, ok := backend.(thermo.StorageInverter)
	if !ok {
		return nil, simerr.Setupf("property backend cannot invert storage states").AtNode(cv.Node.Index())
	}
	if mass <= 0 {
		return nil, simerr.InvalidStatef("control volume emptied: mass %g kg", mass).AtNode(cv.Node.Index())
	}
	return inv.StateFromRhoU(mass/cv.Volume, energy/mass, comp)
}
