package device

import "github.com/nkarsten/flownet/internal/thermo"

// Heater adds a fixed heat rate to the stream through a small fixed
// restriction.
type Heater struct {
	Kv    float64 // flow coefficient of the heater passage, m2-equivalent
	Power float64 // W
}

func (h *Heater) MassFlow(b thermo.Backend, ps PortStates) (float64, error) {
	dp := ps.In.Pressure() - ps.Out.Pressure()
	rho := upstreamDensity(ps, dp)
	return signedSqrtFlow(h.Kv, rho, dp), nil
}

func (h *Heater) HeatRate(b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	return h.Power, nil
}

func (h *Heater) OutletEnthalpy(b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	hUp := ps.In.Enthalpy()
	if mdot < 0 {
		hUp = ps.Out.Enthalpy()
	}
	m := mdot
	if m < 0 {
		m = -m
	}
	if m < 1e-9 {
		return hUp, nil
	}
	return hUp + h.Power/m, nil
}
