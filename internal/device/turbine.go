package device

import "github.com/nkarsten/flownet/internal/thermo"

// Turbine expands the stream and delivers the recovered power to a shaft.
type Turbine struct {
	Cd         float64
	Area       float64
	Efficiency float64
}

func (t *Turbine) MassFlow(b thermo.Backend, ps PortStates) (float64, error) {
	dp := ps.In.Pressure() - ps.Out.Pressure()
	rho := upstreamDensity(ps, dp)
	return signedSqrtFlow(t.Cd*t.Area, rho, dp), nil
}

func (t *Turbine) DeltaP(b thermo.Backend, ps PortStates) (float64, error) {
	return ps.In.Pressure() - ps.Out.Pressure(), nil
}

// ShaftPower is negative: recovered hydraulic power is delivered to the shaft.
func (t *Turbine) ShaftPower(b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	drop := ps.In.Pressure() - ps.Out.Pressure()
	rho := upstreamDensity(ps, mdot)
	hyd := mdot * drop / rho
	if hyd < 0 {
		hyd = 0
	}
	return -t.Efficiency * hyd, nil
}

// OutletEnthalpy removes the extracted work from the stream.
func (t *Turbine) OutletEnthalpy(b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	power, err := t.ShaftPower(b, ps, mdot)
	if err != nil {
		return 0, err
	}
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
	// power is negative (delivered to the shaft), so this lowers h.
	return hUp + power/m, nil
}
