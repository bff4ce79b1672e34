package device

import "github.com/nkarsten/flownet/internal/thermo"

// Orifice is a fixed flow restriction with discharge coefficient Cd and
// throat area in m2.
type Orifice struct {
	Cd   float64
	Area float64
}

func (o *Orifice) MassFlow(b thermo.Backend, ps PortStates) (float64, error) {
	dp := ps.In.Pressure() - ps.Out.Pressure()
	rho := upstreamDensity(ps, dp)
	return signedSqrtFlow(o.Cd*o.Area, rho, dp), nil
}

func (o *Orifice) DeltaP(b thermo.Backend, ps PortStates) (float64, error) {
	return ps.In.Pressure() - ps.Out.Pressure(), nil
}
