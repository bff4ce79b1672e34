package device

import "github.com/nkarsten/flownet/internal/thermo"

// Pump raises pressure along its flow path. ShutoffDp is the pressure rise at
// zero flow, Pa; Coeff sets how flow scales with the remaining driving
// pressure. Efficiency converts hydraulic power to the power drawn from the
// shaft (and dumped into the stream as an enthalpy rise); zero is treated
// as ideal.
type Pump struct {
	ShutoffDp  float64 // Pa, at nominal speed
	Coeff      float64 // m2-equivalent
	Efficiency float64

	// Speed is the normalized shaft speed; the head scales with its square.
	// Zero means "not shaft-driven" and is treated as nominal.
	Speed float64
}

func (p *Pump) speed() float64 {
	if p.Speed == 0 {
		return 1
	}
	return p.Speed
}

func (p *Pump) efficiency() float64 {
	if p.Efficiency <= 0 {
		return 1
	}
	return p.Efficiency
}

// driving is the net pressure difference pushing flow forward: the pump adds
// its speed-scaled shutoff head on top of the port difference.
func (p *Pump) driving(ps PortStates) float64 {
	s := p.speed()
	return ps.In.Pressure() - ps.Out.Pressure() + p.ShutoffDp*s*s
}

func (p *Pump) MassFlow(b thermo.Backend, ps PortStates) (float64, error) {
	dp := p.driving(ps)
	rho := upstreamDensity(ps, dp)
	return signedSqrtFlow(p.Coeff, rho, dp), nil
}

func (p *Pump) DeltaP(b thermo.Backend, ps PortStates) (float64, error) {
	return ps.Out.Pressure() - ps.In.Pressure(), nil
}

// ShaftPower is the hydraulic power over efficiency, positive: the pump draws
// power from the shaft.
func (p *Pump) ShaftPower(b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	rise := ps.Out.Pressure() - ps.In.Pressure()
	rho := upstreamDensity(ps, mdot)
	hyd := mdot * rise / rho
	if hyd < 0 {
		hyd = 0
	}
	return hyd / p.efficiency(), nil
}

// OutletEnthalpy adds the pump work to the stream.
func (p *Pump) OutletEnthalpy(b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	power, err := p.ShaftPower(b, ps, mdot)
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
	return hUp + power/m, nil
}
