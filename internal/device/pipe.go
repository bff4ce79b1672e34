package device

import (
	"math"

	"github.com/nkarsten/flownet/internal/thermo"
)

// Pipe is a straight duct with a constant Darcy friction factor.
type Pipe struct {
	Length   float64 // m
	Diameter float64 // m
	Friction float64 // Darcy friction factor, dimensionless
}

func (p *Pipe) area() float64 {
	return math.Pi * p.Diameter * p.Diameter / 4.0
}

// coeff folds the friction loss f*L/D into an equivalent orifice coefficient.
func (p *Pipe) coeff() float64 {
	return p.area() / math.Sqrt(p.Friction*p.Length/p.Diameter)
}

func (p *Pipe) MassFlow(b thermo.Backend, ps PortStates) (float64, error) {
	dp := ps.In.Pressure() - ps.Out.Pressure()
	rho := upstreamDensity(ps, dp)
	return signedSqrtFlow(p.coeff(), rho, dp), nil
}

func (p *Pipe) DeltaP(b thermo.Backend, ps PortStates) (float64, error) {
	return ps.In.Pressure() - ps.Out.Pressure(), nil
}
