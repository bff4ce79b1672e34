package device

import "github.com/nkarsten/flownet/internal/thermo"

// minOpening keeps a shut valve's flow law from collapsing to the constant
// zero function, which would make the mass-balance Jacobian singular.
const minOpening = 1e-6

// Valve is an actuated restriction. Opening is the normalized position in
// [0,1] and scales the flow coefficient linearly; an actuator may drive it
// during a transient run.
type Valve struct {
	Kv      float64 // flow coefficient at full opening, m2-equivalent
	Opening float64
}

func (v *Valve) effective() float64 {
	op := v.Opening
	if op < minOpening {
		op = minOpening
	}
	if op > 1 {
		op = 1
	}
	return op * v.Kv
}

func (v *Valve) MassFlow(b thermo.Backend, ps PortStates) (float64, error) {
	dp := ps.In.Pressure() - ps.Out.Pressure()
	rho := upstreamDensity(ps, dp)
	return signedSqrtFlow(v.effective(), rho, dp), nil
}

func (v *Valve) DeltaP(b thermo.Backend, ps PortStates) (float64, error) {
	return ps.In.Pressure() - ps.Out.Pressure(), nil
}
