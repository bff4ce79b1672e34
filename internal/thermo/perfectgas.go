package thermo

import (
	"math"

	"github.com/nkarsten/flownet/internal/simerr"
)

const universalGas = 8.314462618 // J/(mol K)

// PerfectGas is a calorically perfect gas backend. The PH flash is limited to
// the enthalpy window [Cp*TminPH, Cp*TmaxPH], narrower than the PT flash
// domain, the way tabulated property libraries bound their h-tables. That
// asymmetry is what gives the surrogate fallback a second chance: a rejected
// (p,h) can still succeed as (p,T) once a temperature estimate exists.
type PerfectGas struct {
	Species   string
	MolarMass float64 // kg/mol
	CpRef     float64 // J/(kg K)

	// flash validity windows, K
	TminPH, TmaxPH float64
	TminPT, TmaxPT float64
}

// Air returns a backend for dry air.
func Air() *PerfectGas {
	return &PerfectGas{
		Species:   "air",
		MolarMass: 0.0289647,
		CpRef:     1005.0,
		TminPH:    200.0,
		TmaxPH:    2000.0,
		TminPT:    1.0,
		TmaxPT:    6000.0,
	}
}

func (g *PerfectGas) Supports(comp Composition) bool {
	return len(comp.Species) == 1 && comp.Species[0] == g.Species
}

func (g *PerfectGas) specificGas() float64 { return universalGas / g.MolarMass }

// cv and gamma are derived from Cp and the specific gas constant so the
// enthalpy, internal-energy, and density relations stay mutually consistent;
// an independent gamma would bias the storage inversion.
func (g *PerfectGas) cv() float64    { return g.CpRef - g.specificGas() }
func (g *PerfectGas) gamma() float64 { return g.CpRef / g.cv() }

func (g *PerfectGas) State(in Input, comp Composition) (State, error) {
	if !g.Supports(comp) {
		return nil, simerr.InvalidStatef("composition not supported by %s backend", g.Species)
	}
	if in.Pressure <= 0 || math.IsNaN(in.Pressure) {
		return nil, simerr.InvalidStatef("non-physical pressure %g Pa", in.Pressure)
	}
	var t float64
	switch in.Mode {
	case ModePH:
		t = in.Enthalpy / g.CpRef
		if math.IsNaN(t) || t < g.TminPH || t > g.TmaxPH {
			return nil, simerr.InvalidStatef("enthalpy %g J/kg outside PH flash range [%g, %g] K",
				in.Enthalpy, g.TminPH, g.TmaxPH)
		}
	case ModePT:
		t = in.Temperature
		if math.IsNaN(t) || t <= g.TminPT || t >= g.TmaxPT {
			return nil, simerr.InvalidStatef("temperature %g K outside PT flash range (%g, %g)",
				t, g.TminPT, g.TmaxPT)
		}
	default:
		return nil, simerr.InvalidStatef("unknown flash mode %d", in.Mode)
	}
	return g.at(in.Pressure, t), nil
}

// StateFromRhoU inverts lumped (density, internal energy) storage to a state.
func (g *PerfectGas) StateFromRhoU(rho, u float64, comp Composition) (State, error) {
	if !g.Supports(comp) {
		return nil, simerr.InvalidStatef("composition not supported by %s backend", g.Species)
	}
	if rho <= 0 || u <= 0 || math.IsNaN(rho) || math.IsNaN(u) {
		return nil, simerr.InvalidStatef("non-physical storage state rho=%g kg/m3 u=%g J/kg", rho, u)
	}
	t := u / g.cv()
	if t <= g.TminPT || t >= g.TmaxPT {
		return nil, simerr.InvalidStatef("storage temperature %g K outside range (%g, %g)",
			t, g.TminPT, g.TmaxPT)
	}
	p := rho * g.specificGas() * t
	return g.at(p, t), nil
}

func (g *PerfectGas) at(p, t float64) *gasState {
	rs := g.specificGas()
	return &gasState{
		p:   p,
		t:   t,
		h:   g.CpRef * t,
		rho: p / (rs * t),
		cp:  g.CpRef,
		cv:  g.cv(),
		gam: g.gamma(),
		a:   math.Sqrt(g.gamma() * rs * t),
		mm:  g.MolarMass,
	}
}

type gasState struct {
	p, t, h, rho, cp, cv, gam, a, mm float64
}

func (s *gasState) MolarMass() float64 { return s.mm }

func (s *gasState) Pressure() float64     { return s.p }
func (s *gasState) Temperature() float64  { return s.t }
func (s *gasState) Enthalpy() float64     { return s.h }
func (s *gasState) Density() float64      { return s.rho }
func (s *gasState) Cp() float64           { return s.cp }
func (s *gasState) Cv() float64           { return s.cv }
func (s *gasState) Gamma() float64        { return s.gam }
func (s *gasState) SpeedOfSound() float64 { return s.a }
