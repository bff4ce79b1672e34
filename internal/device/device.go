// Package device defines the per-component hydraulic/energy capability the
// solver core invokes. A device is a stateless pure function of its port
// states and parameters; optional capabilities are discovered by type
// assertion and default to unsupported or zero.
package device

import (
	"math"

	"github.com/nkarsten/flownet/internal/thermo"
)

// PortStates are the resolved thermodynamic states at a two-port device.
type PortStates struct {
	In  thermo.State
	Out thermo.State
}

// Device is the required capability: the mass flow through the component,
// positive from inlet to outlet.
type Device interface {
	MassFlow(b thermo.Backend, ps PortStates) (float64, error)
}

// PressureDropper reports the pressure drop the device imposes at a given
// flow, for diagnostics.
type PressureDropper interface {
	DeltaP(b thermo.Backend, ps PortStates) (float64, error)
}

// EnthalpyShifter changes the enthalpy carried out of the device relative to
// the upstream value (heaters, pumps).
type EnthalpyShifter interface {
	OutletEnthalpy(b thermo.Backend, ps PortStates, mdot float64) (float64, error)
}

// ShaftLoaded exchanges power with a shaft. Positive power is drawn from the
// shaft (pumps); negative power is delivered to it (turbines).
type ShaftLoaded interface {
	ShaftPower(b thermo.Backend, ps PortStates, mdot float64) (float64, error)
}

// HeatSource adds heat to the stream.
type HeatSource interface {
	HeatRate(b thermo.Backend, ps PortStates, mdot float64) (float64, error)
}

// CarriedEnthalpy is the enthalpy transported out of dev at flow mdot,
// defaulting to the upstream port enthalpy when the device does not shift it.
func CarriedEnthalpy(dev Device, b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	if es, ok := dev.(EnthalpyShifter); ok {
		return es.OutletEnthalpy(b, ps, mdot)
	}
	if mdot >= 0 {
		return ps.In.Enthalpy(), nil
	}
	return ps.Out.Enthalpy(), nil
}

// ShaftPowerOf returns the device's shaft power, zero when unsupported.
func ShaftPowerOf(dev Device, b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	if sl, ok := dev.(ShaftLoaded); ok {
		return sl.ShaftPower(b, ps, mdot)
	}
	return 0, nil
}

// HeatRateOf returns the device's heat input, zero when unsupported.
func HeatRateOf(dev Device, b thermo.Backend, ps PortStates, mdot float64) (float64, error) {
	if hs, ok := dev.(HeatSource); ok {
		return hs.HeatRate(b, ps, mdot)
	}
	return 0, nil
}

// dpLinear is the pressure-difference band, Pa, inside which square-root flow
// laws are linearized so the residual stays differentiable through zero flow.
const dpLinear = 10.0

// signedSqrtFlow evaluates mdot = coeff * sgn(dp) * sqrt(2*rho*|dp|) with a
// linear segment through dp = 0 that matches the square-root branch at
// |dp| = dpLinear.
func signedSqrtFlow(coeff, rho, dp float64) float64 {
	if math.Abs(dp) < dpLinear {
		return coeff * dp * math.Sqrt(2.0*rho/dpLinear)
	}
	sign := 1.0
	if dp < 0 {
		sign = -1.0
	}
	return sign * coeff * math.Sqrt(2.0*rho*math.Abs(dp))
}

// upstreamDensity picks the density on the driving side of the flow.
func upstreamDensity(ps PortStates, driving float64) float64 {
	if driving >= 0 {
		return ps.In.Density()
	}
	return ps.Out.Density()
}
