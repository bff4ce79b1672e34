package transient

import "math"

// JunctionMode selects how zero-storage junction enthalpy closes.
type JunctionMode int

const (
	// ModeRelaxedMixing lags the junction enthalpy and relaxes it toward the
	// freshly mixed target each accepted step. Default: trades instantaneous
	// energy-balance exactness for stability across rapid transitions.
	ModeRelaxedMixing JunctionMode = iota
	// ModeStrictAlgebraic leaves junction enthalpy as a Newton unknown, the
	// exact closure.
	ModeStrictAlgebraic
	// ModeFrozen never updates junction enthalpy. Debug only.
	ModeFrozen
)

// JunctionConfig tunes the relaxation law.
type JunctionConfig struct {
	Mode     JunctionMode
	Tau      float64 // relaxation time constant, s
	MinAlpha float64
	MaxAlpha float64
}

func DefaultJunctionConfig() JunctionConfig {
	return JunctionConfig{
		Mode:     ModeRelaxedMixing,
		Tau:      0.05,
		MinAlpha: 0.01,
		MaxAlpha: 1.0,
	}
}

// JunctionThermalState holds the lagged enthalpy of one zero-storage node.
// The lagged value feeds the flow solve; after each accepted step it relaxes
// toward the mixed-enthalpy target.
type JunctionThermalState struct {
	Enthalpy     float64 // lagged value used in the flow solve, J/kg
	LastTarget   float64 // last mixed-enthalpy target, J/kg
	Updates      int
	MaxDeviation float64 // largest |target - lagged| seen, J/kg
}

// UpdateRelaxed moves the lagged enthalpy toward hMixed by
// alpha = clamp(dt/tau, minAlpha, maxAlpha). The result never leaves
// [min(h, hMixed), max(h, hMixed)].
func (j *JunctionThermalState) UpdateRelaxed(dt, hMixed float64, cfg JunctionConfig) {
	j.LastTarget = hMixed
	if dev := math.Abs(hMixed - j.Enthalpy); dev > j.MaxDeviation {
		j.MaxDeviation = dev
	}
	if cfg.Mode == ModeFrozen {
		return
	}
	alpha := dt / cfg.Tau
	if alpha < cfg.MinAlpha {
		alpha = cfg.MinAlpha
	}
	if alpha > cfg.MaxAlpha {
		alpha = cfg.MaxAlpha
	}
	if alpha > 1 {
		alpha = 1
	}
	j.Enthalpy += alpha * (hMixed - j.Enthalpy)
	j.Updates++
}
