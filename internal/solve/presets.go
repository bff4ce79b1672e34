package solve

import "github.com/nkarsten/flownet/internal/simerr"

// Strategy names a complete Newton configuration preset.
type Strategy int

const (
	// StrategyStrict is the default: tight tolerances, minimal
	// regularization, deterministic behavior on well-posed problems.
	StrategyStrict Strategy = iota
	// StrategyRelaxed widens the weak-flow threshold and tightens the
	// per-iteration enthalpy step, trading exactness for startup robustness
	// on storage-rich transient topologies.
	StrategyRelaxed
)

func (s Strategy) String() string {
	switch s {
	case StrategyStrict:
		return "strict"
	case StrategyRelaxed:
		return "relaxed"
	}
	return "unknown"
}

// ParseStrategy maps a config/CLI name to a strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "strict", "":
		return StrategyStrict, nil
	case "relaxed":
		return StrategyRelaxed, nil
	}
	return 0, simerr.InvalidArgf("unknown initialization strategy %q", name)
}

// Config maps the strategy deterministically to one NewtonConfig. The
// constants are empirical tuning.
func (s Strategy) Config() NewtonConfig {
	switch s {
	case StrategyRelaxed:
		return NewtonConfig{
			MaxIterations:         100,
			AbsTol:                1e-5,
			RelTol:                1e-9,
			Beta:                  0.5,
			MaxLineSearchIters:    25,
			MinPressure:           100.0,
			WeakFlowThreshold:     1e-3,
			WeakFlowEnthalpyScale: 1.0,
			MaxEnthalpyStep:       5e4,
		}
	default:
		return NewtonConfig{
			MaxIterations:         50,
			AbsTol:                1e-6,
			RelTol:                1e-9,
			Beta:                  0.5,
			MaxLineSearchIters:    20,
			MinPressure:           100.0,
			WeakFlowThreshold:     1e-6,
			WeakFlowEnthalpyScale: 1.0,
			MaxEnthalpyStep:       5e5,
		}
	}
}
