package thermo

// Surrogate is a linearized property model anchored at a known-good state.
// It never replaces the primary backend; it only supplies a temperature
// estimate that lets the backend re-attempt a rejected flash.
type Surrogate struct {
	Pressure    float64
	Temperature float64
	Enthalpy    float64
	Density     float64
	Cp          float64
	MolarMass   float64
}

// MolarMasser is an optional state capability exposing the mixture molar
// mass, kg/mol.
type MolarMasser interface {
	MolarMass() float64
}

// SurrogateFromState anchors a surrogate at a solved state.
func SurrogateFromState(s State) *Surrogate {
	sur := &Surrogate{
		Pressure:    s.Pressure(),
		Temperature: s.Temperature(),
		Enthalpy:    s.Enthalpy(),
		Density:     s.Density(),
		Cp:          s.Cp(),
	}
	if mm, ok := s.(MolarMasser); ok {
		sur.MolarMass = mm.MolarMass()
	}
	return sur
}

// EstimateTemperature linearizes T(h) around the anchor.
func (s *Surrogate) EstimateTemperature(h float64) float64 {
	return s.Temperature + (h-s.Enthalpy)/s.Cp
}
