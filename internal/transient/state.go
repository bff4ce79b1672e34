// Package transient wraps the steady network solver plus auxiliary lumped
// dynamics (control volumes, shafts, actuators, junction thermal relaxation)
// into a time-derivative model the integrators can advance.
package transient

import "math"

// State is a flat transient state vector. Add and Scale are exact,
// side-effect-free vector-space operations; integrators rely on nothing else
// about the layout.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] + other[i]
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Model is the transient contract: an initial state and a time-derivative
// evaluation. RHS failures tagged retryable are eligible for step cutback by
// the simulation runner.
type Model interface {
	InitialState() State
	RHS(t float64, x State) (State, error)
}

// StepObserver is an optional model capability notified once per accepted
// integration step, with the step size actually taken. Lagged-state
// bookkeeping (junction thermal relaxation) lives here because RHS
// evaluations inside a step must not mutate the model.
type StepObserver interface {
	StepAccepted(t, dt float64, x State)
}
