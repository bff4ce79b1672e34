// Package integrate holds the fixed-step integrators and the simulation
// runner that drives them with adaptive cutback and retry.
package integrate

import "github.com/nkarsten/flownet/internal/transient"

// Stepper advances a model state by one step of size dt.
type Stepper interface {
	Name() string
	Step(m transient.Model, t float64, x transient.State, dt float64) (transient.State, error)
}

// Euler is forward Euler: one derivative evaluation per step.
type Euler struct{}

func NewEuler() *Euler { return &Euler{} }

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(m transient.Model, t float64, x transient.State, dt float64) (transient.State, error) {
	dx, err := m.RHS(t, x)
	if err != nil {
		return nil, err
	}
	return x.Add(dx.Scale(dt)), nil
}
