package integrate

import "github.com/nkarsten/flownet/internal/transient"

// RK4 is the classical fourth-order Runge-Kutta scheme: four derivative
// evaluations per step, expressed purely through State.Add/Scale.
type RK4 struct{}

func NewRK4() *RK4 { return &RK4{} }

func (r *RK4) Name() string { return "rk4" }

func (r *RK4) Step(m transient.Model, t float64, x transient.State, dt float64) (transient.State, error) {
	k1, err := m.RHS(t, x)
	if err != nil {
		return nil, err
	}
	k2, err := m.RHS(t+dt/2, x.Add(k1.Scale(dt/2)))
	if err != nil {
		return nil, err
	}
	k3, err := m.RHS(t+dt/2, x.Add(k2.Scale(dt/2)))
	if err != nil {
		return nil, err
	}
	k4, err := m.RHS(t+dt, x.Add(k3.Scale(dt)))
	if err != nil {
		return nil, err
	}
	sum := k1.Add(k2.Scale(2)).Add(k3.Scale(2)).Add(k4)
	return x.Add(sum.Scale(dt / 6)), nil
}
