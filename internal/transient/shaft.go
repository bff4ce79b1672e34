package transient

import (
	"math"

	"github.com/nkarsten/flownet/internal/network"
)

// Shaft is a rotating inertia exchanging torque with attached devices.
// Positive device power is power drawn from the shaft.
type Shaft struct {
	Inertia   float64 // kg m2
	LossCoeff float64 // N m s
	OmegaMin  float64 // rad/s, regularizes torque near zero speed
	Omega0    float64 // rad/s
	OmegaRef  float64 // rad/s, nominal speed for attached pump curves; 0 = uncoupled

	comps []network.CompID
}

// Attach couples a component's device to this shaft.
func (s *Shaft) Attach(c network.CompID) { s.comps = append(s.comps, c) }

// Attached returns the coupled components.
func (s *Shaft) Attached() []network.CompID { return s.comps }

// Torque converts device shaft power to torque at speed omega, regularized
// near standstill: torque = -power / max(|omega|, OmegaMin).
func (s *Shaft) Torque(power, omega float64) float64 {
	return -power / math.Max(math.Abs(omega), s.OmegaMin)
}

// Accel is domega/dt = (sum of torques - loss*omega) / I.
func (s *Shaft) Accel(torqueSum, omega float64) float64 {
	return (torqueSum - s.LossCoeff*omega) / s.Inertia
}
