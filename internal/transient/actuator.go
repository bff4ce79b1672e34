package transient

import "github.com/nkarsten/flownet/internal/device"

// Actuator drives a valve opening toward a commanded position with a first
// order lag and a slew rate limit. Position lives in [0,1].
type Actuator struct {
	Tau       float64 // s
	RateLimit float64 // 1/s
	Command   func(t float64) float64
	Valve     *device.Valve
	Initial   float64
}

// Deriv is dpos/dt = clamp((cmd-pos)/tau, -rate, +rate), with the derivative
// zeroed when it would push the position out of [0,1].
func (a *Actuator) Deriv(t, pos float64) float64 {
	cmd := a.Command(t)
	d := (cmd - pos) / a.Tau
	if d > a.RateLimit {
		d = a.RateLimit
	}
	if d < -a.RateLimit {
		d = -a.RateLimit
	}
	if pos >= 1 && d > 0 {
		return 0
	}
	if pos <= 0 && d < 0 {
		return 0
	}
	return d
}

// ClampPosition bounds a decoded position to [0,1].
func ClampPosition(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if pos > 1 {
		return 1
	}
	return pos
}
