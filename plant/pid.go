package plant

// PID is a discrete PID controller with anti-windup, used by the power plant
// orchestrator to close load loops (e.g. engine load from a plant power
// setpoint).
type PID struct {
	Kp, Ki, Kd float64
	Setpoint   float64
	OutMin     float64
	OutMax     float64

	integral  float64
	prevError float64
	primed    bool
}

// NewPID returns a controller with the given gains and output limits.
func NewPID(kp, ki, kd, outMin, outMax float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, OutMin: outMin, OutMax: outMax}
}

// Update computes the controller output for the measured process value over
// a dt-second interval, clamped to [OutMin, OutMax].
func (c *PID) Update(measured, dt float64) float64 {
	if dt <= 0 {
		return clamp(c.Kp*(c.Setpoint-measured), c.OutMin, c.OutMax)
	}
	err := c.Setpoint - measured

	p := c.Kp * err

	c.integral += err * dt
	i := c.Ki * c.integral

	var d float64
	if c.primed {
		d = c.Kd * (err - c.prevError) / dt
	}
	c.prevError = err
	c.primed = true

	out := p + i + d
	if out > c.OutMax {
		// Anti-windup: bleed the integral back inside the saturation band.
		if c.Ki > 0 {
			c.integral -= (out - c.OutMax) / c.Ki
		}
		out = c.OutMax
	} else if out < c.OutMin {
		if c.Ki > 0 {
			c.integral += (c.OutMin - out) / c.Ki
		}
		out = c.OutMin
	}
	return out
}

// Reset clears the integral and derivative history.
func (c *PID) Reset() {
	c.integral = 0
	c.prevError = 0
	c.primed = false
}
