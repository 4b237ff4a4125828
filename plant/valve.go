package plant

import "math"

// Valve travel models. Commanded positions ramp over the valve's travel time
// instead of jumping, which is what the jacket dynamics downstream see.

// DiscreteValve is an on/off pneumatic diaphragm valve with open/close
// transition times. Position runs 0.0 (closed) to 1.0 (open).
type DiscreteValve struct {
	Name       string
	OpenTimeS  float64
	CloseTimeS float64

	commanded bool
	position  float64
}

// NewDiscreteValve returns a valve with the given travel times (seconds).
func NewDiscreteValve(name string, openTimeS, closeTimeS float64) *DiscreteValve {
	return &DiscreteValve{
		Name:       name,
		OpenTimeS:  math.Max(0.01, openTimeS),
		CloseTimeS: math.Max(0.01, closeTimeS),
	}
}

func (v *DiscreteValve) Open()  { v.commanded = true }
func (v *DiscreteValve) Close() { v.commanded = false }

// Commanded reports the commanded state, which may lead the position.
func (v *DiscreteValve) Commanded() bool { return v.commanded }

// Position returns the current travel position in [0, 1].
func (v *DiscreteValve) Position() float64 { return v.position }

// IsOpen reports whether the valve has effectively completed its open travel.
func (v *DiscreteValve) IsOpen() bool { return v.position >= 0.99 }

// IsClosed reports whether the valve has effectively completed its close travel.
func (v *DiscreteValve) IsClosed() bool { return v.position <= 0.01 }

// Step advances the valve position by dt seconds.
func (v *DiscreteValve) Step(dt float64) {
	if v.commanded {
		v.position = math.Min(1.0, v.position+dt/v.OpenTimeS)
	} else {
		v.position = math.Max(0.0, v.position-dt/v.CloseTimeS)
	}
}

// ControlValve is a proportional control valve (0-100 %) whose position
// ramps toward the setpoint at a fixed stroke rate.
type ControlValve struct {
	Name        string
	TravelTimeS float64 // full 0-100 % stroke time

	setpoint float64
	position float64
}

// NewControlValve returns a proportional valve with the given full-stroke time.
func NewControlValve(name string, travelTimeS float64) *ControlValve {
	return &ControlValve{Name: name, TravelTimeS: math.Max(0.01, travelTimeS)}
}

// Set commands a valve opening, clamped to [0, 100].
func (v *ControlValve) Set(pct float64) { v.setpoint = clamp(pct, 0, 100) }

// Setpoint returns the commanded opening in percent.
func (v *ControlValve) Setpoint() float64 { return v.setpoint }

// Position returns the current opening in percent.
func (v *ControlValve) Position() float64 { return v.position }

// Step advances the valve position toward the setpoint by dt seconds.
func (v *ControlValve) Step(dt float64) {
	rate := 100.0 / v.TravelTimeS
	diff := v.setpoint - v.position
	maxChange := rate * dt
	if math.Abs(diff) <= maxChange {
		v.position = v.setpoint
		return
	}
	v.position += math.Copysign(maxChange, diff)
}
