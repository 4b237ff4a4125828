package plant

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// FaultType enumerates injectable sensor faults.
type FaultType string

const (
	FaultNone      FaultType = ""
	FaultStuck     FaultType = "stuck"      // output frozen at a fixed value
	FaultSpike     FaultType = "spike"      // additive offset for a bounded duration
	FaultDriftFast FaultType = "drift_fast" // accelerated drift until cleared
)

// FaultSpec describes a fault to inject into a VirtualSensor.
type FaultSpec struct {
	Type      FaultType `json:"type"`
	Value     *float64  `json:"value,omitempty"`      // stuck: freeze value (defaults to last filtered reading)
	Magnitude float64   `json:"magnitude,omitempty"`  // spike: additive offset
	DurationS float64   `json:"duration_s,omitempty"` // spike: how long the offset persists
	Rate      float64   `json:"rate,omitempty"`       // drift_fast: extra drift per hour
}

// SensorProfile holds the measurement-degradation parameters for one
// measured variable.
type SensorProfile struct {
	NoiseStd  float64 // standard deviation of additive Gaussian noise
	LagTau    float64 // first-order lag time constant, seconds
	DriftRate float64 // units per simulated hour
	RangeMin  float64
	RangeMax  float64
	Unit      string
}

// SensorProfiles maps measured variable names to their instrument profiles.
var SensorProfiles = map[string]SensorProfile{
	"ph":          {NoiseStd: 0.02, LagTau: 5.0, DriftRate: 0.0001, RangeMin: 0, RangeMax: 14, Unit: "pH"},
	"do":          {NoiseStd: 0.5, LagTau: 15.0, DriftRate: 0.01, RangeMin: 0, RangeMax: 100, Unit: "% sat"},
	"temperature": {NoiseStd: 0.1, LagTau: 3.0, DriftRate: 0.005, RangeMin: -10, RangeMax: 200, Unit: "degC"},
	"pressure":    {NoiseStd: 0.05, LagTau: 0.5, DriftRate: 0.002, RangeMin: 0, RangeMax: 60, Unit: "bar"},
	"level":       {NoiseStd: 0.5, LagTau: 2.0, DriftRate: 0.001, RangeMin: 0, RangeMax: 100, Unit: "%"},
}

// SensorState is one snapshot of a sensor's internal degradation state.
type SensorState struct {
	Variable      string    `json:"variable"`
	FilteredValue float64   `json:"filtered_value"`
	Drift         float64   `json:"drift_accumulated"`
	Fault         FaultType `json:"fault_type,omitempty"`
	TimeH         float64   `json:"time_h"`
}

// VirtualSensor degrades true physical values into realistic readings:
// first-order lag, linear drift, Gaussian noise, optional injected fault,
// then a clamp to the instrument range. State persists across reads.
type VirtualSensor struct {
	Variable string
	Profile  SensorProfile

	noise distuv.Normal

	filtered float64
	seeded   bool
	drift    float64
	timeH    float64

	fault          FaultType
	stuckValue     float64
	spikeMagnitude float64
	spikeRemaining float64
	driftFastRate  float64
}

// NewVirtualSensor builds a sensor for the named variable with a
// deterministic noise source. Unknown variables use the temperature profile.
func NewVirtualSensor(variable string, seed uint64) *VirtualSensor {
	profile, ok := SensorProfiles[variable]
	if !ok {
		profile = SensorProfiles["temperature"]
	}
	return &VirtualSensor{
		Variable: variable,
		Profile:  profile,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: math.Max(profile.NoiseStd, 1e-12),
			Src:   rand.NewSource(seed),
		},
	}
}

// Read processes one true physics value through the sensor model. dt is the
// simulated seconds since the previous read.
func (s *VirtualSensor) Read(trueValue, dt float64) float64 {
	dtH := dt / 3600.0

	// First-order lag filter, seeded to the true value on first read.
	if !s.seeded {
		s.filtered = trueValue
		s.seeded = true
	} else {
		alpha := 1.0
		if s.Profile.LagTau > 0 {
			alpha = 1.0 - math.Exp(-dt/s.Profile.LagTau)
		}
		s.filtered += alpha * (trueValue - s.filtered)
	}

	s.drift += s.Profile.DriftRate * dtH
	s.timeH += dtH

	measured := s.filtered + s.drift
	if s.Profile.NoiseStd > 0 {
		measured += s.noise.Rand()
	}

	switch s.fault {
	case FaultStuck:
		measured = s.stuckValue
	case FaultSpike:
		if s.spikeRemaining > 0 {
			measured += s.spikeMagnitude
			s.spikeRemaining -= dt
			if s.spikeRemaining <= 0 {
				s.fault = FaultNone
			}
		} else {
			s.fault = FaultNone
		}
	case FaultDriftFast:
		s.drift += s.driftFastRate * dtH
		measured = s.filtered + s.drift
	}

	return clamp(measured, s.Profile.RangeMin, s.Profile.RangeMax)
}

// InjectFault applies an operator-style fault, independent of physics steps.
func (s *VirtualSensor) InjectFault(spec FaultSpec) {
	s.fault = spec.Type
	switch spec.Type {
	case FaultStuck:
		if spec.Value != nil {
			s.stuckValue = *spec.Value
		} else {
			s.stuckValue = s.filtered
		}
	case FaultSpike:
		s.spikeMagnitude = spec.Magnitude
		s.spikeRemaining = spec.DurationS
		if s.spikeRemaining <= 0 {
			s.spikeRemaining = 10.0
		}
	case FaultDriftFast:
		s.driftFastRate = spec.Rate
		if s.driftFastRate == 0 {
			s.driftFastRate = 0.1
		}
	}
}

// ClearFault removes any injected fault.
func (s *VirtualSensor) ClearFault() {
	s.fault = FaultNone
	s.spikeRemaining = 0.0
	s.driftFastRate = 0.0
}

// ResetDrift zeroes accumulated drift, simulating recalibration.
func (s *VirtualSensor) ResetDrift() { s.drift = 0.0 }

// State returns the current degradation state.
func (s *VirtualSensor) State() SensorState {
	return SensorState{
		Variable:      s.Variable,
		FilteredValue: s.filtered,
		Drift:         s.drift,
		Fault:         s.fault,
		TimeH:         s.timeH,
	}
}
