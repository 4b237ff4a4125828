package plant

import "math"

// TurbineParams groups the steam turbine design parameters.
type TurbineParams struct {
	RatedPowerKW      float64
	IsentropicEff     float64
	MechanicalEff     float64
	GeneratorEff      float64
	CondenserPressure float64 // bar absolute; >1 means backpressure unit
	MinSteamFlow      float64 // kg/h below which the stop valve stays shut
}

// DefaultTurbineParams returns a 3 MW condensing turbine matched to the
// default boiler.
func DefaultTurbineParams() TurbineParams {
	return TurbineParams{
		RatedPowerKW:      3000.0,
		IsentropicEff:     0.80,
		MechanicalEff:     0.97,
		GeneratorEff:      0.96,
		CondenserPressure: 0.1,
		MinSteamFlow:      100.0,
	}
}

// SteamTurbine converts boiler steam into electrical power. Power comes from
// the enthalpy drop over the pressure ratio, so it responds instantly to the
// steam supply the boiler provides.
type SteamTurbine struct {
	p TurbineParams

	steamFlow     float64 // kg/h admitted
	inletPressure float64 // bar
	inletTemp     float64 // degC
	powerKW       float64
	exhaustTemp   float64
}

// NewSteamTurbine builds a turbine with the stop valve shut.
func NewSteamTurbine(p TurbineParams) *SteamTurbine {
	return &SteamTurbine{p: p, inletPressure: 1.0, exhaustTemp: 25.0}
}

// SetSteamSupply sets the inlet steam condition for the next step, normally
// fed from the boiler each tick.
func (t *SteamTurbine) SetSteamSupply(flowKgH, pressureBar, tempC float64) {
	t.steamFlow = math.Max(flowKgH, 0)
	t.inletPressure = math.Max(pressureBar, 0.1)
	t.inletTemp = tempC
}

// Step advances the turbine by dt seconds and returns the new snapshot.
func (t *SteamTurbine) Step(dt float64, sp *Setpoints) UnitState {
	_ = dt
	_ = sp

	if t.steamFlow < t.p.MinSteamFlow {
		t.powerKW = 0
		t.exhaustTemp = math.Max(t.exhaustTemp-1.0, 25.0)
		return t.State()
	}

	// Specific work from the logarithmic pressure ratio, a serviceable
	// stand-in for an isentropic expansion through a Mollier chart.
	pressureRatio := t.inletPressure / t.p.CondenserPressure
	hDrop := 200.0 * math.Log(math.Max(pressureRatio, 1.0)) * t.p.IsentropicEff // kJ/kg

	massFlowKgS := t.steamFlow / 3600.0
	t.powerKW = math.Min(
		massFlowKgS*hDrop*t.p.MechanicalEff*t.p.GeneratorEff,
		t.p.RatedPowerKW,
	)

	if t.p.CondenserPressure < 1.0 {
		// Condensing: exhaust at the condenser saturation temperature.
		t.exhaustTemp = 45.7 + 14.0*math.Log(t.p.CondenserPressure/0.1)
	} else {
		// Backpressure: exhaust stays superheated for process heat.
		t.exhaustTemp = math.Max(t.inletTemp-hDrop/2.1, 120.0)
	}

	return t.State()
}

// State returns the current snapshot.
func (t *SteamTurbine) State() TurbineState {
	return TurbineState{
		PowerOutput:       t.powerKW,
		SteamFlow:         t.steamFlow,
		ExhaustTemp:       t.exhaustTemp,
		CondenserPressure: t.p.CondenserPressure,
		FeedwaterTemp:     105.0,
	}
}
