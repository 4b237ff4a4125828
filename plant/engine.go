package plant

import "math"

// EngineParams groups the biogas engine design parameters (Otto cycle CHP
// class, grid-synchronous).
type EngineParams struct {
	RatedPowerKW  float64
	RatedRPM      float64
	ElectricalEff float64 // at rated load
	ThermalEff    float64 // heat recovery fraction
	LoadRampPct   float64 // % per minute
	CH4LHV        float64 // MJ/Nm3 methane lower heating value
	CH4Baseline   float64 // % methane the rated efficiency assumes
}

// DefaultEngineParams returns a 1 MW-class biogas engine.
func DefaultEngineParams() EngineParams {
	return EngineParams{
		RatedPowerKW:  1000.0,
		RatedRPM:      1500.0,
		ElectricalEff: 0.42,
		ThermalEff:    0.43,
		LoadRampPct:   10.0,
		CH4LHV:        35.8,
		CH4Baseline:   60.0,
	}
}

// GasEngine models a biogas-fired reciprocating engine with CHP heat
// recovery. Steady-state correlations per step, driven by a load setpoint
// that ramps at a bounded rate.
type GasEngine struct {
	p EngineParams

	loadSetpoint float64 // 0-100 %
	loadPct      float64
	running      bool

	rpm           float64
	powerKW       float64
	exhaustTemp   float64
	fuelFlow      float64 // Nm3/h biogas
	airFuelRatio  float64
	electricalEff float64
	thermalKW     float64

	biogasCH4 float64 // % methane in supplied biogas
}

// NewGasEngine builds an engine at standstill.
func NewGasEngine(p EngineParams) *GasEngine {
	return &GasEngine{p: p, exhaustTemp: 25.0, airFuelRatio: 1.7, biogasCH4: p.CH4Baseline}
}

// SetFuelMethane sets the methane content (%) of the supplied biogas,
// normally fed from the digester each tick.
func (e *GasEngine) SetFuelMethane(ch4Pct float64) {
	e.biogasCH4 = clamp(ch4Pct, 0, 100)
}

// SetLoad commands a load setpoint in percent, clamped to [0, 100].
func (e *GasEngine) SetLoad(pct float64) { e.loadSetpoint = clamp(pct, 0, 100) }

// LoadPercent returns the current realized load.
func (e *GasEngine) LoadPercent() float64 { return e.loadPct }

// Step advances the engine by dt seconds and returns the new snapshot.
func (e *GasEngine) Step(dt float64, sp *Setpoints) UnitState {
	if sp != nil && sp.LoadSetpoint != nil {
		e.SetLoad(*sp.LoadSetpoint)
	}

	if e.loadSetpoint > 0 && !e.running {
		e.running = true
		e.rpm = e.p.RatedRPM // grid sync is effectively instant at this scale
	}

	if e.loadSetpoint == 0 {
		e.running = false
		e.rpm = 0
		e.loadPct = 0
		e.powerKW = 0
		e.exhaustTemp = 25.0
		e.fuelFlow = 0
		e.electricalEff = 0
		e.thermalKW = 0
		return e.State()
	}

	// Load ramp at a bounded %/min rate.
	maxRamp := e.p.LoadRampPct / 60.0 * dt
	delta := clamp(e.loadSetpoint-e.loadPct, -maxRamp, maxRamp)
	e.loadPct = clamp(e.loadPct+delta, 0, 100)

	loadFrac := e.loadPct / 100.0

	// Part-load efficiency penalty plus methane-content correction.
	effFactor := 0.5 + 0.5*loadFrac
	ch4Factor := e.biogasCH4 / e.p.CH4Baseline
	e.electricalEff = e.p.ElectricalEff * effFactor * math.Min(ch4Factor, 1.1)

	e.powerKW = e.p.RatedPowerKW * loadFrac

	fuelEnergyKW := e.powerKW / math.Max(e.electricalEff, 0.01)
	biogasLHVKWh := (e.biogasCH4 / 100.0) * e.p.CH4LHV / 3.6 // kWh/Nm3
	e.fuelFlow = fuelEnergyKW / math.Max(biogasLHVKWh, 0.01)

	e.exhaustTemp = 400.0 + 100.0*loadFrac
	e.thermalKW = fuelEnergyKW * e.p.ThermalEff
	e.airFuelRatio = 1.7 - 0.2*(loadFrac-0.5)

	return e.State()
}

// State returns the current snapshot.
func (e *GasEngine) State() EngineState {
	return EngineState{
		RPM:           e.rpm,
		PowerOutput:   e.powerKW,
		LoadPercent:   e.loadPct,
		ExhaustTemp:   e.exhaustTemp,
		FuelFlow:      e.fuelFlow,
		AirFuelRatio:  e.airFuelRatio,
		ElectricalEff: e.electricalEff * 100,
		ThermalOutput: e.thermalKW,
		ThermalEff:    e.p.ThermalEff * 100,
	}
}
