package plant

import "math"

// BoilerParams groups the grate-fired biomass boiler design parameters.
type BoilerParams struct {
	RatedSteamFlow     float64 // kg/h
	RatedSteamPressure float64 // bar
	RatedSteamTemp     float64 // degC superheated
	FeedwaterTemp      float64 // degC
	RatedThermalKW     float64 // fuel thermal input at rated load
	DesignEfficiency   float64
	FuelLHV            float64 // MJ/kg as-received
	FuelRampFrac       float64 // fraction of rated fuel per minute
}

// DefaultBoilerParams returns a 20 t/h class boiler, taking the fuel LHV
// from the combustion feedstock entry.
func DefaultBoilerParams(fs Feedstock) BoilerParams {
	p := BoilerParams{
		RatedSteamFlow:     20000.0,
		RatedSteamPressure: 40.0,
		RatedSteamTemp:     400.0,
		FeedwaterTemp:      105.0,
		RatedThermalKW:     15000.0,
		DesignEfficiency:   0.88,
		FuelLHV:            12.5,
		FuelRampFrac:       0.05,
	}
	if fs.Category == CategoryCombustion && fs.LHV > 0 {
		p.FuelLHV = fs.LHV
	}
	return p
}

// Boiler models a grate-fired biomass boiler with steam generation. Fuel
// feed ramps at the grate response rate; combustion/flue temperatures and
// steam flow relax toward load-dependent targets with first-order lags.
type Boiler struct {
	p BoilerParams

	fuelTarget float64 // kg/h commanded (from load setpoint or direct)
	fuelFeed   float64 // kg/h realized

	steamFlow      float64
	steamPressure  float64
	steamTemp      float64
	combustionTemp float64
	flueGasTemp    float64
	efficiency     float64
	loadPct        float64
}

// NewBoiler builds a cold boiler.
func NewBoiler(p BoilerParams) *Boiler {
	return &Boiler{
		p:              p,
		steamPressure:  1.0,
		steamTemp:      25.0,
		combustionTemp: 25.0,
		flueGasTemp:    25.0,
	}
}

// ratedFuel returns the fuel feed (kg/h) corresponding to rated thermal input.
func (b *Boiler) ratedFuel() float64 {
	lhvKWPerKgH := b.p.FuelLHV * 1000 / 3600 // kW per (kg/h)
	return b.p.RatedThermalKW / math.Max(lhvKWPerKgH, 0.01)
}

// SetLoad commands a load setpoint in percent, converted to a fuel target.
func (b *Boiler) SetLoad(pct float64) {
	b.fuelTarget = b.ratedFuel() * clamp(pct, 0, 100) / 100.0
}

// SetFuelFeed commands a fuel feed rate directly (kg/h).
func (b *Boiler) SetFuelFeed(kgPerH float64) { b.fuelTarget = math.Max(0, kgPerH) }

// Step advances the boiler by dt seconds and returns the new snapshot.
func (b *Boiler) Step(dt float64, sp *Setpoints) UnitState {
	if sp != nil {
		if sp.FuelFeed != nil {
			b.SetFuelFeed(*sp.FuelFeed)
		} else if sp.LoadSetpoint != nil {
			b.SetLoad(*sp.LoadSetpoint)
		}
	}

	// Fuel feed ramp at the grate response rate.
	maxRamp := b.ratedFuel() * b.p.FuelRampFrac / 60.0 * dt
	delta := clamp(b.fuelTarget-b.fuelFeed, -maxRamp, maxRamp)
	b.fuelFeed = math.Max(b.fuelFeed+delta, 0)

	if b.fuelFeed < 1.0 {
		// Banking: everything decays toward cold ambient.
		b.steamFlow = 0
		b.steamPressure = math.Max(b.steamPressure-0.5*dt/60.0, 1.0)
		b.steamTemp = math.Max(b.steamTemp-2.0*dt/60.0, 25.0)
		b.combustionTemp = math.Max(b.combustionTemp-5.0*dt/60.0, 25.0)
		b.flueGasTemp = math.Max(b.flueGasTemp-3.0*dt/60.0, 25.0)
		b.efficiency = 0
		b.loadPct = 0
		return b.State()
	}

	thermalInput := b.fuelFeed * b.p.FuelLHV * 1000 / 3600 // kW
	b.loadPct = thermalInput / b.p.RatedThermalKW * 100.0
	loadFrac := math.Min(b.loadPct/100.0, 1.0)

	b.efficiency = b.p.DesignEfficiency * (0.85 + 0.15*loadFrac)

	const tauComb = 30.0 // seconds thermal inertia
	alphaComb := 1 - math.Exp(-dt/tauComb)
	b.combustionTemp += (850.0 + 200.0*loadFrac - b.combustionTemp) * alphaComb
	b.flueGasTemp += (150.0 + 30.0*loadFrac - b.flueGasTemp) * alphaComb

	// Steam generation from useful heat, ~2800 kJ/kg enthalpy rise for
	// subcritical steam from the feedwater temperature.
	usefulHeat := thermalInput * b.efficiency
	const enthalpyRise = 2800.0                               // kJ/kg
	targetSteamFlow := usefulHeat * 3.6 / enthalpyRise * 1000 // kg/h

	const tauSteam = 60.0
	b.steamFlow += (targetSteamFlow - b.steamFlow) * (1 - math.Exp(-dt/tauSteam))

	b.steamPressure = b.p.RatedSteamPressure * math.Min(loadFrac*1.1, 1.0)
	b.steamTemp = b.p.RatedSteamTemp * (0.85 + 0.15*loadFrac)

	return b.State()
}

// State returns the current snapshot.
func (b *Boiler) State() BoilerState {
	return BoilerState{
		FuelFeedRate:     b.fuelFeed,
		SteamFlow:        b.steamFlow,
		SteamPressure:    b.steamPressure,
		SteamTemperature: b.steamTemp,
		CombustionTemp:   b.combustionTemp,
		FlueGasTemp:      b.flueGasTemp,
		BoilerEff:        b.efficiency * 100,
		LoadPercent:      b.loadPct,
		FeedwaterTemp:    b.p.FeedwaterTemp,
	}
}
