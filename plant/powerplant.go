package plant

import (
	"github.com/sirupsen/logrus"
)

// PlantMode selects which power generation path a plant simulation runs.
type PlantMode string

const (
	// ModeBiogasEngine runs the digester feeding the gas engine.
	ModeBiogasEngine PlantMode = "biogas_engine"
	// ModeBiomassBoiler runs the boiler feeding the steam turbine.
	ModeBiomassBoiler PlantMode = "biomass_boiler"
	// ModeCombined runs both generation paths side by side.
	ModeCombined PlantMode = "combined"
)

// PlantConfig parameterizes a power plant simulation.
type PlantConfig struct {
	Mode                PlantMode
	DigestionFeedstock  string // entry in FeedstockDB; empty means the default
	CombustionFeedstock string
	Seed                uint64
}

// Unit names accepted by PowerPlant.ApplyControl.
const (
	UnitDigester = "digester"
	UnitEngine   = "engine"
	UnitBoiler   = "boiler"
	UnitTurbine  = "turbine"
	UnitPlant    = "plant"
)

// PowerPlant orchestrates the power generation side: anaerobic digester
// coupled to the gas engine, biomass boiler coupled to the steam turbine, and
// an optional closed power loop trimming unit loads toward a plant power
// setpoint. Not safe for concurrent use; the Manager serializes access.
type PowerPlant struct {
	mode PlantMode

	digester *AnaerobicDigester
	engine   *GasEngine
	boiler   *Boiler
	turbine  *SteamTurbine

	powerPID    *PID
	powerTarget float64 // kW; 0 disables the closed loop

	sensors map[string]map[string]*VirtualSensor
	pending map[string]*Setpoints

	simTime float64
	lastDT  float64
	snap    *Snapshot
	log     *logrus.Entry
}

// NewPowerPlant builds a power plant simulation in the given mode.
func NewPowerPlant(cfg PlantConfig) (*PowerPlant, error) {
	p := &PowerPlant{
		mode:    cfg.Mode,
		sensors: make(map[string]map[string]*VirtualSensor),
		pending: make(map[string]*Setpoints),
		log: logrus.WithFields(logrus.Fields{
			"orchestrator": "powerplant",
			"mode":         cfg.Mode,
		}),
	}

	seed := cfg.Seed

	if cfg.Mode == ModeBiogasEngine || cfg.Mode == ModeCombined {
		name := cfg.DigestionFeedstock
		if name == "" {
			name = DefaultDigestionFeedstock
		}
		fs, err := FeedstockByName(name)
		if err != nil {
			return nil, err
		}
		seed++
		p.digester = NewAnaerobicDigester(DefaultDigesterParams(fs), seed)
		p.engine = NewGasEngine(DefaultEngineParams())

		p.sensors[UnitDigester] = make(map[string]*VirtualSensor)
		for _, variable := range []string{"ph", "temperature"} {
			seed++
			p.sensors[UnitDigester][variable] = NewVirtualSensor(variable, seed)
		}
	}

	if cfg.Mode == ModeBiomassBoiler || cfg.Mode == ModeCombined {
		name := cfg.CombustionFeedstock
		if name == "" {
			name = DefaultCombustionFeedstock
		}
		fs, err := FeedstockByName(name)
		if err != nil {
			return nil, err
		}
		p.boiler = NewBoiler(DefaultBoilerParams(fs))
		p.turbine = NewSteamTurbine(DefaultTurbineParams())

		p.sensors[UnitBoiler] = make(map[string]*VirtualSensor)
		for _, variable := range []string{"pressure", "temperature"} {
			seed++
			p.sensors[UnitBoiler][variable] = NewVirtualSensor(variable, seed)
		}
	}

	p.powerPID = NewPID(0.05, 0.002, 0.0, 0, 100)

	p.snap = p.buildSnapshot()
	p.log.Info("power plant initialized")
	return p, nil
}

// ApplyControl queues sparse setpoints for the named unit, applied at the
// start of the next step. A PowerSetpoint on "plant" engages the closed power
// loop; setting it to zero releases the loads back to manual control.
func (p *PowerPlant) ApplyControl(unit string, sp Setpoints) bool {
	switch unit {
	case UnitDigester:
		if p.digester == nil {
			return false
		}
	case UnitEngine:
		if p.engine == nil {
			return false
		}
	case UnitBoiler:
		if p.boiler == nil {
			return false
		}
	case UnitTurbine:
		if p.turbine == nil {
			return false
		}
	case UnitPlant:
	default:
		return false
	}

	q, ok := p.pending[unit]
	if !ok {
		q = &Setpoints{}
		p.pending[unit] = q
	}
	q.merge(sp)
	return true
}

// Sensor returns the named virtual sensor, or nil if absent.
func (p *PowerPlant) Sensor(unit, variable string) *VirtualSensor {
	if vs, ok := p.sensors[unit]; ok {
		return vs[variable]
	}
	return nil
}

func (p *PowerPlant) takePending(unit string) *Setpoints {
	sp := p.pending[unit]
	delete(p.pending, unit)
	return sp
}

// Step advances the whole plant by dt seconds and rebuilds the snapshot.
func (p *PowerPlant) Step(dt float64) {
	if sp := p.takePending(UnitPlant); sp != nil && sp.PowerSetpoint != nil {
		p.powerTarget = clamp(*sp.PowerSetpoint, 0, p.ratedPower())
		p.powerPID.Setpoint = p.powerTarget
		if p.powerTarget == 0 {
			p.powerPID.Reset()
		}
		p.log.WithField("power_setpoint_kw", p.powerTarget).Info("plant power setpoint updated")
	}

	// Closed power loop: one PID output trims every generation unit's load.
	if p.powerTarget > 0 {
		loadPct := p.powerPID.Update(p.totalPower(), dt)
		sp := Setpoints{LoadSetpoint: Float(loadPct)}
		if p.engine != nil {
			p.ApplyControl(UnitEngine, sp)
		}
		if p.boiler != nil {
			p.ApplyControl(UnitBoiler, sp)
		}
	}

	if p.digester != nil {
		st := p.digester.Step(dt, p.takePending(UnitDigester)).(DigesterState)
		p.engine.SetFuelMethane(st.MethaneContent)
	}
	if p.engine != nil {
		p.engine.Step(dt, p.takePending(UnitEngine))
	}
	if p.boiler != nil {
		st := p.boiler.Step(dt, p.takePending(UnitBoiler)).(BoilerState)
		p.turbine.SetSteamSupply(st.SteamFlow, st.SteamPressure, st.SteamTemperature)
		p.turbine.Step(dt, p.takePending(UnitTurbine))
	}

	p.simTime += dt
	p.lastDT = dt
	p.snap = p.buildSnapshot()
}

// ratedPower sums the rated electrical capacity of the present units.
func (p *PowerPlant) ratedPower() float64 {
	var total float64
	if p.engine != nil {
		total += p.engine.p.RatedPowerKW
	}
	if p.turbine != nil {
		total += p.turbine.p.RatedPowerKW
	}
	return total
}

// totalPower sums the realized electrical output of the present units.
func (p *PowerPlant) totalPower() float64 {
	var total float64
	if p.engine != nil {
		total += p.engine.State().PowerOutput
	}
	if p.turbine != nil {
		total += p.turbine.State().PowerOutput
	}
	return total
}

// buildSnapshot assembles the authoritative whole-plant snapshot.
func (p *PowerPlant) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		SimulationTime: p.simTime,
		Mode:           string(p.mode),
		Sensors:        make(map[string]map[string]float64, len(p.sensors)),
	}

	var totalThermal float64
	if p.digester != nil {
		st := p.digester.State()
		snap.Digester = &st
		snap.Sensors[UnitDigester] = map[string]float64{
			"ph":          p.sensors[UnitDigester]["ph"].Read(st.PH, p.lastDT),
			"temperature": p.sensors[UnitDigester]["temperature"].Read(st.Temperature, p.lastDT),
		}
	}
	if p.engine != nil {
		st := p.engine.State()
		snap.Engine = &st
		totalThermal += st.ThermalOutput
	}
	if p.boiler != nil {
		st := p.boiler.State()
		snap.Boiler = &st
		snap.Sensors[UnitBoiler] = map[string]float64{
			"pressure":    p.sensors[UnitBoiler]["pressure"].Read(st.SteamPressure, p.lastDT),
			"temperature": p.sensors[UnitBoiler]["temperature"].Read(st.SteamTemperature, p.lastDT),
		}
	}
	if p.turbine != nil {
		st := p.turbine.State()
		snap.Turbine = &st
	}

	snap.Plant = &PlantTotals{
		TotalPowerOutput:   p.totalPower(),
		TotalThermalOutput: totalThermal,
	}
	return snap
}

// Snapshot returns the most recent whole-plant snapshot.
func (p *PowerPlant) Snapshot() *Snapshot { return p.snap }

// RunFor advances the plant for the given simulated duration in fixed dt
// steps, synchronously. Used by the CLI run path.
func (p *PowerPlant) RunFor(durationS, dt float64) {
	steps := int(durationS / dt)
	for i := 0; i < steps; i++ {
		p.Step(dt)
	}
}
