package plant

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// FacilityMode selects the set of vessels a fermentation simulation runs.
type FacilityMode string

const (
	// ModeSingle7KL runs the production fermentor with its feed tank and the
	// broth collection tank.
	ModeSingle7KL FacilityMode = "single_7kl"
	// ModeSeedTrain runs the 70L -> 700L -> 7KL scale-up chain.
	ModeSeedTrain FacilityMode = "seed_train"
	// ModeFullFacility runs every fermentor, feed tank, and the broth tank.
	ModeFullFacility FacilityMode = "full_facility"
)

// FacilityConfig parameterizes a fermentation facility simulation.
type FacilityConfig struct {
	Mode  FacilityMode
	Media string // entry in MediaDB; empty means DefaultMedia
	Seed  uint64 // base seed for sensor noise streams
}

// Dosing sequence timing, matched to plant batch records.
const (
	baseDoseOpenS  = 15.0
	baseDosePauseS = 13.0
	baseMaxDoses   = 3
	acidDoseOpenS  = 10.0
	acidDosePauseS = 10.0
	acidMaxDoses   = 3
)

// Facility orchestrates the fermentation side of the plant: fermentors, feed
// tanks, the broth tank, dosing sequencers, and virtual sensors, advanced
// together on a fixed timestep. Not safe for concurrent use; the Manager
// serializes access through the simulation goroutine.
type Facility struct {
	mode FacilityMode

	fermentors map[string]*Bioreactor
	feedTanks  map[string]*FeedTank
	broth      *BrothTank

	fermOrder []string
	feedOrder []string

	dosing  map[string]*DosingController         // "<vessel>/base", "<vessel>/acid"
	sensors map[string]map[string]*VirtualSensor // vessel -> variable

	pending    map[string]*Setpoints
	harvesting map[string]bool

	params  BioreactorParams
	simTime float64
	lastDT  float64
	snap    *Snapshot
	log     *logrus.Entry
}

// facilityVessels returns the fermentor names each mode runs.
func facilityVessels(mode FacilityMode) []string {
	switch mode {
	case ModeSingle7KL:
		return []string{"KF-7KL"}
	case ModeSeedTrain, ModeFullFacility:
		return []string{"KF-70L", "KF-700L", "KF-7KL"}
	default:
		return []string{"KF-7KL"}
	}
}

// NewFacility builds a facility simulation in the given mode. The media entry
// sets initial substrate and pH in every fermentor and the prepared feed.
func NewFacility(cfg FacilityConfig) *Facility {
	media, ok := MediaByName(cfg.Media)
	if !ok {
		media, _ = MediaByName(DefaultMedia)
	}

	params := DefaultBioreactorParams()
	params.Substrate0 = media.SubstrateGL
	params.PH0 = media.InitialPH

	f := &Facility{
		mode:       cfg.Mode,
		fermentors: make(map[string]*Bioreactor),
		feedTanks:  make(map[string]*FeedTank),
		dosing:     make(map[string]*DosingController),
		sensors:    make(map[string]map[string]*VirtualSensor),
		pending:    make(map[string]*Setpoints),
		harvesting: make(map[string]bool),
		params:     params,
		log: logrus.WithFields(logrus.Fields{
			"orchestrator": "facility",
			"mode":         cfg.Mode,
		}),
	}

	seed := cfg.Seed
	for _, name := range facilityVessels(cfg.Mode) {
		br := NewBioreactor(name, params)
		f.fermentors[name] = br
		f.fermOrder = append(f.fermOrder, name)

		vc := br.Config()
		f.dosing[name+"/base"] = NewDosingController(
			name+"/base", baseDoseOpenS, baseDosePauseS, baseMaxDoses, vc.BaseFlowLPerH)
		f.dosing[name+"/acid"] = NewDosingController(
			name+"/acid", acidDoseOpenS, acidDosePauseS, acidMaxDoses, vc.AcidFlowLPerH)

		f.sensors[name] = make(map[string]*VirtualSensor)
		for _, variable := range []string{"ph", "do", "temperature", "level"} {
			seed++
			f.sensors[name][variable] = NewVirtualSensor(variable, seed)
		}
	}
	sort.Strings(f.fermOrder)

	if cfg.Mode == ModeSingle7KL || cfg.Mode == ModeFullFacility {
		tankParams := DefaultFeedTankParams()
		tankParams.MediaSubstrate = media.SubstrateGL
		for _, name := range f.fermOrder {
			vc := f.fermentors[name].Config()
			if vc.FeedTank == "" {
				continue
			}
			if cfg.Mode == ModeSingle7KL && vc.Name != "KF-7KL" {
				continue
			}
			f.feedTanks[vc.FeedTank] = NewFeedTank(vc.FeedTank, tankParams)
			f.feedOrder = append(f.feedOrder, vc.FeedTank)
		}
		sort.Strings(f.feedOrder)
	}

	f.broth = NewBrothTank("KF-7000L", DefaultBrothTankParams())

	f.snap = f.buildSnapshot()
	f.log.WithFields(logrus.Fields{
		"fermentors": f.fermOrder,
		"feed_tanks": f.feedOrder,
		"media":      media.Name,
	}).Info("facility initialized")
	return f
}

// ApplyControl queues sparse setpoints for the named vessel (fermentor, feed
// tank, or broth tank), applied at the start of the next step. Returns false
// when the vessel is not part of this simulation.
func (f *Facility) ApplyControl(vessel string, sp Setpoints) bool {
	_, isFerm := f.fermentors[vessel]
	_, isFeed := f.feedTanks[vessel]
	if !isFerm && !isFeed && vessel != f.broth.cfg.Name {
		return false
	}
	p, ok := f.pending[vessel]
	if !ok {
		p = &Setpoints{}
		f.pending[vessel] = p
	}
	p.merge(sp)
	return true
}

// Sensor returns the named virtual sensor, or nil if absent.
func (f *Facility) Sensor(vessel, variable string) *VirtualSensor {
	if vs, ok := f.sensors[vessel]; ok {
		return vs[variable]
	}
	return nil
}

// takePending removes and returns the queued setpoints for a vessel.
func (f *Facility) takePending(vessel string) *Setpoints {
	sp := f.pending[vessel]
	delete(f.pending, vessel)
	return sp
}

// Step advances the whole facility by dt seconds and rebuilds the snapshot.
func (f *Facility) Step(dt float64) {
	for _, name := range f.fermOrder {
		f.stepFermentor(name, dt)
	}

	for _, name := range f.feedOrder {
		f.stepFeedTank(name, dt)
	}

	f.broth.Step(dt, f.takePending(f.broth.cfg.Name))

	f.simTime += dt
	f.lastDT = dt
	f.snap = f.buildSnapshot()
}

// stepFermentor advances one fermentor: dosing sequencers override the dosing
// valves, then physics, then any active harvest outflow.
func (f *Facility) stepFermentor(name string, dt float64) {
	br := f.fermentors[name]
	sp := f.takePending(name)
	if sp == nil {
		sp = &Setpoints{}
	}

	if sp.StartBaseDosing {
		f.dosing[name+"/base"].Start()
		f.log.WithField("vessel", name).Info("base dosing sequence started")
	}
	if sp.StartAcidDosing {
		f.dosing[name+"/acid"].Start()
		f.log.WithField("vessel", name).Info("acid dosing sequence started")
	}
	if sp.StartHarvest && !f.harvesting[name] {
		f.harvesting[name] = true
		f.log.WithField("vessel", name).Info("harvest started")
	}

	// An active sequencer owns its valve; manual valve setpoints win only
	// while no sequence is running.
	if base := f.dosing[name+"/base"]; base.Active() {
		sp.ValveBase = Flag(base.Step(dt))
	} else {
		base.Step(dt)
	}
	if acid := f.dosing[name+"/acid"]; acid.Active() {
		sp.ValveAcid = Flag(acid.Step(dt))
	} else {
		acid.Step(dt)
	}

	st := br.Step(dt, sp).(BioreactorState)

	if f.harvesting[name] {
		f.drainHarvest(name, br, st, dt)
	}
}

// drainHarvest moves broth out of a harvesting fermentor at the transfer pipe
// rate, into the broth tank or the next seed-train vessel.
func (f *Facility) drainHarvest(name string, br *Bioreactor, st BioreactorState, dt float64) {
	vc := br.Config()
	rate := PipeFlowLPerH[vc.PipeTransfer]
	removed, temp := br.Drain(rate * dt / 3600.0)
	if removed <= 0 {
		f.harvesting[name] = false
		return
	}

	switch {
	case vc.BrothTank != "":
		f.broth.Receive(removed, temp)
	case vc.SeedTarget != "":
		if target, ok := f.fermentors[vc.SeedTarget]; ok {
			target.Inoculate(removed, st.Biomass, st.Substrate, temp)
		}
	}

	if br.State().Volume <= 0.1 {
		f.harvesting[name] = false
		f.log.WithField("vessel", name).Info("harvest complete")
	}
}

// stepFeedTank advances one feed tank and applies any transfer outflow to the
// wired fermentor.
func (f *Facility) stepFeedTank(name string, dt float64) {
	tank := f.feedTanks[name]
	sp := f.takePending(name)

	vol := tank.TransferredVolume(dt)
	tank.Step(dt, sp)
	if vol > 0 {
		if target, ok := f.fermentors[tank.Config().TargetFermentor]; ok {
			target.Receive(vol, tank.MediaSubstrate(), tank.State().Temperature)
		}
		tank.drainTransfer(vol)
		if tank.Phase() == FeedEmpty {
			f.log.WithField("tank", name).Info("media transfer complete")
		}
	}
}

// buildSnapshot assembles the authoritative whole-facility snapshot.
func (f *Facility) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		SimulationTime: f.simTime,
		Mode:           string(f.mode),
		Bioreactors:    make(map[string]BioreactorState, len(f.fermOrder)),
		Dosing:         make(map[string]DosingState, len(f.dosing)),
		Sensors:        make(map[string]map[string]float64, len(f.fermOrder)),
	}

	for _, name := range f.fermOrder {
		st := f.fermentors[name].State()
		snap.Bioreactors[name] = st
		snap.Sensors[name] = f.readSensors(name, st)
	}
	for key, d := range f.dosing {
		snap.Dosing[key] = d.State()
	}
	if len(f.feedOrder) > 0 {
		snap.FeedTanks = make(map[string]FeedTankState, len(f.feedOrder))
		for _, name := range f.feedOrder {
			snap.FeedTanks[name] = f.feedTanks[name].State()
		}
	}
	bt := f.broth.State()
	snap.BrothTank = &bt

	return snap
}

// readSensors produces measured values for a fermentor from its true state.
// Sensors advance once per physics step, when the snapshot is built, so
// repeated Snapshot calls never double-advance drift.
func (f *Facility) readSensors(name string, st BioreactorState) map[string]float64 {
	sensors := f.sensors[name]
	wv := f.fermentors[name].Config().WorkingVolumeL
	truth := map[string]float64{
		"ph":          st.PH,
		"do":          st.DO / f.params.CStarMgL * 100.0,
		"temperature": st.Temperature,
		"level":       st.Volume / wv * 100.0,
	}
	out := make(map[string]float64, len(truth))
	for variable, v := range truth {
		out[variable] = sensors[variable].Read(v, f.lastDT)
	}
	return out
}

// Snapshot returns the most recent whole-facility snapshot.
func (f *Facility) Snapshot() *Snapshot { return f.snap }

// RunFor advances the facility for the given simulated duration in fixed dt
// steps, synchronously. Used by the CLI run path.
func (f *Facility) RunFor(durationS, dt float64) {
	steps := int(durationS / dt)
	for i := 0; i < steps; i++ {
		f.Step(dt)
	}
}
