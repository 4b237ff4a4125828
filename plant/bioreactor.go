package plant

import "math"

// Bioreactor models a stirred aerobic fermentor: Monod growth kinetics with
// coupled pH, dissolved oxygen, and temperature balances, integrated with
// explicit Euler steps. Each Step returns a fresh immutable snapshot.
type Bioreactor struct {
	cfg VesselConfig
	p   BioreactorParams

	// State variables
	biomass   float64 // g/L
	substrate float64 // g/L
	ph        float64
	do        float64 // mg/L
	temp      float64 // degC
	volume    float64 // L

	// Actuators (realized values lag setpoints)
	rpmSetpoint   float64
	rpm           float64
	aerationVVM   float64
	jacketTemp    float64
	feedRate      float64 // L/h
	feedSubstrate float64 // g/L
	valveAcid     bool
	valveBase     bool
	valveAntifoam bool
	steamValve    *ControlValve
	coolingValve  *ControlValve

	totalAcidL float64
	totalBaseL float64
	timeH      float64
}

// NewBioreactor builds a bioreactor for the named vessel (falling back to the
// default vessel config) with the given model parameters.
func NewBioreactor(vessel string, p BioreactorParams) *Bioreactor {
	cfg := LookupVessel(vessel)
	return &Bioreactor{
		cfg:          cfg,
		p:            p,
		biomass:      p.Biomass0,
		substrate:    p.Substrate0,
		ph:           p.PH0,
		do:           p.DO0,
		temp:         p.Temp0,
		volume:       cfg.WorkingVolumeL * p.V0Fraction,
		jacketTemp:   p.Temp0,
		steamValve:   NewControlValve(cfg.Name+"-steam", 5.0),
		coolingValve: NewControlValve(cfg.Name+"-cws", 5.0),
	}
}

// Config returns the vessel's static reference data.
func (b *Bioreactor) Config() VesselConfig { return b.cfg }

// fTemperature is the Gaussian-shaped temperature growth factor.
func (b *Bioreactor) fTemperature(t float64) float64 {
	d := (t - b.p.TOpt) / b.p.TRange
	return math.Exp(-d * d)
}

// fPH is the Gaussian-shaped pH growth factor.
func (b *Bioreactor) fPH(ph float64) float64 {
	d := (ph - b.p.PHOpt) / b.p.PHRange
	return math.Exp(-d * d)
}

// kLa returns the volumetric oxygen transfer coefficient (1/h) at the given
// agitation speed and aeration rate.
func (b *Bioreactor) kLa(rpm, vvm float64) float64 {
	if rpm <= 0 || vvm <= 0 {
		return 0
	}
	rpmRatio := rpm / math.Max(b.p.RPMRef, 1.0)
	vvmRatio := vvm / math.Max(b.p.VVMRef, 0.01)
	return b.p.KLaBase * math.Pow(rpmRatio, 0.7) * math.Pow(vvmRatio, 0.5)
}

// applySetpoints copies the recognized non-nil setpoint fields onto the
// actuator targets, clamping to the vessel's physical limits.
func (b *Bioreactor) applySetpoints(sp *Setpoints) {
	if sp == nil {
		return
	}
	if sp.RPM != nil {
		b.rpmSetpoint = clamp(*sp.RPM, 0, b.cfg.MaxRPM)
	}
	if sp.AerationVVM != nil {
		b.aerationVVM = clamp(*sp.AerationVVM, 0, b.cfg.MaxAerationVVM)
	}
	if sp.FeedRate != nil {
		b.feedRate = math.Max(0, *sp.FeedRate)
	}
	if sp.FeedSubstrate != nil {
		b.feedSubstrate = math.Max(0, *sp.FeedSubstrate)
	}
	if sp.ValveAcid != nil {
		b.valveAcid = *sp.ValveAcid
	}
	if sp.ValveBase != nil {
		b.valveBase = *sp.ValveBase
	}
	if sp.ValveAntifoam != nil {
		b.valveAntifoam = *sp.ValveAntifoam
	}
	if sp.ValveSteam != nil {
		b.steamValve.Set(*sp.ValveSteam)
	}
	if sp.ValveCooling != nil {
		b.coolingValve.Set(*sp.ValveCooling)
	}
}

// Step advances the fermentor by dt seconds and returns the new snapshot.
func (b *Bioreactor) Step(dt float64, sp *Setpoints) UnitState {
	dtH := dt / 3600.0

	b.applySetpoints(sp)

	// Agitation ramp toward setpoint at a bounded RPM/min rate.
	rpmDiff := b.rpmSetpoint - b.rpm
	maxChange := b.p.RPMRampRate * (dt / 60.0)
	if math.Abs(rpmDiff) > maxChange {
		b.rpm += math.Copysign(maxChange, rpmDiff)
	} else {
		b.rpm = b.rpmSetpoint
	}

	// Jacket valve travel, then jacket temperature relaxation. Steam pulls
	// the jacket toward 121 degC, cooling water toward 5 degC.
	b.steamValve.Step(dt)
	b.coolingValve.Step(dt)
	steamFrac := b.steamValve.Position() / 100.0
	coolFrac := b.coolingValve.Position() / 100.0
	jacketTarget := b.temp
	if steamFrac > coolFrac {
		jacketTarget = b.temp + (121.0-b.temp)*steamFrac
	} else if coolFrac > 0 {
		jacketTarget = b.temp + (5.0-b.temp)*coolFrac
	}
	const tauJacket = 60.0 // seconds
	alphaJ := 1.0 - math.Exp(-dt/tauJacket)
	b.jacketTemp += alphaJ * (jacketTarget - b.jacketTemp)

	// Dilution rate (1/h).
	var dilution float64
	if b.volume > 0 {
		dilution = b.feedRate / math.Max(b.volume, 1.0)
	}

	// Monod growth with oxygen, temperature, and pH limitation.
	var substrateTerm, doTerm float64
	if b.substrate > 0 {
		substrateTerm = b.substrate / (b.p.Ks + b.substrate)
	}
	if b.do > 0 {
		doTerm = b.do / (b.p.Ko + b.do)
	}
	mu := b.p.MuMax * substrateTerm * doTerm * b.fTemperature(b.temp) * b.fPH(b.ph)

	// Biomass balance.
	dX := (mu - dilution) * b.biomass
	b.biomass = math.Max(0, b.biomass+dX*dtH)

	// Substrate balance: feed dilution minus growth demand and maintenance.
	dS := dilution*(b.feedSubstrate-b.substrate) - (mu/b.p.YieldXS)*b.biomass - b.p.Maintenance*b.biomass
	b.substrate = math.Max(0, b.substrate+dS*dtH)

	// Dissolved oxygen balance (mg/L/h): transfer minus uptake minus washout.
	kla := b.kLa(b.rpm, b.aerationVVM)
	otr := kla * (b.p.CStarMgL - b.do)
	our := b.p.OURCoeff * b.biomass * 32.0 // mmol -> mg
	dDO := otr - our - dilution*b.do
	b.do = clamp(b.do+dDO*dtH, 0, b.p.CStarMgL*1.2)

	// pH from a charge balance over metabolic acid and dosing, through a
	// lumped buffer capacity.
	substrateConsumed := ((mu/b.p.YieldXS)*b.biomass + b.p.Maintenance*b.biomass) * dtH
	acidProducedMol := b.p.YieldAcid * math.Max(0, substrateConsumed)
	var acidDosedMol, baseDosedMol float64
	if b.valveAcid {
		acidVol := b.cfg.AcidFlowLPerH * dtH
		acidDosedMol = acidVol * b.p.AcidConcMolL
		b.totalAcidL += acidVol
	}
	if b.valveBase {
		baseVol := b.cfg.BaseFlowLPerH * dtH
		baseDosedMol = baseVol * b.p.BaseConcMolL
		b.totalBaseL += baseVol
	}
	netAcidMol := acidProducedMol + acidDosedMol - baseDosedMol
	if b.volume > 0 && b.p.BufferCapacity > 0 {
		b.ph -= netAcidMol / (b.p.BufferCapacity * b.volume)
		b.ph = clamp(b.ph, 2.0, 12.0)
	}

	// Temperature from jacket heat transfer plus metabolic heat.
	massKg := (b.volume / 1000.0) * b.p.BrothDensity
	if massKg > 0 {
		qJacket := b.p.JacketU * b.cfg.JacketAreaM2 * (b.jacketTemp - b.temp)
		qMetabolic := b.p.MetabolicHeatW * b.biomass * b.volume
		b.temp += (qJacket + qMetabolic) / (massKg * b.p.BrothCp) * dt
	}

	// Volume from feed plus open dosing valves, capped at working volume.
	dV := b.feedRate * dtH
	if b.valveAcid {
		dV += b.cfg.AcidFlowLPerH * dtH
	}
	if b.valveBase {
		dV += b.cfg.BaseFlowLPerH * dtH
	}
	b.volume = math.Min(b.cfg.WorkingVolumeL, b.volume+dV)

	b.timeH += dtH
	return b.State()
}

// Receive mixes incoming liquid (media transfer or inoculum) into the vessel:
// volume-weighted temperature and substrate, capped at working volume.
func (b *Bioreactor) Receive(volumeL, substrateGL, tempC float64) {
	if volumeL <= 0 {
		return
	}
	accepted := math.Min(volumeL, b.cfg.WorkingVolumeL-b.volume)
	if accepted <= 0 {
		return
	}
	total := b.volume + accepted
	if b.volume > 0 {
		b.temp = (b.temp*b.volume + tempC*accepted) / total
		b.substrate = (b.substrate*b.volume + substrateGL*accepted) / total
		b.biomass = b.biomass * b.volume / total
	} else {
		b.temp = tempC
		b.substrate = substrateGL
	}
	b.volume = total
}

// Inoculate mixes incoming broth carrying live culture into the vessel, as
// in a seed-train transfer. Volume-weighted like Receive but biomass is mixed
// in rather than diluted away.
func (b *Bioreactor) Inoculate(volumeL, biomassGL, substrateGL, tempC float64) {
	if volumeL <= 0 {
		return
	}
	accepted := math.Min(volumeL, b.cfg.WorkingVolumeL-b.volume)
	if accepted <= 0 {
		return
	}
	total := b.volume + accepted
	if b.volume > 0 {
		b.temp = (b.temp*b.volume + tempC*accepted) / total
		b.substrate = (b.substrate*b.volume + substrateGL*accepted) / total
		b.biomass = (b.biomass*b.volume + biomassGL*accepted) / total
	} else {
		b.temp = tempC
		b.substrate = substrateGL
		b.biomass = biomassGL
	}
	b.volume = total
}

// Drain removes up to volumeL of broth, returning the volume actually
// removed and its temperature. Biomass and substrate concentrations are
// unchanged by draining.
func (b *Bioreactor) Drain(volumeL float64) (removed, tempC float64) {
	removed = clamp(volumeL, 0, b.volume)
	b.volume -= removed
	return removed, b.temp
}

// State returns the current snapshot.
func (b *Bioreactor) State() BioreactorState {
	return BioreactorState{
		Vessel:         b.cfg.Name,
		TimeH:          b.timeH,
		Biomass:        b.biomass,
		Substrate:      b.substrate,
		PH:             b.ph,
		DO:             b.do,
		Temperature:    b.temp,
		Volume:         b.volume,
		RPM:            b.rpm,
		AerationVVM:    b.aerationVVM,
		JacketTemp:     b.jacketTemp,
		ValveAcid:      b.valveAcid,
		ValveBase:      b.valveBase,
		ValveAntifoam:  b.valveAntifoam,
		ValveSteamPos:  b.steamValve.Position(),
		ValveCoolPos:   b.coolingValve.Position(),
		TotalAcidAdded: b.totalAcidL,
		TotalBaseAdded: b.totalBaseL,
	}
}
