package plant

import "math"

// FeedTankPhase is the sterilization cycle phase of a feed tank.
type FeedTankPhase int

const (
	FeedIdle FeedTankPhase = iota
	FeedHeating
	FeedHolding
	FeedCooling
	FeedReady
	FeedTransferring
	FeedEmpty
)

// String returns the wire name of the phase.
func (p FeedTankPhase) String() string {
	switch p {
	case FeedIdle:
		return "idle"
	case FeedHeating:
		return "heating"
	case FeedHolding:
		return "holding"
	case FeedCooling:
		return "cooling"
	case FeedReady:
		return "ready"
	case FeedTransferring:
		return "transferring"
	case FeedEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the phase as its string name.
func (p FeedTankPhase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// FeedTank models a media preparation tank with a steam sterilization cycle:
// idle -> heating -> holding -> cooling -> ready -> transferring -> empty.
type FeedTank struct {
	cfg FeedTankConfig
	p   FeedTankParams

	temp        float64
	volume      float64
	phase       FeedTankPhase
	holdElapsed float64
	sterile     bool

	valveSteam    float64 // 0-100 %
	valveCooling  float64 // 0-100 %
	transferValve *DiscreteValve

	timeH float64
}

// NewFeedTank builds a feed tank for the named config (falling back to the
// default feed tank) with the given parameters.
func NewFeedTank(name string, p FeedTankParams) *FeedTank {
	cfg := LookupFeedTank(name)
	return &FeedTank{
		cfg:           cfg,
		p:             p,
		temp:          p.Temp0,
		volume:        cfg.WorkingVolumeL * p.V0Fraction,
		phase:         FeedIdle,
		transferValve: NewDiscreteValve(cfg.Name+"-transfer", 2.0, 1.0),
	}
}

// Config returns the tank's static reference data.
func (f *FeedTank) Config() FeedTankConfig { return f.cfg }

// Phase returns the current sterilization cycle phase.
func (f *FeedTank) Phase() FeedTankPhase { return f.phase }

// MediaSubstrate returns the substrate concentration of the prepared media.
func (f *FeedTank) MediaSubstrate() float64 { return f.p.MediaSubstrate }

// StartSterilization begins the steam cycle. No-op unless the tank is idle
// and holds liquid.
func (f *FeedTank) StartSterilization() {
	if f.phase != FeedIdle || f.volume <= 0 {
		return
	}
	f.phase = FeedHeating
	f.valveSteam = 100.0
	f.valveCooling = 0.0
	f.sterile = false
	f.holdElapsed = 0.0
}

// StartTransfer opens the transfer line to the target fermentor. Only
// honored in the ready phase; anything else is a harmless no-op.
func (f *FeedTank) StartTransfer() {
	if f.phase != FeedReady || f.volume <= 0 {
		return
	}
	f.phase = FeedTransferring
	f.transferValve.Open()
}

// TransferredVolume returns the volume (L) that leaves the tank over dt
// seconds in the current phase, scaled by the transfer valve travel.
func (f *FeedTank) TransferredVolume(dt float64) float64 {
	if f.phase != FeedTransferring {
		return 0
	}
	vol := f.cfg.TransferRateLMin * (dt / 60.0) * f.transferValve.Position()
	return math.Min(vol, f.volume)
}

// Step advances the tank by dt seconds and returns the new snapshot.
// Transfer outflow is not applied here; the orchestrator moves
// TransferredVolume into the target fermentor and calls drainTransfer.
func (f *FeedTank) Step(dt float64, sp *Setpoints) UnitState {
	if sp != nil {
		if sp.StartSterilization {
			f.StartSterilization()
		}
		if sp.StartTransfer {
			f.StartTransfer()
		}
	}

	f.transferValve.Step(dt)

	// Jacket temperature from valve states: full steam drives toward the
	// ~140 degC jacket, cooling water toward the CWS supply curve.
	steamFrac := f.valveSteam / 100.0
	coolFrac := f.valveCooling / 100.0
	jacketTemp := f.temp // adiabatic
	if steamFrac > 0 {
		jacketTemp = 140.0
	} else if coolFrac > 0 {
		jacketTemp = 5.0 + (25.0-5.0)*(1.0-coolFrac)
	}

	if f.volume > 0 {
		massKg := (f.volume / 1000.0) * f.p.BrothDensity
		q := f.p.JacketU * f.cfg.JacketAreaM2 * (jacketTemp - f.temp)
		f.temp += q / (massKg * f.p.BrothCp) * dt
	}

	switch f.phase {
	case FeedHeating:
		if f.temp >= f.p.SterilizationTemp {
			f.phase = FeedHolding
			f.holdElapsed = 0.0
		}
	case FeedHolding:
		f.holdElapsed += dt
		if f.holdElapsed >= f.p.SterilizationHold {
			f.phase = FeedCooling
			f.valveSteam = 0.0
			f.valveCooling = 100.0
			f.sterile = true
		}
	case FeedCooling:
		if f.temp <= f.p.CoolingTarget {
			f.phase = FeedReady
			f.valveCooling = 0.0
		}
	}

	f.timeH += dt / 3600.0
	return f.State()
}

// drainTransfer removes transferred volume from the tank, snapping to
// exactly zero (and phase empty) below the floor threshold.
func (f *FeedTank) drainTransfer(volumeL float64) {
	if f.phase != FeedTransferring {
		return
	}
	f.volume = math.Max(0, f.volume-volumeL)
	if f.volume <= 0.1 {
		f.volume = 0.0
		f.phase = FeedEmpty
		f.transferValve.Close()
	}
}

// State returns the current snapshot.
func (f *FeedTank) State() FeedTankState {
	return FeedTankState{
		Vessel:         f.cfg.Name,
		TimeH:          f.timeH,
		Temperature:    f.temp,
		Volume:         f.volume,
		Phase:          f.phase,
		Sterile:        f.sterile,
		MediaSubstrate: f.p.MediaSubstrate,
		HoldElapsed:    f.holdElapsed,
		ValveSteam:     f.valveSteam,
		ValveCooling:   f.valveCooling,
		TransferPos:    f.transferValve.Position(),
	}
}
