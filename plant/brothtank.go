package plant

import "math"

// BrothTankPhase is the collection cycle phase of the broth tank.
type BrothTankPhase int

const (
	BrothEmpty BrothTankPhase = iota
	BrothReceiving
	BrothCooling
	BrothStored
	BrothDraining
)

// String returns the wire name of the phase.
func (p BrothTankPhase) String() string {
	switch p {
	case BrothEmpty:
		return "empty"
	case BrothReceiving:
		return "receiving"
	case BrothCooling:
		return "cooling"
	case BrothStored:
		return "stored"
	case BrothDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the phase as its string name.
func (p BrothTankPhase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// BrothTank collects harvested fermentation broth and chills it toward cold
// storage. No biology, just volume and temperature.
type BrothTank struct {
	cfg BrothTankConfig
	p   BrothTankParams

	temp   float64
	volume float64
	phase  BrothTankPhase

	valveCooling float64 // 0-100 %
	inletOpen    bool
	drainOpen    bool

	timeH float64
}

// NewBrothTank builds the broth tank for the named config.
func NewBrothTank(name string, p BrothTankParams) *BrothTank {
	cfg := LookupBrothTank(name)
	t := &BrothTank{cfg: cfg, p: p, temp: p.Temp0, volume: p.V0}
	if t.volume >= 1.0 {
		t.phase = BrothStored
	}
	return t
}

// Phase returns the current collection phase.
func (t *BrothTank) Phase() BrothTankPhase { return t.phase }

// Receive mixes incoming broth into the tank with a volume-weighted energy
// balance, capped at working volume.
func (t *BrothTank) Receive(volumeL, tempC float64) {
	if volumeL <= 0 {
		return
	}
	if t.volume > 0 {
		t.temp = (t.temp*t.volume + tempC*volumeL) / (t.volume + volumeL)
	} else {
		t.temp = tempC
	}
	t.volume = math.Min(t.volume+volumeL, t.cfg.WorkingVolumeL)
	if t.phase == BrothEmpty {
		t.phase = BrothReceiving
		t.inletOpen = true
	}
}

// StartCooling opens the CWS jacket toward the cold-storage target. No-op on
// an empty tank.
func (t *BrothTank) StartCooling() {
	if t.volume <= 0 {
		return
	}
	t.phase = BrothCooling
	t.valveCooling = 100.0
	t.inletOpen = false
}

// StartDrain discharges the tank. The drain itself happens on the next Step.
func (t *BrothTank) StartDrain() {
	if t.volume <= 0 {
		return
	}
	t.phase = BrothDraining
	t.drainOpen = true
}

// Step advances the tank by dt seconds and returns the new snapshot.
func (t *BrothTank) Step(dt float64, sp *Setpoints) UnitState {
	if sp != nil {
		if sp.StartCooling {
			t.StartCooling()
		}
		if sp.StartDrain {
			t.StartDrain()
		}
	}

	if t.volume > 0 && t.valveCooling > 0 {
		// Chilled glycol loop; plain CWS cannot reach the 4 degC target.
		const cwsTemp = 2.0
		coolFrac := t.valveCooling / 100.0
		massKg := (t.volume / 1000.0) * t.p.BrothDensity
		q := t.p.JacketU * t.cfg.JacketAreaM2 * (cwsTemp - t.temp) * coolFrac
		t.temp += q / (massKg * t.p.BrothCp) * dt
	}

	switch t.phase {
	case BrothCooling:
		if t.temp <= t.p.CoolingTarget+0.5 {
			t.phase = BrothStored
			t.valveCooling = 0.0
		}
	case BrothDraining:
		// Discharge is modeled as instantaneous.
		t.volume = 0.0
		t.phase = BrothEmpty
		t.drainOpen = false
	}

	t.timeH += dt / 3600.0
	return t.State()
}

// State returns the current snapshot.
func (t *BrothTank) State() BrothTankState {
	return BrothTankState{
		Vessel:       t.cfg.Name,
		TimeH:        t.timeH,
		Temperature:  t.temp,
		Volume:       t.volume,
		Phase:        t.phase,
		ValveCooling: t.valveCooling,
		InletOpen:    t.inletOpen,
		DrainOpen:    t.drainOpen,
	}
}
