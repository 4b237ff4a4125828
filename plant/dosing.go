package plant

// DosingPhase is the phase of a timed dosing sequence.
type DosingPhase int

const (
	DoseIdle DosingPhase = iota
	DoseDosing
	DosePause
	DoseComplete
)

// String returns the wire name of the phase.
func (p DosingPhase) String() string {
	switch p {
	case DoseIdle:
		return "idle"
	case DoseDosing:
		return "dosing"
	case DosePause:
		return "pause"
	case DoseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the phase as its string name.
func (p DosingPhase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// DosingState is one snapshot of a dosing controller.
type DosingState struct {
	Name         string      `json:"name"`
	Active       bool        `json:"active"`
	Phase        DosingPhase `json:"phase"`
	DoseCount    int         `json:"dose_count"`
	MaxDoses     int         `json:"max_doses"`
	ValveOpen    bool        `json:"valve_open"`
	PhaseElapsed float64     `json:"phase_elapsed_s"`
	TotalDosed   float64     `json:"total_dosed_l"`
}

// DosingController is a timed valve sequencer for acid/base/antifoam
// injection. One dose opens the valve for DoseOpenS seconds, then closes it
// for DosePauseS seconds before the next dose; after MaxDoses doses the
// sequence completes and the controller goes inert until started again.
type DosingController struct {
	Name       string
	DoseOpenS  float64
	DosePauseS float64
	MaxDoses   int
	FlowLPerH  float64 // flow rate while the valve is open

	active       bool
	doseCount    int
	phase        DosingPhase
	phaseElapsed float64
	valveOpen    bool
	totalDosedL  float64
}

// NewDosingController returns an idle controller with the given timing.
func NewDosingController(name string, doseOpenS, dosePauseS float64, maxDoses int, flowLPerH float64) *DosingController {
	return &DosingController{
		Name:       name,
		DoseOpenS:  doseOpenS,
		DosePauseS: dosePauseS,
		MaxDoses:   maxDoses,
		FlowLPerH:  flowLPerH,
	}
}

// ValveOpen reports whether the dosing valve is currently open.
func (d *DosingController) ValveOpen() bool { return d.valveOpen }

// DoseCount returns the number of completed doses in this sequence.
func (d *DosingController) DoseCount() int { return d.doseCount }

// Active reports whether a sequence is in progress.
func (d *DosingController) Active() bool { return d.active }

// Complete reports whether the sequence has delivered all doses.
func (d *DosingController) Complete() bool { return d.phase == DoseComplete }

// Start begins a dosing sequence. No-op unless the controller is idle or a
// previous sequence has completed.
func (d *DosingController) Start() {
	if d.phase != DoseIdle && d.phase != DoseComplete {
		return
	}
	d.active = true
	d.doseCount = 0
	d.phase = DoseDosing
	d.phaseElapsed = 0.0
	d.valveOpen = true
}

// Stop aborts the sequence, closing the valve. Dose counters are cleared.
func (d *DosingController) Stop() {
	d.active = false
	d.phase = DoseIdle
	d.valveOpen = false
	d.phaseElapsed = 0.0
	d.doseCount = 0
}

// Reset returns the controller to idle and additionally zeroes the
// accumulated dosed volume.
func (d *DosingController) Reset() {
	d.Stop()
	d.totalDosedL = 0.0
}

// Step advances the sequence by dt seconds. Returns true while the valve is
// open. Inactive controllers are inert.
func (d *DosingController) Step(dt float64) bool {
	if !d.active {
		d.valveOpen = false
		return false
	}

	d.phaseElapsed += dt

	switch d.phase {
	case DoseDosing:
		d.valveOpen = true
		d.totalDosedL += d.FlowLPerH * (dt / 3600.0)

		if d.phaseElapsed >= d.DoseOpenS {
			d.doseCount++
			d.valveOpen = false
			if d.doseCount >= d.MaxDoses {
				d.phase = DoseComplete
				d.active = false
			} else {
				d.phase = DosePause
				d.phaseElapsed = 0.0
			}
		}
	case DosePause:
		d.valveOpen = false
		if d.phaseElapsed >= d.DosePauseS {
			d.phase = DoseDosing
			d.phaseElapsed = 0.0
		}
	}

	return d.valveOpen
}

// State returns the current snapshot.
func (d *DosingController) State() DosingState {
	return DosingState{
		Name:         d.Name,
		Active:       d.active,
		Phase:        d.phase,
		DoseCount:    d.doseCount,
		MaxDoses:     d.MaxDoses,
		ValveOpen:    d.valveOpen,
		PhaseElapsed: d.phaseElapsed,
		TotalDosed:   d.totalDosedL,
	}
}
