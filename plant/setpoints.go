package plant

// Setpoints is the sparse control surface for all unit models. A nil field
// means "leave unchanged"; present fields are applied at the start of the
// next Step. Values outside physical limits are clamped, never rejected.
//
// Each unit reads only the fields it understands; fields aimed at a
// different unit type are ignored.
type Setpoints struct {
	// Bioreactor
	RPM           *float64 `json:"rpm_setpoint,omitempty"`   // target agitation speed
	AerationVVM   *float64 `json:"aeration_vvm,omitempty"`   // aeration rate
	FeedRate      *float64 `json:"feed_rate,omitempty"`      // L/h
	FeedSubstrate *float64 `json:"feed_substrate,omitempty"` // g/L substrate in feed
	ValveAcid     *bool    `json:"valve_acid,omitempty"`     // on/off dosing valve
	ValveBase     *bool    `json:"valve_base,omitempty"`     // on/off dosing valve
	ValveAntifoam *bool    `json:"valve_antifoam,omitempty"` // on/off dosing valve
	ValveSteam    *float64 `json:"valve_steam,omitempty"`    // 0-100 % jacket steam
	ValveCooling  *float64 `json:"valve_cooling,omitempty"`  // 0-100 % jacket CWS

	// Power plant units
	LoadSetpoint  *float64 `json:"load_setpoint,omitempty"`      // 0-100 % engine/boiler load
	FuelFeed      *float64 `json:"fuel_feed,omitempty"`          // kg/h boiler fuel (overrides load)
	PowerSetpoint *float64 `json:"power_setpoint,omitempty"`     // kW, closes the PID load loop
	DigesterFeed  *float64 `json:"digester_feed_rate,omitempty"` // m3/h feedstock

	// Discrete commands (edge-triggered, consumed on apply)
	StartBaseDosing    bool `json:"start_base_dosing,omitempty"`
	StartAcidDosing    bool `json:"start_acid_dosing,omitempty"`
	StartSterilization bool `json:"start_sterilization,omitempty"` // feed tank
	StartTransfer      bool `json:"start_transfer,omitempty"`      // feed tank -> fermentor
	StartHarvest       bool `json:"start_harvest,omitempty"`       // fermentor -> broth tank
	StartCooling       bool `json:"start_cooling,omitempty"`       // broth tank
	StartDrain         bool `json:"start_drain,omitempty"`         // broth tank
}

// Float returns a pointer to v, for building sparse Setpoints literals.
func Float(v float64) *float64 { return &v }

// Flag returns a pointer to v, for building sparse Setpoints literals.
func Flag(v bool) *bool { return &v }

// merge overlays non-nil fields of src onto dst. Discrete commands are OR-ed
// so a trigger queued earlier in the same tick is not lost.
func (dst *Setpoints) merge(src Setpoints) {
	if src.RPM != nil {
		dst.RPM = src.RPM
	}
	if src.AerationVVM != nil {
		dst.AerationVVM = src.AerationVVM
	}
	if src.FeedRate != nil {
		dst.FeedRate = src.FeedRate
	}
	if src.FeedSubstrate != nil {
		dst.FeedSubstrate = src.FeedSubstrate
	}
	if src.ValveAcid != nil {
		dst.ValveAcid = src.ValveAcid
	}
	if src.ValveBase != nil {
		dst.ValveBase = src.ValveBase
	}
	if src.ValveAntifoam != nil {
		dst.ValveAntifoam = src.ValveAntifoam
	}
	if src.ValveSteam != nil {
		dst.ValveSteam = src.ValveSteam
	}
	if src.ValveCooling != nil {
		dst.ValveCooling = src.ValveCooling
	}
	if src.LoadSetpoint != nil {
		dst.LoadSetpoint = src.LoadSetpoint
	}
	if src.FuelFeed != nil {
		dst.FuelFeed = src.FuelFeed
	}
	if src.PowerSetpoint != nil {
		dst.PowerSetpoint = src.PowerSetpoint
	}
	if src.DigesterFeed != nil {
		dst.DigesterFeed = src.DigesterFeed
	}
	dst.StartBaseDosing = dst.StartBaseDosing || src.StartBaseDosing
	dst.StartAcidDosing = dst.StartAcidDosing || src.StartAcidDosing
	dst.StartSterilization = dst.StartSterilization || src.StartSterilization
	dst.StartTransfer = dst.StartTransfer || src.StartTransfer
	dst.StartHarvest = dst.StartHarvest || src.StartHarvest
	dst.StartCooling = dst.StartCooling || src.StartCooling
	dst.StartDrain = dst.StartDrain || src.StartDrain
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
