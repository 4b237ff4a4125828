package plant

// UnitState marks the per-unit snapshot types returned by Step.
type UnitState interface {
	isUnitState()
}

// Steppable is the single capability shared by every unit model: advance the
// internal state by dt seconds under the given sparse setpoints and return
// the fresh state snapshot. Orchestrators compose the closed set of concrete
// unit types; Steppable exists for code that only needs to drive a unit.
type Steppable interface {
	Step(dt float64, sp *Setpoints) UnitState
}

// BioreactorState is one immutable snapshot of a fermentor.
type BioreactorState struct {
	Vessel         string  `json:"vessel"`
	TimeH          float64 `json:"time_h"`
	Biomass        float64 `json:"biomass_g_l"`
	Substrate      float64 `json:"substrate_g_l"`
	PH             float64 `json:"ph"`
	DO             float64 `json:"do_mg_l"`
	Temperature    float64 `json:"temperature_c"`
	Volume         float64 `json:"volume_l"`
	RPM            float64 `json:"rpm"`
	AerationVVM    float64 `json:"aeration_vvm"`
	JacketTemp     float64 `json:"jacket_temperature_c"`
	ValveAcid      bool    `json:"valve_acid"`
	ValveBase      bool    `json:"valve_base"`
	ValveAntifoam  bool    `json:"valve_antifoam"`
	ValveSteamPos  float64 `json:"valve_steam_pct"`
	ValveCoolPos   float64 `json:"valve_cooling_pct"`
	TotalAcidAdded float64 `json:"total_acid_added_l"`
	TotalBaseAdded float64 `json:"total_base_added_l"`
}

func (BioreactorState) isUnitState() {}

// FeedTankState is one immutable snapshot of a feed/media tank.
type FeedTankState struct {
	Vessel         string        `json:"vessel"`
	TimeH          float64       `json:"time_h"`
	Temperature    float64       `json:"temperature_c"`
	Volume         float64       `json:"volume_l"`
	Phase          FeedTankPhase `json:"phase"`
	Sterile        bool          `json:"sterile"`
	MediaSubstrate float64       `json:"media_substrate_g_l"`
	HoldElapsed    float64       `json:"hold_elapsed_s"`
	ValveSteam     float64       `json:"valve_steam_pct"`
	ValveCooling   float64       `json:"valve_cooling_pct"`
	TransferPos    float64       `json:"valve_transfer_pos"`
}

func (FeedTankState) isUnitState() {}

// BrothTankState is one immutable snapshot of the broth collection tank.
type BrothTankState struct {
	Vessel       string         `json:"vessel"`
	TimeH        float64        `json:"time_h"`
	Temperature  float64        `json:"temperature_c"`
	Volume       float64        `json:"volume_l"`
	Phase        BrothTankPhase `json:"phase"`
	ValveCooling float64        `json:"valve_cooling_pct"`
	InletOpen    bool           `json:"valve_inlet"`
	DrainOpen    bool           `json:"valve_drain"`
}

func (BrothTankState) isUnitState() {}

// DigesterState is one immutable snapshot of the anaerobic digester.
type DigesterState struct {
	Temperature    float64 `json:"temperature_c"`
	PH             float64 `json:"ph"`
	BiogasFlow     float64 `json:"biogas_flow_nm3_h"`
	MethaneContent float64 `json:"methane_content_pct"`
	CO2Content     float64 `json:"co2_content_pct"`
	H2SPPM         float64 `json:"h2s_ppm"`
	VolatileSolids float64 `json:"volatile_solids_g_l"`
	VFA            float64 `json:"vfa_g_l"`
	Acetate        float64 `json:"acetate_g_l"`
	HRT            float64 `json:"hydraulic_retention_time_d"`
	OLR            float64 `json:"organic_loading_rate"`
}

func (DigesterState) isUnitState() {}

// EngineState is one immutable snapshot of the biogas engine.
type EngineState struct {
	RPM           float64 `json:"rpm"`
	PowerOutput   float64 `json:"power_output_kw"`
	LoadPercent   float64 `json:"load_percent"`
	ExhaustTemp   float64 `json:"exhaust_temp_c"`
	FuelFlow      float64 `json:"fuel_flow_nm3_h"`
	AirFuelRatio  float64 `json:"air_fuel_ratio"`
	ElectricalEff float64 `json:"electrical_efficiency_pct"`
	ThermalOutput float64 `json:"thermal_output_kw"`
	ThermalEff    float64 `json:"thermal_efficiency_pct"`
}

func (EngineState) isUnitState() {}

// BoilerState is one immutable snapshot of the biomass boiler.
type BoilerState struct {
	FuelFeedRate     float64 `json:"fuel_feed_rate_kg_h"`
	SteamFlow        float64 `json:"steam_flow_kg_h"`
	SteamPressure    float64 `json:"steam_pressure_bar"`
	SteamTemperature float64 `json:"steam_temperature_c"`
	CombustionTemp   float64 `json:"combustion_temp_c"`
	FlueGasTemp      float64 `json:"flue_gas_temp_c"`
	BoilerEff        float64 `json:"boiler_efficiency_pct"`
	LoadPercent      float64 `json:"load_percent"`
	FeedwaterTemp    float64 `json:"feedwater_temp_c"`
}

func (BoilerState) isUnitState() {}

// TurbineState is one immutable snapshot of the steam turbine.
type TurbineState struct {
	PowerOutput       float64 `json:"power_output_kw"`
	SteamFlow         float64 `json:"steam_flow_kg_h"`
	ExhaustTemp       float64 `json:"exhaust_temp_c"`
	CondenserPressure float64 `json:"condenser_pressure_bar"`
	FeedwaterTemp     float64 `json:"feedwater_temp_c"`
}

func (TurbineState) isUnitState() {}

// PlantTotals aggregates power plant electrical and thermal output.
type PlantTotals struct {
	TotalPowerOutput   float64 `json:"total_power_output_kw"`
	TotalThermalOutput float64 `json:"total_thermal_output_kw"`
}

// Snapshot is the authoritative whole-simulation state produced each tick.
// The orchestrator keeps exactly one current Snapshot; earlier ones are
// superseded, not retained. Values carry full precision; rounding is a
// presentation concern for consumers.
type Snapshot struct {
	SimulationTime float64 `json:"simulation_time_s"`
	Mode           string  `json:"mode"`

	// Fermentation facility
	Bioreactors map[string]BioreactorState    `json:"bioreactors,omitempty"`
	FeedTanks   map[string]FeedTankState      `json:"feed_tanks,omitempty"`
	BrothTank   *BrothTankState               `json:"broth_tank,omitempty"`
	Dosing      map[string]DosingState        `json:"dosing,omitempty"`
	Sensors     map[string]map[string]float64 `json:"sensors,omitempty"`

	// Power plant
	Digester *DigesterState `json:"digester,omitempty"`
	Engine   *EngineState   `json:"engine,omitempty"`
	Boiler   *BoilerState   `json:"boiler,omitempty"`
	Turbine  *TurbineState  `json:"steam_turbine,omitempty"`
	Plant    *PlantTotals   `json:"plant,omitempty"`
}
