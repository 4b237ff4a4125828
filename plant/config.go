package plant

// Static vessel reference data for the fermentation facility. Looked up by
// name at unit construction and never mutated afterwards.
//
// Pipe bores use Korean "A" sizes (~DN mm nominal); flow capacities assume
// ~1 m/s liquid velocity.

// PipeFlowLPerH maps nominal pipe bore to flow capacity in L/h.
var PipeFlowLPerH = map[string]float64{
	"8A":  239,
	"10A": 442,
	"13A": 733,
	"15A": 733,
	"20A": 1331,
	"25A": 2154,
	"40A": 4800,
}

// VesselConfig is the immutable static description of one fermentor vessel.
type VesselConfig struct {
	Name           string
	VolumeL        float64
	WorkingVolumeL float64
	JacketAreaM2   float64
	MaxRPM         float64
	MaxAerationVVM float64

	PipeDosing   string
	PipeSteam    string
	PipeCWS      string
	PipeTransfer string

	AcidFlowLPerH     float64
	BaseFlowLPerH     float64
	AntifoamFlowLPerH float64

	FeedTank   string // feed tank wired to this fermentor
	SeedTarget string // next vessel in the seed train, if any
	BrothTank  string // harvest destination, if any
}

// DefaultVessel is used when a vessel name is not found in the table.
const DefaultVessel = "KF-7KL"

// VesselConfigs holds the facility's fermentor vessels.
var VesselConfigs = map[string]VesselConfig{
	"KF-70L": {
		Name: "KF-70L", VolumeL: 70, WorkingVolumeL: 50,
		JacketAreaM2: 0.38, MaxRPM: 800, MaxAerationVVM: 2.0,
		PipeDosing: "8A", PipeSteam: "13A", PipeCWS: "15A", PipeTransfer: "8A",
		AcidFlowLPerH: 1.0, BaseFlowLPerH: 1.0, AntifoamFlowLPerH: 0.3,
		FeedTank: "KF-70L-FD", SeedTarget: "KF-700L",
	},
	"KF-700L": {
		Name: "KF-700L", VolumeL: 700, WorkingVolumeL: 500,
		JacketAreaM2: 1.5, MaxRPM: 500, MaxAerationVVM: 1.5,
		PipeDosing: "10A", PipeSteam: "15A", PipeCWS: "20A", PipeTransfer: "15A",
		AcidFlowLPerH: 3.0, BaseFlowLPerH: 3.0, AntifoamFlowLPerH: 1.0,
		FeedTank: "KF-500L-FD", SeedTarget: "KF-7KL",
	},
	"KF-7KL": {
		Name: "KF-7KL", VolumeL: 7000, WorkingVolumeL: 5000,
		JacketAreaM2: 7.8, MaxRPM: 300, MaxAerationVVM: 1.0,
		PipeDosing: "20A", PipeSteam: "25A", PipeCWS: "40A", PipeTransfer: "25A",
		AcidFlowLPerH: 10.0, BaseFlowLPerH: 10.0, AntifoamFlowLPerH: 3.0,
		FeedTank: "KF-4KL-FD", BrothTank: "KF-7000L",
	},
}

// LookupVessel returns the config for name, falling back to DefaultVessel.
func LookupVessel(name string) VesselConfig {
	if vc, ok := VesselConfigs[name]; ok {
		return vc
	}
	return VesselConfigs[DefaultVessel]
}

// FeedTankConfig is the immutable static description of one feed tank.
type FeedTankConfig struct {
	Name             string
	VolumeL          float64
	WorkingVolumeL   float64
	JacketAreaM2     float64
	PipeSteam        string
	PipeCWS          string
	PipeTransfer     string
	TransferRateLMin float64 // derived from transfer pipe bore at ~1 m/s
	TargetFermentor  string
}

// DefaultFeedTank is used when a feed tank name is not found in the table.
const DefaultFeedTank = "KF-4KL-FD"

// FeedTankConfigs holds the facility's feed/media tanks.
var FeedTankConfigs = map[string]FeedTankConfig{
	"KF-70L-FD": {
		Name: "KF-70L-FD", VolumeL: 100, WorkingVolumeL: 80, JacketAreaM2: 0.18,
		PipeSteam: "8A", PipeCWS: "15A", PipeTransfer: "8A",
		TransferRateLMin: 4.0, TargetFermentor: "KF-70L",
	},
	"KF-500L-FD": {
		Name: "KF-500L-FD", VolumeL: 500, WorkingVolumeL: 400, JacketAreaM2: 0.8,
		PipeSteam: "10A", PipeCWS: "20A", PipeTransfer: "15A",
		TransferRateLMin: 12.0, TargetFermentor: "KF-700L",
	},
	"KF-4KL-FD": {
		Name: "KF-4KL-FD", VolumeL: 4000, WorkingVolumeL: 3200, JacketAreaM2: 5.0,
		PipeSteam: "20A", PipeCWS: "40A", PipeTransfer: "20A",
		TransferRateLMin: 22.0, TargetFermentor: "KF-7KL",
	},
}

// LookupFeedTank returns the config for name, falling back to DefaultFeedTank.
func LookupFeedTank(name string) FeedTankConfig {
	if fc, ok := FeedTankConfigs[name]; ok {
		return fc
	}
	return FeedTankConfigs[DefaultFeedTank]
}

// BrothTankConfig is the immutable static description of the broth tank.
type BrothTankConfig struct {
	Name            string
	VolumeL         float64
	WorkingVolumeL  float64
	JacketAreaM2    float64
	SourceFermentor string
}

// BrothTankConfigs holds the facility's broth collection tanks.
var BrothTankConfigs = map[string]BrothTankConfig{
	"KF-7000L": {
		Name: "KF-7000L", VolumeL: 7000, WorkingVolumeL: 6000,
		JacketAreaM2: 8.0, SourceFermentor: "KF-7KL",
	},
}

// LookupBrothTank returns the config for name, falling back to KF-7000L.
func LookupBrothTank(name string) BrothTankConfig {
	if bc, ok := BrothTankConfigs[name]; ok {
		return bc
	}
	return BrothTankConfigs["KF-7000L"]
}

// BioreactorParams groups the kinetic and thermal model parameters of a
// bioreactor. Zero value is not usable; start from DefaultBioreactorParams.
type BioreactorParams struct {
	// Monod kinetics
	MuMax       float64 // 1/h maximum specific growth rate
	Ks          float64 // g/L substrate half-saturation
	Ko          float64 // mg/L DO half-saturation
	YieldXS     float64 // g biomass per g substrate
	Maintenance float64 // g substrate / (g biomass * h)
	YieldAcid   float64 // mol metabolic acid per g substrate

	// pH model
	PHOpt          float64
	PHRange        float64 // half-width of pH growth window
	BufferCapacity float64 // mol/L/pH lumped buffer capacity
	AcidConcMolL   float64
	BaseConcMolL   float64

	// DO model
	CStarMgL float64 // saturation DO
	KLaBase  float64 // 1/h at reference rpm/vvm
	RPMRef   float64
	VVMRef   float64
	OURCoeff float64 // mmol O2 / (g biomass * h)

	// Temperature model
	TOpt           float64 // degC optimum
	TRange         float64 // degC growth half-width
	JacketU        float64 // W/(m2*K)
	MetabolicHeatW float64 // W per g biomass
	BrothCp        float64 // J/(kg*K)
	BrothDensity   float64 // kg/m3

	// Actuators
	RPMRampRate float64 // RPM per minute

	// Initial state
	Biomass0   float64 // g/L
	Substrate0 float64 // g/L
	PH0        float64
	DO0        float64 // mg/L
	Temp0      float64 // degC
	V0Fraction float64 // initial fill fraction of working volume
}

// DefaultBioreactorParams returns the baseline aerobic culture parameters.
func DefaultBioreactorParams() BioreactorParams {
	return BioreactorParams{
		MuMax:       0.45,
		Ks:          0.5,
		Ko:          0.02,
		YieldXS:     0.5,
		Maintenance: 0.02,
		YieldAcid:   0.08,

		PHOpt:          7.0,
		PHRange:        1.5,
		BufferCapacity: 0.05,
		AcidConcMolL:   2.0,
		BaseConcMolL:   2.0,

		CStarMgL: 7.6,
		KLaBase:  120.0,
		RPMRef:   200.0,
		VVMRef:   0.5,
		OURCoeff: 0.35,

		TOpt:           30.0,
		TRange:         10.0,
		JacketU:        500.0,
		MetabolicHeatW: 0.005,
		BrothCp:        4180.0,
		BrothDensity:   1010.0,

		RPMRampRate: 50.0,

		Biomass0:   0.5,
		Substrate0: 20.0,
		PH0:        7.0,
		DO0:        7.0,
		Temp0:      30.0,
		V0Fraction: 0.7,
	}
}

// FeedTankParams groups the feed tank model parameters.
type FeedTankParams struct {
	JacketU           float64 // W/(m2*K)
	BrothCp           float64 // J/(kg*K)
	BrothDensity      float64 // kg/m3
	SterilizationTemp float64 // degC threshold
	SterilizationHold float64 // seconds at threshold
	CoolingTarget     float64 // degC
	Temp0             float64
	V0Fraction        float64
	MediaSubstrate    float64 // g/L substrate in prepared media
}

// DefaultFeedTankParams returns the baseline sterilization cycle parameters.
func DefaultFeedTankParams() FeedTankParams {
	return FeedTankParams{
		JacketU:           450.0,
		BrothCp:           4180.0,
		BrothDensity:      1020.0,
		SterilizationTemp: 121.0,
		SterilizationHold: 20 * 60.0,
		CoolingTarget:     30.0,
		Temp0:             25.0,
		V0Fraction:        0.8,
		MediaSubstrate:    20.0,
	}
}

// BrothTankParams groups the broth tank model parameters.
type BrothTankParams struct {
	JacketU       float64
	BrothCp       float64
	BrothDensity  float64
	CoolingTarget float64 // degC cold storage target
	Temp0         float64
	V0            float64
}

// DefaultBrothTankParams returns the baseline cold-storage parameters.
func DefaultBrothTankParams() BrothTankParams {
	return BrothTankParams{
		JacketU:       400.0,
		BrothCp:       4180.0,
		BrothDensity:  1010.0,
		CoolingTarget: 4.0,
		Temp0:         30.0,
		V0:            0.0,
	}
}
