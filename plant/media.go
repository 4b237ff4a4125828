package plant

// Media describes a culture medium used to initialize fermentation
// simulations. Static reference data, never mutated.
type Media struct {
	Name        string
	Description string
	SubstrateGL float64 // fermentable substrate concentration
	InitialPH   float64
	DensityKgM3 float64
}

// DefaultMedia is used when a simulation is started without a media name.
const DefaultMedia = "glucose_minimal"

// MediaDB holds the known culture media.
var MediaDB = map[string]Media{
	"glucose_minimal": {
		Name:        "Glucose Minimal Medium",
		Description: "Defined minimal medium with glucose as sole carbon source",
		SubstrateGL: 20.0,
		InitialPH:   7.0,
		DensityKgM3: 1005.0,
	},
	"complex_yeast": {
		Name:        "Complex Yeast Medium (YPD)",
		Description: "Yeast extract + peptone + dextrose",
		SubstrateGL: 20.0,
		InitialPH:   6.5,
		DensityKgM3: 1015.0,
	},
	"corn_steep": {
		Name:        "Corn Steep Liquor Medium",
		Description: "Industrial medium with corn steep liquor as nitrogen source",
		SubstrateGL: 30.0,
		InitialPH:   6.8,
		DensityKgM3: 1020.0,
	},
	"soy_hydrolysate": {
		Name:        "Soy Hydrolysate Medium",
		Description: "Soy-based industrial medium for high-density cultures",
		SubstrateGL: 40.0,
		InitialPH:   7.0,
		DensityKgM3: 1025.0,
	},
}

// MediaByName looks up a medium. The empty name resolves to DefaultMedia.
func MediaByName(name string) (Media, bool) {
	if name == "" {
		name = DefaultMedia
	}
	m, ok := MediaDB[name]
	return m, ok
}

// ListMedia returns the known media names.
func ListMedia() []string {
	names := make([]string, 0, len(MediaDB))
	for k := range MediaDB {
		names = append(names, k)
	}
	return names
}
