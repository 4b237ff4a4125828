package plant

import "fmt"

// FeedstockCategory splits feedstocks into digestion and combustion use.
type FeedstockCategory string

const (
	CategoryDigestion  FeedstockCategory = "digestion"
	CategoryCombustion FeedstockCategory = "combustion"
)

// Feedstock holds physical/chemical properties of a biomass or waste
// feedstock. Digestion entries populate the VS/biogas fields; combustion
// entries populate the LHV/moisture fields.
type Feedstock struct {
	Name        string
	Category    FeedstockCategory
	Description string

	// Digestion properties
	TotalSolids     float64 // fraction
	VSRatio         float64 // VS/TS
	BiogasYield     float64 // Nm3 per kg VS destroyed
	MethaneFraction float64
	CNRatio         float64

	// Combustion properties
	Moisture   float64 // fraction
	LHV        float64 // MJ/kg as-received
	AshContent float64 // fraction
}

// Default feedstocks per plant path.
const (
	DefaultDigestionFeedstock  = "mixed_waste"
	DefaultCombustionFeedstock = "wood_chips"
)

// FeedstockDB holds the known feedstocks.
var FeedstockDB = map[string]Feedstock{
	"food_waste": {
		Name: "food_waste", Category: CategoryDigestion, Description: "Municipal food waste",
		TotalSolids: 0.25, VSRatio: 0.90, BiogasYield: 0.65, MethaneFraction: 0.62, CNRatio: 15.0,
	},
	"sewage_sludge": {
		Name: "sewage_sludge", Category: CategoryDigestion, Description: "Municipal sewage sludge",
		TotalSolids: 0.05, VSRatio: 0.75, BiogasYield: 0.35, MethaneFraction: 0.65, CNRatio: 8.0,
	},
	"cattle_manure": {
		Name: "cattle_manure", Category: CategoryDigestion, Description: "Dairy cattle manure",
		TotalSolids: 0.10, VSRatio: 0.80, BiogasYield: 0.25, MethaneFraction: 0.60, CNRatio: 20.0,
	},
	"corn_silage": {
		Name: "corn_silage", Category: CategoryDigestion, Description: "Corn silage energy crop",
		TotalSolids: 0.33, VSRatio: 0.95, BiogasYield: 0.55, MethaneFraction: 0.52, CNRatio: 40.0,
	},
	"mixed_waste": {
		Name: "mixed_waste", Category: CategoryDigestion, Description: "Mixed organic waste (default)",
		TotalSolids: 0.15, VSRatio: 0.82, BiogasYield: 0.45, MethaneFraction: 0.58, CNRatio: 18.0,
	},

	"wood_chips": {
		Name: "wood_chips", Category: CategoryCombustion, Description: "Softwood chips (30% MC)",
		Moisture: 0.30, LHV: 12.5, AshContent: 0.01,
	},
	"wood_pellets": {
		Name: "wood_pellets", Category: CategoryCombustion, Description: "EN-Plus A1 wood pellets",
		Moisture: 0.08, LHV: 17.0, AshContent: 0.005,
	},
	"straw": {
		Name: "straw", Category: CategoryCombustion, Description: "Cereal straw bales",
		Moisture: 0.14, LHV: 14.5, AshContent: 0.05,
	},
	"palm_kernel_shell": {
		Name: "palm_kernel_shell", Category: CategoryCombustion, Description: "Palm kernel shell (PKS)",
		Moisture: 0.12, LHV: 16.0, AshContent: 0.03,
	},
}

// FeedstockByName looks up a feedstock by name.
func FeedstockByName(name string) (Feedstock, error) {
	f, ok := FeedstockDB[name]
	if !ok {
		return Feedstock{}, fmt.Errorf("unknown feedstock %q (available: %v)", name, ListFeedstocks(""))
	}
	return f, nil
}

// ListFeedstocks returns feedstock names, optionally filtered by category.
func ListFeedstocks(category FeedstockCategory) []string {
	names := make([]string, 0, len(FeedstockDB))
	for k, v := range FeedstockDB {
		if category == "" || v.Category == category {
			names = append(names, k)
		}
	}
	return names
}
