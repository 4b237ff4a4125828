package plant

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DigesterParams groups the anaerobic digester design and kinetic
// parameters (simplified ADM1, mesophilic defaults).
type DigesterParams struct {
	VolumeM3    float64 // digester volume
	Temperature float64 // degC, held by the plant heating loop
	HRTDays     float64 // hydraulic retention time
	FeedVS      float64 // g/L volatile solids in feed
	FeedVSStd   float64 // g/L feed composition variation (per step draw)

	// Monod-type kinetics (per day)
	KHyd      float64 // hydrolysis rate constant
	KAcid     float64 // acidogenesis max rate
	KsAcid    float64 // g/L half-saturation (acidogenesis)
	KMeth     float64 // methanogenesis max rate
	KsMeth    float64 // g/L half-saturation (methanogenesis)
	YieldAcid float64 // g/g acidogen yield
	YieldMeth float64 // g/g methanogen yield

	// Biogas composition
	CH4Nominal    float64 // fraction, typical 0.60
	BiogasYield   float64 // Nm3 per kg VS destroyed
	H2SNominalPPM float64
}

// DefaultDigesterParams returns the baseline mesophilic CSTR parameters,
// with biogas yield and methane fraction taken from the feedstock entry.
func DefaultDigesterParams(fs Feedstock) DigesterParams {
	p := DigesterParams{
		VolumeM3:    2000.0,
		Temperature: 37.0,
		HRTDays:     20.0,
		FeedVS:      40.0,
		FeedVSStd:   0.5,

		KHyd:      0.25,
		KAcid:     5.0,
		KsAcid:    0.5,
		KMeth:     8.0,
		KsMeth:    0.3,
		YieldAcid: 0.10,
		YieldMeth: 0.05,

		CH4Nominal:    0.60,
		BiogasYield:   0.5,
		H2SNominalPPM: 500,
	}
	if fs.Category == CategoryDigestion {
		if fs.BiogasYield > 0 {
			p.BiogasYield = fs.BiogasYield
		}
		if fs.MethaneFraction > 0 {
			p.CH4Nominal = fs.MethaneFraction
		}
	}
	return p
}

// AnaerobicDigester models a continuous stirred-tank anaerobic digester:
// hydrolysis, acidogenesis, and methanogenesis pools with Monod-type rates
// and an Arrhenius-style temperature correction.
type AnaerobicDigester struct {
	p DigesterParams

	vs       float64 // g/L volatile solids
	vfa      float64 // g/L volatile fatty acids
	acetate  float64 // g/L
	ph       float64
	acidogen float64 // g/L acidogen biomass
	methanog float64 // g/L methanogen biomass

	feedRate float64 // m3/h override; 0 means V/HRT
	feedVar  distuv.Normal

	biogasFlow float64 // Nm3/h
	methanePct float64
	co2Pct     float64
	h2sPPM     float64
}

// NewAnaerobicDigester builds a digester with a seeded feed-variation draw.
func NewAnaerobicDigester(p DigesterParams, seed uint64) *AnaerobicDigester {
	return &AnaerobicDigester{
		p:        p,
		vs:       p.FeedVS * 0.5,
		vfa:      1.0,
		acetate:  0.5,
		ph:       7.0,
		acidogen: 0.5,
		methanog: 0.3,
		feedVar: distuv.Normal{
			Mu:    0,
			Sigma: math.Max(p.FeedVSStd, 1e-12),
			Src:   rand.NewSource(seed),
		},
		methanePct: p.CH4Nominal * 100,
		co2Pct:     100 - p.CH4Nominal*100 - 5.0,
		h2sPPM:     p.H2SNominalPPM,
	}
}

// Step advances the digester by dt seconds and returns the new snapshot.
func (d *AnaerobicDigester) Step(dt float64, sp *Setpoints) UnitState {
	if sp != nil && sp.DigesterFeed != nil {
		d.feedRate = math.Max(0, *sp.DigesterFeed)
	}

	dtDays := dt / 86400.0

	feedRate := d.feedRate
	if feedRate == 0 {
		feedRate = d.p.VolumeM3 / (d.p.HRTDays * 24.0) // m3/h
	}
	dilution := feedRate / d.p.VolumeM3 * 24.0 // 1/day

	// Feed composition varies around the nominal VS concentration.
	feedVS := d.p.FeedVS
	if d.p.FeedVSStd > 0 {
		feedVS = math.Max(0, feedVS+d.feedVar.Rand())
	}

	rHyd := d.p.KHyd * d.vs
	rAcid := d.p.KAcid * d.vfa / (d.p.KsAcid + d.vfa) * d.acidogen
	rMeth := d.p.KMeth * d.acetate / (d.p.KsMeth + d.acetate) * d.methanog

	// Arrhenius-style temperature correction around 35 degC.
	tempFactor := math.Exp(0.069 * (d.p.Temperature - 35.0))

	d.vs += (dilution*(feedVS-d.vs) - rHyd*tempFactor) * dtDays
	d.vfa += (rHyd*tempFactor - rAcid*tempFactor - dilution*d.vfa) * dtDays
	d.acetate += (rAcid*tempFactor*0.6 - rMeth*tempFactor - dilution*d.acetate) * dtDays

	d.acidogen += (d.p.YieldAcid*rAcid*tempFactor - dilution*d.acidogen) * dtDays
	d.methanog += (d.p.YieldMeth*rMeth*tempFactor - dilution*d.methanog) * dtDays

	// Biogas from the VS destruction rate.
	vsDestroyed := rHyd * tempFactor * d.p.VolumeM3 / 1000.0 // kg/day
	d.biogasFlow = vsDestroyed * d.p.BiogasYield / 24.0      // Nm3/h

	// pH from total VFA (logarithmic), clamped to the digester window.
	totalVFA := d.vfa + d.acetate
	d.ph = clamp(7.0-0.5*math.Log10(math.Max(totalVFA/2.0, 0.01)), 5.5, 8.5)

	// Composition corrections around nominal, pH-dependent.
	d.methanePct = clamp(d.p.CH4Nominal*100*(0.8+0.2*(d.ph-6.0)/1.5), 45.0, 75.0)
	d.co2Pct = 100.0 - d.methanePct - 5.0 // ~5% other gases
	d.h2sPPM = d.p.H2SNominalPPM * (1.0 + 0.5*(7.0-d.ph))

	d.vs = math.Max(d.vs, 0)
	d.vfa = math.Max(d.vfa, 0)
	d.acetate = math.Max(d.acetate, 0)
	d.acidogen = math.Max(d.acidogen, 0)
	d.methanog = math.Max(d.methanog, 0)

	return d.State()
}

// State returns the current snapshot.
func (d *AnaerobicDigester) State() DigesterState {
	return DigesterState{
		Temperature:    d.p.Temperature,
		PH:             d.ph,
		BiogasFlow:     d.biogasFlow,
		MethaneContent: d.methanePct,
		CO2Content:     d.co2Pct,
		H2SPPM:         d.h2sPPM,
		VolatileSolids: d.vs,
		VFA:            d.vfa,
		Acetate:        d.acetate,
		HRT:            d.p.HRTDays,
		OLR:            d.p.FeedVS / d.p.HRTDays,
	}
}
