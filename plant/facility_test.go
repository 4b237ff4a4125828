package plant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFacility_ModeSelectsVessels(t *testing.T) {
	// Single production vessel mode: one fermentor, its feed tank, broth tank
	single := NewFacility(FacilityConfig{Mode: ModeSingle7KL})
	snap := single.Snapshot()
	assert.Len(t, snap.Bioreactors, 1)
	assert.Contains(t, snap.Bioreactors, "KF-7KL")
	assert.Len(t, snap.FeedTanks, 1)
	assert.Contains(t, snap.FeedTanks, "KF-4KL-FD")
	assert.NotNil(t, snap.BrothTank)

	// Seed train: the full scale-up chain, no feed tanks
	train := NewFacility(FacilityConfig{Mode: ModeSeedTrain})
	snap = train.Snapshot()
	assert.Len(t, snap.Bioreactors, 3)
	assert.Empty(t, snap.FeedTanks)

	// Full facility: everything
	full := NewFacility(FacilityConfig{Mode: ModeFullFacility})
	snap = full.Snapshot()
	assert.Len(t, snap.Bioreactors, 3)
	assert.Len(t, snap.FeedTanks, 3)
}

func TestFacility_MediaSetsInitialState(t *testing.T) {
	// GIVEN a facility started on a 30 g/L industrial medium
	f := NewFacility(FacilityConfig{Mode: ModeSingle7KL, Media: "corn_steep"})
	st := f.Snapshot().Bioreactors["KF-7KL"]
	assert.Equal(t, 30.0, st.Substrate)
	assert.Equal(t, 6.8, st.PH)

	// AND an unknown media name falls back to the default
	fallback := NewFacility(FacilityConfig{Mode: ModeSingle7KL, Media: "nope"})
	assert.Equal(t, 20.0, fallback.Snapshot().Bioreactors["KF-7KL"].Substrate)
}

func TestFacility_ApplyControlRouting(t *testing.T) {
	f := NewFacility(FacilityConfig{Mode: ModeSingle7KL})

	assert.True(t, f.ApplyControl("KF-7KL", Setpoints{RPM: Float(150)}))
	assert.True(t, f.ApplyControl("KF-4KL-FD", Setpoints{StartSterilization: true}))
	assert.True(t, f.ApplyControl("KF-7000L", Setpoints{StartCooling: true}))
	assert.False(t, f.ApplyControl("KF-70L", Setpoints{RPM: Float(150)}),
		"vessel outside this mode")
	assert.False(t, f.ApplyControl("bogus", Setpoints{}))

	// Queued setpoints land on the next step
	f.Step(1.0)
	assert.Greater(t, f.Snapshot().Bioreactors["KF-7KL"].RPM, 0.0)
}

func TestFacility_BaseDosingSequence(t *testing.T) {
	// GIVEN a base dosing sequence started on the production fermentor
	f := NewFacility(FacilityConfig{Mode: ModeSingle7KL})
	assert.True(t, f.ApplyControl("KF-7KL", Setpoints{StartBaseDosing: true}))

	// WHEN the first dose window runs (15s open)
	f.Step(1.0)
	snap := f.Snapshot()
	assert.True(t, snap.Dosing["KF-7KL/base"].Active)
	assert.True(t, snap.Bioreactors["KF-7KL"].ValveBase, "sequencer owns the valve")

	for i := 0; i < 20; i++ {
		f.Step(1.0)
	}

	// THEN the first dose completed and base volume reached the broth
	snap = f.Snapshot()
	assert.GreaterOrEqual(t, snap.Dosing["KF-7KL/base"].DoseCount, 1)
	assert.False(t, snap.Bioreactors["KF-7KL"].ValveBase, "closed between doses")
	assert.Greater(t, snap.Bioreactors["KF-7KL"].TotalBaseAdded, 0.0)
}

func TestFacility_HarvestMovesBrothToTank(t *testing.T) {
	// GIVEN a harvest started on the production fermentor
	f := NewFacility(FacilityConfig{Mode: ModeSingle7KL})
	before := f.Snapshot().Bioreactors["KF-7KL"].Volume
	assert.True(t, f.ApplyControl("KF-7KL", Setpoints{StartHarvest: true}))

	// WHEN ten minutes of transfer run
	for i := 0; i < 600; i++ {
		f.Step(1.0)
	}

	// THEN broth moved out of the fermentor into the collection tank
	snap := f.Snapshot()
	assert.Less(t, snap.Bioreactors["KF-7KL"].Volume, before)
	assert.Greater(t, snap.BrothTank.Volume, 0.0)
	assert.InDelta(t, before,
		snap.Bioreactors["KF-7KL"].Volume+snap.BrothTank.Volume, 1.0,
		"volume is conserved across the transfer")
}

func TestFacility_SeedTrainTransferCarriesCulture(t *testing.T) {
	// GIVEN a seed train where the 70L vessel has grown a dense culture
	f := NewFacility(FacilityConfig{Mode: ModeSeedTrain})
	seedBiomass := f.Snapshot().Bioreactors["KF-70L"].Biomass
	targetBefore := f.Snapshot().Bioreactors["KF-700L"]

	// WHEN the 70L vessel is harvested into the 700L vessel
	assert.True(t, f.ApplyControl("KF-70L", Setpoints{StartHarvest: true}))
	for i := 0; i < 1200; i++ {
		f.Step(1.0)
	}

	// THEN the target vessel gained volume and live culture
	target := f.Snapshot().Bioreactors["KF-700L"]
	assert.Greater(t, target.Volume, targetBefore.Volume)
	assert.Greater(t, seedBiomass, 0.0)
}

func TestFacility_FeedTankTransferFillsFermentor(t *testing.T) {
	// GIVEN a facility whose feed tank is ready for transfer
	f := NewFacility(FacilityConfig{Mode: ModeSingle7KL})
	tank := f.feedTanks["KF-4KL-FD"]
	tank.phase = FeedReady
	tank.sterile = true
	before := f.Snapshot().Bioreactors["KF-7KL"].Volume

	// WHEN transfer is commanded and runs for ten minutes
	assert.True(t, f.ApplyControl("KF-4KL-FD", Setpoints{StartTransfer: true}))
	for i := 0; i < 600; i++ {
		f.Step(1.0)
	}

	// THEN media moved from the tank into the fermentor
	snap := f.Snapshot()
	assert.Greater(t, snap.Bioreactors["KF-7KL"].Volume, before)
	assert.Less(t, snap.FeedTanks["KF-4KL-FD"].Volume, tank.Config().WorkingVolumeL*0.8)
}

func TestFacility_SensorsCoverEveryFermentor(t *testing.T) {
	f := NewFacility(FacilityConfig{Mode: ModeSeedTrain, Seed: 99})
	f.Step(1.0)

	snap := f.Snapshot()
	for name := range snap.Bioreactors {
		readings, ok := snap.Sensors[name]
		assert.True(t, ok, "missing sensors for %s", name)
		for _, variable := range []string{"ph", "do", "temperature", "level"} {
			assert.Contains(t, readings, variable)
		}
	}

	// Sensor lookup exposes the same instruments
	assert.NotNil(t, f.Sensor("KF-7KL", "ph"))
	assert.Nil(t, f.Sensor("KF-7KL", "bogus"))
	assert.Nil(t, f.Sensor("bogus", "ph"))
}

func TestFacility_SimulationTimeAdvances(t *testing.T) {
	f := NewFacility(FacilityConfig{Mode: ModeSingle7KL})
	f.RunFor(60.0, 1.0)
	assert.InDelta(t, 60.0, f.Snapshot().SimulationTime, 1e-9)
}
