package plant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrothTank_ReceiveMixesEnergy(t *testing.T) {
	// GIVEN an empty tank
	bt := NewBrothTank("KF-7000L", DefaultBrothTankParams())
	assert.Equal(t, BrothEmpty, bt.Phase())

	// WHEN warm broth arrives
	bt.Receive(1000.0, 30.0)
	assert.Equal(t, BrothReceiving, bt.Phase())
	assert.Equal(t, 30.0, bt.State().Temperature)

	// AND colder broth is added on top
	bt.Receive(1000.0, 10.0)

	// THEN the temperature is the volume-weighted mix
	assert.InDelta(t, 20.0, bt.State().Temperature, 1e-9)
	assert.Equal(t, 2000.0, bt.State().Volume)
}

func TestBrothTank_ReceiveCapsAtWorkingVolume(t *testing.T) {
	bt := NewBrothTank("KF-7000L", DefaultBrothTankParams())
	bt.Receive(1e6, 30.0)
	assert.Equal(t, LookupBrothTank("KF-7000L").WorkingVolumeL, bt.State().Volume)
}

func TestBrothTank_CoolsToStorage(t *testing.T) {
	// GIVEN a tank of warm harvested broth
	bt := NewBrothTank("KF-7000L", DefaultBrothTankParams())
	bt.Receive(4000.0, 30.0)

	// WHEN cooling is started and runs long enough
	bt.StartCooling()
	assert.Equal(t, BrothCooling, bt.Phase())
	for i := 0; i < 100000 && bt.Phase() == BrothCooling; i++ {
		bt.Step(1.0, nil)
	}

	// THEN the broth reaches cold storage and the CWS valve shuts
	assert.Equal(t, BrothStored, bt.Phase())
	st := bt.State()
	assert.LessOrEqual(t, st.Temperature, DefaultBrothTankParams().CoolingTarget+0.5)
	assert.Equal(t, 0.0, st.ValveCooling)
}

func TestBrothTank_DrainEmptiesOnNextStep(t *testing.T) {
	bt := NewBrothTank("KF-7000L", DefaultBrothTankParams())
	bt.Receive(2000.0, 30.0)

	bt.StartDrain()
	assert.Equal(t, BrothDraining, bt.Phase())
	bt.Step(1.0, nil)

	assert.Equal(t, 0.0, bt.State().Volume)
	assert.Equal(t, BrothEmpty, bt.Phase())
}

func TestBrothTank_CommandsIgnoredWhenEmpty(t *testing.T) {
	bt := NewBrothTank("KF-7000L", DefaultBrothTankParams())
	bt.StartCooling()
	assert.Equal(t, BrothEmpty, bt.Phase())
	bt.StartDrain()
	assert.Equal(t, BrothEmpty, bt.Phase())
}
