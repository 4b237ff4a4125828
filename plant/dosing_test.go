package plant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDosingController_FullSequence(t *testing.T) {
	// GIVEN a 3-dose sequence: 15s open, 13s pause, 10 L/h
	d := NewDosingController("base", 15.0, 13.0, 3, 10.0)
	assert.False(t, d.Active())

	// WHEN started
	d.Start()
	assert.True(t, d.Active())
	assert.True(t, d.Step(1.0), "valve should be open during a dose")

	// THEN after the full open window the first dose completes
	for i := 0; i < 14; i++ {
		d.Step(1.0)
	}
	assert.Equal(t, 1, d.DoseCount())
	assert.False(t, d.ValveOpen())
	assert.Equal(t, DosePause, d.State().Phase)

	// AND after the pause the second dose begins
	for i := 0; i < 13; i++ {
		d.Step(1.0)
	}
	assert.True(t, d.Step(1.0))
	assert.Equal(t, DoseDosing, d.State().Phase)

	// AND the sequence self-terminates after the configured dose count
	for i := 0; i < 200; i++ {
		d.Step(1.0)
	}
	assert.Equal(t, 3, d.DoseCount())
	assert.True(t, d.Complete())
	assert.False(t, d.Active())
	assert.False(t, d.ValveOpen())
}

func TestDosingController_TracksDosedVolume(t *testing.T) {
	// GIVEN a single 10s dose at 36 L/h
	d := NewDosingController("acid", 10.0, 5.0, 1, 36.0)
	d.Start()
	for i := 0; i < 10; i++ {
		d.Step(1.0)
	}

	// THEN 0.1 L was delivered (36 L/h for 10s)
	assert.InDelta(t, 0.1, d.State().TotalDosed, 1e-9)
}

func TestDosingController_StartSemantics(t *testing.T) {
	d := NewDosingController("base", 5.0, 5.0, 2, 10.0)

	// Start mid-sequence is a no-op
	d.Start()
	d.Step(2.0)
	count := d.DoseCount()
	d.Start()
	assert.Equal(t, count, d.DoseCount(), "restart mid-sequence must not reset")
	assert.Equal(t, DoseDosing, d.State().Phase)

	// Start after completion begins a fresh sequence
	for i := 0; i < 100; i++ {
		d.Step(1.0)
	}
	assert.True(t, d.Complete())
	d.Start()
	assert.True(t, d.Active())
	assert.Equal(t, 0, d.DoseCount())
}

func TestDosingController_StopClosesValve(t *testing.T) {
	d := NewDosingController("base", 10.0, 5.0, 3, 10.0)
	d.Start()
	d.Step(1.0)
	assert.True(t, d.ValveOpen())

	d.Stop()
	assert.False(t, d.Active())
	assert.False(t, d.ValveOpen())
	assert.Equal(t, DoseIdle, d.State().Phase)

	// Stopped controllers stay inert
	assert.False(t, d.Step(1.0))
}

func TestDosingController_ResetClearsVolume(t *testing.T) {
	d := NewDosingController("base", 10.0, 5.0, 1, 36.0)
	d.Start()
	for i := 0; i < 10; i++ {
		d.Step(1.0)
	}
	assert.Greater(t, d.State().TotalDosed, 0.0)

	d.Reset()
	assert.Equal(t, 0.0, d.State().TotalDosed)
}
