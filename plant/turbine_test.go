package plant

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSteamTurbine_BelowMinFlowProducesNothing(t *testing.T) {
	// GIVEN a trickle of steam below the stop valve threshold
	tb := NewSteamTurbine(DefaultTurbineParams())
	tb.SetSteamSupply(50.0, 40.0, 400.0)
	tb.Step(1.0, nil)

	assert.Equal(t, 0.0, tb.State().PowerOutput)
}

func TestSteamTurbine_PowerFromEnthalpyDrop(t *testing.T) {
	// GIVEN rated steam admitted to a condensing turbine
	p := DefaultTurbineParams()
	tb := NewSteamTurbine(p)
	tb.SetSteamSupply(10000.0, 40.0, 400.0)
	st := tb.Step(1.0, nil).(TurbineState)

	// THEN power matches the logarithmic expansion work
	hDrop := 200.0 * math.Log(40.0/p.CondenserPressure) * p.IsentropicEff
	want := math.Min(10000.0/3600.0*hDrop*p.MechanicalEff*p.GeneratorEff, p.RatedPowerKW)
	assert.InDelta(t, want, st.PowerOutput, 1e-6)
	assert.Greater(t, st.PowerOutput, 0.0)
}

func TestSteamTurbine_CappedAtRated(t *testing.T) {
	// GIVEN far more steam than the machine is rated for
	p := DefaultTurbineParams()
	tb := NewSteamTurbine(p)
	tb.SetSteamSupply(50000.0, 40.0, 400.0)
	st := tb.Step(1.0, nil).(TurbineState)

	assert.Equal(t, p.RatedPowerKW, st.PowerOutput)
}

func TestSteamTurbine_BackpressureExhaustStaysHot(t *testing.T) {
	// GIVEN a backpressure unit exhausting at 3 bar for process heat
	p := DefaultTurbineParams()
	p.CondenserPressure = 3.0
	tb := NewSteamTurbine(p)
	tb.SetSteamSupply(10000.0, 40.0, 400.0)
	st := tb.Step(1.0, nil).(TurbineState)

	assert.GreaterOrEqual(t, st.ExhaustTemp, 120.0)

	// AND a condensing unit exhausts near condenser saturation
	c := NewSteamTurbine(DefaultTurbineParams())
	c.SetSteamSupply(10000.0, 40.0, 400.0)
	cst := c.Step(1.0, nil).(TurbineState)
	assert.Less(t, cst.ExhaustTemp, 60.0)
}
