package plant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPowerPlant_ModeSelectsUnits(t *testing.T) {
	// Biogas path only
	gas, err := NewPowerPlant(PlantConfig{Mode: ModeBiogasEngine})
	assert.NoError(t, err)
	snap := gas.Snapshot()
	assert.NotNil(t, snap.Digester)
	assert.NotNil(t, snap.Engine)
	assert.Nil(t, snap.Boiler)
	assert.Nil(t, snap.Turbine)

	// Biomass path only
	solid, err := NewPowerPlant(PlantConfig{Mode: ModeBiomassBoiler})
	assert.NoError(t, err)
	snap = solid.Snapshot()
	assert.Nil(t, snap.Digester)
	assert.NotNil(t, snap.Boiler)
	assert.NotNil(t, snap.Turbine)

	// Combined runs both
	both, err := NewPowerPlant(PlantConfig{Mode: ModeCombined})
	assert.NoError(t, err)
	snap = both.Snapshot()
	assert.NotNil(t, snap.Digester)
	assert.NotNil(t, snap.Engine)
	assert.NotNil(t, snap.Boiler)
	assert.NotNil(t, snap.Turbine)
	assert.NotNil(t, snap.Plant)
}

func TestPowerPlant_RejectsUnknownFeedstock(t *testing.T) {
	_, err := NewPowerPlant(PlantConfig{Mode: ModeBiogasEngine, DigestionFeedstock: "plutonium"})
	assert.Error(t, err)
}

func TestPowerPlant_ControlRoutingRespectsMode(t *testing.T) {
	gas, _ := NewPowerPlant(PlantConfig{Mode: ModeBiogasEngine})

	assert.True(t, gas.ApplyControl(UnitEngine, Setpoints{LoadSetpoint: Float(50)}))
	assert.True(t, gas.ApplyControl(UnitDigester, Setpoints{DigesterFeed: Float(5)}))
	assert.True(t, gas.ApplyControl(UnitPlant, Setpoints{PowerSetpoint: Float(500)}))
	assert.False(t, gas.ApplyControl(UnitBoiler, Setpoints{LoadSetpoint: Float(50)}),
		"boiler absent in biogas mode")
	assert.False(t, gas.ApplyControl("bogus", Setpoints{}))
}

func TestPowerPlant_DigesterFuelsEngine(t *testing.T) {
	// GIVEN the biogas path under manual engine load
	p, _ := NewPowerPlant(PlantConfig{Mode: ModeBiogasEngine, Seed: 3})
	assert.True(t, p.ApplyControl(UnitEngine, Setpoints{LoadSetpoint: Float(80)}))

	// WHEN twenty minutes run
	p.RunFor(1200.0, 1.0)

	// THEN the engine is generating on digester gas
	snap := p.Snapshot()
	assert.Greater(t, snap.Engine.PowerOutput, 0.0)
	assert.Greater(t, snap.Engine.FuelFlow, 0.0)
	assert.GreaterOrEqual(t, snap.Digester.MethaneContent, 45.0)
	assert.LessOrEqual(t, snap.Digester.MethaneContent, 75.0)
	assert.InDelta(t, snap.Engine.PowerOutput, snap.Plant.TotalPowerOutput, 1e-9)
}

func TestPowerPlant_BoilerDrivesTurbine(t *testing.T) {
	// GIVEN the biomass path fired to full load
	p, _ := NewPowerPlant(PlantConfig{Mode: ModeBiomassBoiler})
	assert.True(t, p.ApplyControl(UnitBoiler, Setpoints{LoadSetpoint: Float(100)}))

	// WHEN half an hour runs (grate ramp plus steam lag)
	p.RunFor(1800.0, 1.0)

	// THEN boiler steam is spinning the turbine
	snap := p.Snapshot()
	assert.Greater(t, snap.Boiler.SteamFlow, 100.0)
	assert.Greater(t, snap.Turbine.PowerOutput, 0.0)
	assert.Equal(t, snap.Turbine.PowerOutput, snap.Plant.TotalPowerOutput)
}

func TestPowerPlant_PowerSetpointEngagesLoadLoop(t *testing.T) {
	// GIVEN a plant power setpoint with no manual load commands
	p, _ := NewPowerPlant(PlantConfig{Mode: ModeBiogasEngine, Seed: 5})
	assert.True(t, p.ApplyControl(UnitPlant, Setpoints{PowerSetpoint: Float(500)}))

	// WHEN the loop runs
	p.RunFor(1800.0, 1.0)

	// THEN the controller has brought generation online within ratings
	snap := p.Snapshot()
	assert.Greater(t, snap.Plant.TotalPowerOutput, 0.0)
	assert.LessOrEqual(t, snap.Plant.TotalPowerOutput, DefaultEngineParams().RatedPowerKW)
}

func TestPowerPlant_SensorsPresent(t *testing.T) {
	p, _ := NewPowerPlant(PlantConfig{Mode: ModeCombined, Seed: 11})
	p.Step(1.0)

	snap := p.Snapshot()
	assert.Contains(t, snap.Sensors, UnitDigester)
	assert.Contains(t, snap.Sensors[UnitDigester], "ph")
	assert.Contains(t, snap.Sensors, UnitBoiler)
	assert.Contains(t, snap.Sensors[UnitBoiler], "pressure")

	assert.NotNil(t, p.Sensor(UnitDigester, "temperature"))
	assert.Nil(t, p.Sensor(UnitEngine, "rpm"))
}
