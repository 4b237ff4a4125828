// Package plant provides the process models and simulation engine for the
// bioplant simulator.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - snapshot.go: UnitState/Steppable contracts and the whole-simulation Snapshot
//   - setpoints.go: the sparse control surface shared by every unit model
//   - manager.go: simulation lifecycle, goroutine-per-simulation stepping, control routing
//
// # Unit Models
//
// Each physical unit is a plain struct advanced by Step(dt, setpoints):
//   - bioreactor.go: Monod growth with coupled pH/DO/temperature balances
//   - feedtank.go: media tank with a steam sterilization cycle
//   - brothtank.go: harvested broth collection and chilling
//   - digester.go: three-pool anaerobic digestion producing biogas
//   - engine.go: biogas engine with CHP heat recovery
//   - boiler.go, turbine.go: biomass boiler and steam turbine pair
//   - valve.go, pid.go, dosing.go, sensor.go: shared actuators and instruments
//
// # Orchestrators
//
// facility.go (fermentation) and powerplant.go (power generation) wire unit
// models together on a fixed timestep, move material between them, and build
// the Snapshot each tick. Both satisfy the Orchestrator interface the Manager
// drives; neither is safe for concurrent use on its own.
//
// Static reference data (vessels, media, feedstocks) lives in config.go,
// media.go, and feedstock.go.
package plant
