package plant

import "errors"

var (
	// ErrNotFound is returned for unknown simulation identifiers.
	ErrNotFound = errors.New("simulation not found")

	// ErrCapacityExceeded is returned by Start when the concurrent
	// simulation limit has been reached. Callers may retry later.
	ErrCapacityExceeded = errors.New("concurrent simulation limit reached")

	// ErrInvalidConfig is returned by Start for unusable start parameters.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrUnknownVessel is returned when a control or sensor operation names
	// a vessel that is not part of the simulation.
	ErrUnknownVessel = errors.New("unknown vessel")

	// ErrSensorNotFound is returned when a fault operation names a sensor
	// that does not exist on the vessel.
	ErrSensorNotFound = errors.New("sensor not found")
)
