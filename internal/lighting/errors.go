package lighting

import "errors"

// Domain errors for the lighting package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, lighting.ErrFixtureNotFound) {
//	    // handle not found case
//	}
var (
	// ErrSensorNotFound is returned when a sensor ID does not exist.
	ErrSensorNotFound = errors.New("lighting: sensor not found")

	// ErrFixtureNotFound is returned when a fixture ID does not exist.
	ErrFixtureNotFound = errors.New("lighting: fixture not found")

	// ErrLinkExists is returned when a sensor-fixture link already exists.
	ErrLinkExists = errors.New("lighting: link already exists")

	// ErrInvalidLevel is returned when a brightness level is outside 0-100.
	ErrInvalidLevel = errors.New("lighting: level must be between 0 and 100")

	// ErrInvalidWindow is returned when a history window is outside 1-168 hours.
	ErrInvalidWindow = errors.New("lighting: hours must be between 1 and 168")

	// ErrInvalidReading is returned when reading validation fails.
	ErrInvalidReading = errors.New("lighting: invalid reading")

	// ErrNoBrightness is returned when a fixture has no recorded brightness yet.
	ErrNoBrightness = errors.New("lighting: no brightness recorded")
)
