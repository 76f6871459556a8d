package lighting

// Brightness bounds.
const (
	// LevelOff is the brightness applied to unoccupied spaces.
	LevelOff = 0

	// LevelFull is the brightness applied when ambient light is low.
	LevelFull = 100

	// MaxLevel is the upper bound for any brightness value.
	MaxLevel = 100
)

// Band maps a minimum lux value to a target brightness level.
// A reading falls into the first band whose threshold it meets.
type Band struct {
	// Threshold is the inclusive lower lux bound for this band.
	Threshold int

	// Level is the brightness percentage applied within this band.
	Level int
}

// bands is the decision table, ordered from brightest ambient light down.
// Evaluation is strictly top-down: the first matching band wins, so the
// table order is load-bearing. Any lux below the last threshold (including
// negative values from miscalibrated sensors) falls through to LevelFull.
var bands = []Band{
	{Threshold: 600, Level: 10},
	{Threshold: 400, Level: 40},
	{Threshold: 200, Level: 70},
}

// Decide computes the target brightness for a reading.
//
// An unoccupied space is always off, regardless of ambient light. For
// occupied spaces the lux value selects a band: brighter ambient light
// means dimmer fixtures.
//
// Decide is pure and total: every (lux, occupied) pair maps to exactly
// one level in [0,100].
//
// Parameters:
//   - lux: Measured ambient light level
//   - occupied: Whether anyone is present
//
// Returns:
//   - int: Target brightness percentage (0-100)
func Decide(lux int, occupied bool) int {
	if !occupied {
		return LevelOff
	}

	for _, b := range bands {
		if lux >= b.Threshold {
			return b.Level
		}
	}

	return LevelFull
}

// DecisionTable returns a copy of the active band table.
// Useful for diagnostics endpoints and tests; mutating the copy has no effect.
func DecisionTable() []Band {
	out := make([]Band, len(bands))
	copy(out, bands)
	return out
}
