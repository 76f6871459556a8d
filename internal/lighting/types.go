package lighting

import (
	"encoding/json"
	"fmt"
	"time"
)

// Source identifies where a brightness level came from.
type Source string

const (
	// SourceAuto marks levels computed by the decision engine.
	SourceAuto Source = "auto"

	// SourceManual marks levels set through the override path.
	SourceManual Source = "manual"
)

// Sensor is a provisioned ambient-light/occupancy sensor.
type Sensor struct {
	ID       int64  `json:"id"`
	Location string `json:"location"`
}

// Fixture is a provisioned light fixture (LED bank).
// Wattage is informational, used for energy dashboards.
type Fixture struct {
	ID      int64   `json:"id"`
	Wattage float64 `json:"wattage"`
}

// Reading is a single measurement from a sensor: ambient light in lux
// and the number of people detected. Readings are append-only.
type Reading struct {
	ID        int64     `json:"id"`
	SensorID  int64     `json:"sensor_id"`
	Lux       int       `json:"lux"`
	People    int       `json:"people"`
	Timestamp time.Time `json:"ts"`
}

// BrightnessRecord is one entry in a fixture's brightness history.
// The current brightness of a fixture is its most recent record.
type BrightnessRecord struct {
	ID        int64     `json:"id"`
	FixtureID int64     `json:"fixture_id"`
	Level     int       `json:"level"`
	Source    Source    `json:"source"`
	Timestamp time.Time `json:"ts"`
}

// Occupied reports whether the reading indicates an occupied space.
func (r Reading) Occupied() bool {
	return r.People > 0
}

// Occupancy is a JSON-flexible occupancy value. Simple presence sensors
// report a plain occupied flag while counting sensors report a head count,
// so both `"people": true` and `"people": 2` decode. Booleans map to 0/1.
type Occupancy int

// UnmarshalJSON implements json.Unmarshaler.
func (o *Occupancy) UnmarshalJSON(data []byte) error {
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		if flag {
			*o = 1
		} else {
			*o = 0
		}
		return nil
	}

	var count int
	if err := json.Unmarshal(data, &count); err != nil {
		return fmt.Errorf("people must be a boolean or an integer: %w", err)
	}
	*o = Occupancy(count)
	return nil
}
