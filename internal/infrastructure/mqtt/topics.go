package mqtt

import "fmt"

// Topic prefixes for the Lumen MQTT namespace.
//
// Fixture topics use the scheme: lumen/fixtures/{fixture_id}/{verb}
// Sensor topics use the scheme:  lumen/sensors/{sensor_id}/{verb}
const (
	// TopicPrefix is the base for all Lumen topics.
	TopicPrefix = "lumen"

	// TopicPrefixFixtures is the base for fixture actuation topics.
	TopicPrefixFixtures = "lumen/fixtures"

	// TopicPrefixSensors is the base for sensor topics.
	TopicPrefixSensors = "lumen/sensors"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "lumen/system"
)

// Topics provides builders for Lumen MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	setTopic := topics.FixtureSet(12)
//	// Returns: "lumen/fixtures/12/set"
type Topics struct{}

// FixtureSet returns the topic for brightness commands to a fixture.
//
// Example: lumen/fixtures/12/set
func (Topics) FixtureSet(fixtureID int64) string {
	return fmt.Sprintf("%s/%d/set", TopicPrefixFixtures, fixtureID)
}

// FixtureState returns the topic for the current brightness of a fixture.
// Published retained so new subscribers see the last applied level.
//
// Example: lumen/fixtures/12/state
func (Topics) FixtureState(fixtureID int64) string {
	return fmt.Sprintf("%s/%d/state", TopicPrefixFixtures, fixtureID)
}

// SensorReading returns the topic a sensor publishes readings on.
//
// Example: lumen/sensors/3/reading
func (Topics) SensorReading(sensorID int64) string {
	return fmt.Sprintf("%s/%d/reading", TopicPrefixSensors, sensorID)
}

// SystemStatus returns the system status topic.
//
// Example: lumen/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllSensorReadings returns a pattern matching readings from every sensor.
//
// Pattern: lumen/sensors/+/reading
func (Topics) AllSensorReadings() string {
	return fmt.Sprintf("%s/+/reading", TopicPrefixSensors)
}

// AllFixtureStates returns a pattern matching the state of every fixture.
//
// Pattern: lumen/fixtures/+/state
func (Topics) AllFixtureStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixFixtures)
}

// AllTopics returns a pattern matching all Lumen topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: lumen/#
func (Topics) AllTopics() string {
	return "lumen/#"
}
