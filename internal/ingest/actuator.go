package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/ecofuelers/lumen-core/internal/infrastructure/mqtt"
)

// brightnessCommand is the payload published to a fixture's set topic.
type brightnessCommand struct {
	Level int `json:"level"`
}

// MQTTActuator delivers brightness commands to fixtures over MQTT.
// It implements lighting.Actuator.
type MQTTActuator struct {
	client *mqtt.Client
	topics mqtt.Topics
	qos    byte
}

// NewMQTTActuator creates an actuator publishing on the given client.
//
// Parameters:
//   - client: Connected MQTT client
//   - qos: QoS level for command publishes
func NewMQTTActuator(client *mqtt.Client, qos byte) *MQTTActuator {
	return &MQTTActuator{
		client: client,
		qos:    qos,
	}
}

// SetBrightness publishes a brightness command to the fixture's set topic.
// Commands are not retained; a fixture that reconnects asks for current
// state rather than replaying a stale command.
func (a *MQTTActuator) SetBrightness(fixtureID int64, level int) error {
	payload, err := json.Marshal(brightnessCommand{Level: level})
	if err != nil {
		return fmt.Errorf("encoding brightness command: %w", err)
	}

	topic := a.topics.FixtureSet(fixtureID)
	if err := a.client.Publish(topic, payload, a.qos, false); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
