package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ecofuelers/lumen-core/internal/infrastructure/mqtt"
	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// ingestTimeout bounds how long a single MQTT-delivered reading may take.
const ingestTimeout = 10 * time.Second

// Ingester accepts sensor readings. Satisfied by *Service.
type Ingester interface {
	Ingest(ctx context.Context, sensorID int64, lux, people int) (*lighting.Reading, error)
}

// sensorReading is the JSON payload sensors publish on their reading topic.
// People accepts either a boolean occupied flag or an integer head count.
type sensorReading struct {
	Lux    int                `json:"lux"`
	People lighting.Occupancy `json:"people"`
}

// Bridge feeds sensor readings arriving over MQTT into the ingestion
// pipeline. Sensors publish to lumen/sensors/{id}/reading; the bridge
// subscribes with a single-level wildcard and routes each message by the
// sensor ID embedded in the topic.
type Bridge struct {
	client   *mqtt.Client
	ingester Ingester
	topics   mqtt.Topics
	qos      byte
	logger   Logger
}

// NewBridge creates a bridge between the MQTT client and the ingester.
func NewBridge(client *mqtt.Client, ingester Ingester, qos byte) *Bridge {
	return &Bridge{
		client:   client,
		ingester: ingester,
		qos:      qos,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.logger = logger
}

// Start subscribes to the sensor reading topics.
func (b *Bridge) Start() error {
	if err := b.client.Subscribe(b.topics.AllSensorReadings(), b.qos, b.handleReading); err != nil {
		return fmt.Errorf("subscribing to sensor readings: %w", err)
	}
	b.logger.Info("mqtt reading bridge started", "topic", b.topics.AllSensorReadings())
	return nil
}

// Stop removes the sensor reading subscription.
func (b *Bridge) Stop() error {
	return b.client.Unsubscribe(b.topics.AllSensorReadings())
}

// handleReading parses and ingests one MQTT-delivered reading.
func (b *Bridge) handleReading(topic string, payload []byte) error {
	sensorID, err := parseSensorTopic(topic)
	if err != nil {
		return err
	}

	var reading sensorReading
	if err := json.Unmarshal(payload, &reading); err != nil {
		return fmt.Errorf("decoding reading payload on %s: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	if _, err := b.ingester.Ingest(ctx, sensorID, reading.Lux, int(reading.People)); err != nil {
		return fmt.Errorf("ingesting reading from sensor %d: %w", sensorID, err)
	}
	return nil
}

// parseSensorTopic extracts the sensor ID from a reading topic of the form
// lumen/sensors/{id}/reading.
func parseSensorTopic(topic string) (int64, error) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != mqtt.TopicPrefix || parts[1] != "sensors" || parts[3] != "reading" {
		return 0, fmt.Errorf("unexpected reading topic: %s", topic)
	}

	sensorID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing sensor id from topic %s: %w", topic, err)
	}
	return sensorID, nil
}
