package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteReading mirrors a sensor reading into InfluxDB.
//
// The write is non-blocking; data is batched and sent asynchronously.
// If the client is disconnected the point is silently dropped - the
// SQLite store already holds the authoritative copy.
//
// Parameters:
//   - sensorID: Identifier of the sensor that produced the reading
//   - lux: Measured ambient light level
//   - people: Occupancy count
//   - timestamp: When the reading was taken
func (c *Client) WriteReading(sensorID int64, lux int, people int, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"sensor_id": strconv.FormatInt(sensorID, 10),
		},
		map[string]interface{}{
			"lux":    lux,
			"people": people,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WriteBrightness mirrors a brightness decision into InfluxDB.
//
// Parameters:
//   - fixtureID: Identifier of the fixture the level applies to
//   - level: Brightness percentage (0-100)
//   - source: Where the level came from ("auto" or "manual")
//   - timestamp: When the level was recorded
func (c *Client) WriteBrightness(fixtureID int64, level int, source string, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"brightness_levels",
		map[string]string{
			"fixture_id": strconv.FormatInt(fixtureID, 10),
			"source":     source,
		},
		map[string]interface{}{
			"level": level,
		},
		timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
