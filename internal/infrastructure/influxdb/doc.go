// Package influxdb provides an optional telemetry mirror for Lumen Core.
//
// Sensor readings and brightness decisions are written to InfluxDB as they
// flow through the ingestion pipeline. SQLite remains the source of truth;
// this mirror exists for long-range dashboards and retention beyond the
// SQLite pruning window.
//
// Writes are non-blocking and batched. Failures are reported through an
// async error callback and never affect the ingestion path.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // Run without the mirror
//	}
//
//	client.WriteReading(sensorID, lux, people, time.Now())
package influxdb
