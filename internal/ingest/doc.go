// Package ingest implements the sensor reading ingestion pipeline.
//
// A reading enters through Service.Ingest (called by the HTTP API) or
// through the MQTT Bridge (sensors publishing to lumen/sensors/{id}/reading).
// The raw reading is persisted synchronously; the brightness decision is
// computed once and fanned out asynchronously to every fixture linked to
// the reporting sensor, each fan-out writing one brightness history row,
// publishing an MQTT actuation command, and mirroring a telemetry point.
//
// The fan-out queue is bounded; Close drains it so no accepted reading
// loses its brightness writes on shutdown.
package ingest
