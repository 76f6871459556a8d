// Package lighting contains the adaptive lighting domain for Lumen Core.
//
// The domain model is small: sensors report ambient light (lux) and
// occupancy, fixtures are the LED banks being driven, and a many-to-many
// link table says which fixtures react to which sensor. Two append-only
// history tables record raw readings and per-fixture brightness levels.
//
// Components:
//
//   - Decide: the pure rule table mapping (lux, occupied) to a brightness level
//   - Repository / SQLiteRepository: persistence over SQLite
//   - Registry: in-memory cache for the hot ingestion path
//   - Service: history queries and the manual override path
//   - Pruner: background retention for the history tables
//
// The ingestion pipeline that drives brightness from readings lives in
// the ingest package; HTTP exposure lives in the api package.
package lighting
