package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// handleListSensors returns all provisioned sensors.
func (s *Server) handleListSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := s.lighting.ListSensors(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensors": sensors,
		"count":   len(sensors),
	})
}

// createSensorRequest is the payload for POST /api/v1/sensors.
type createSensorRequest struct {
	Location string `json:"location"`
}

// handleCreateSensor provisions a new sensor.
func (s *Server) handleCreateSensor(w http.ResponseWriter, r *http.Request) {
	var req createSensorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	sensor := lighting.Sensor{Location: req.Location}
	if err := s.registry.CreateSensor(r.Context(), &sensor); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sensor)
}

// createLinkRequest is the payload for POST /api/v1/links.
type createLinkRequest struct {
	SensorID  int64 `json:"sensor_id"`
	FixtureID int64 `json:"fixture_id"`
}

// handleCreateLink links a sensor to a fixture so readings from the sensor
// drive the fixture's brightness.
func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.SensorID <= 0 || req.FixtureID <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "sensor_id and fixture_id are required")
		return
	}

	if err := s.registry.LinkSensorFixture(r.Context(), req.SensorID, req.FixtureID); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{
		"sensor_id":  req.SensorID,
		"fixture_id": req.FixtureID,
	})
}
