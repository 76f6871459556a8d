package api

import (
	"encoding/json"
	"net/http"

	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// createReadingRequest is the payload for POST /api/v1/readings.
// People accepts either a boolean occupied flag or an integer head count.
type createReadingRequest struct {
	SensorID int64              `json:"sensor_id"`
	Lux      int                `json:"lux"`
	People   lighting.Occupancy `json:"people"`
}

// handleCreateReading ingests one sensor reading.
//
// The reading is persisted and returned synchronously; the brightness
// fan-out to linked fixtures happens asynchronously after the response.
func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req createReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.SensorID <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "sensor_id is required")
		return
	}

	reading, err := s.ingester.Ingest(r.Context(), req.SensorID, req.Lux, int(req.People))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reading)
}
