package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// parseID extracts the {id} URL parameter as an int64.
func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleListFixtures returns all provisioned fixtures.
func (s *Server) handleListFixtures(w http.ResponseWriter, r *http.Request) {
	fixtures, err := s.lighting.ListFixtures(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fixtures": fixtures,
		"count":    len(fixtures),
	})
}

// createFixtureRequest is the payload for POST /api/v1/fixtures.
type createFixtureRequest struct {
	Wattage float64 `json:"wattage"`
}

// handleCreateFixture provisions a new fixture.
func (s *Server) handleCreateFixture(w http.ResponseWriter, r *http.Request) {
	var req createFixtureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Wattage <= 0 {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "wattage must be positive")
		return
	}

	fixture := lighting.Fixture{Wattage: req.Wattage}
	if err := s.registry.CreateFixture(r.Context(), &fixture); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fixture)
}

// handleFixtureHistory returns a fixture's brightness records within a
// time window. The window defaults to 24 hours and is capped at one week.
func (s *Server) handleFixtureHistory(w http.ResponseWriter, r *http.Request) {
	fixtureID, ok := parseID(r)
	if !ok {
		writeBadRequest(w, "invalid fixture id")
		return
	}

	hours := 0
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrCodeValidation, "hours must be an integer")
			return
		}
		hours = parsed
	}

	history, err := s.lighting.History(r.Context(), fixtureID, hours)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"fixture_id": fixtureID,
		"history":    history,
		"count":      len(history),
	})
}

// handleGetBrightness returns the most recent brightness record for a fixture.
func (s *Server) handleGetBrightness(w http.ResponseWriter, r *http.Request) {
	fixtureID, ok := parseID(r)
	if !ok {
		writeBadRequest(w, "invalid fixture id")
		return
	}

	record, err := s.lighting.Latest(r.Context(), fixtureID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// setBrightnessRequest is the payload for PUT /api/v1/fixtures/{id}/brightness.
type setBrightnessRequest struct {
	Level int `json:"level"`
}

// handleSetBrightness applies a manual brightness override to a fixture.
// Returns 202: the history row is written before the response, but the
// actuation command is delivered asynchronously and best-effort.
func (s *Server) handleSetBrightness(w http.ResponseWriter, r *http.Request) {
	fixtureID, ok := parseID(r)
	if !ok {
		writeBadRequest(w, "invalid fixture id")
		return
	}

	var req setBrightnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	record, err := s.lighting.Override(r.Context(), fixtureID, req.Level)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, record)
}
