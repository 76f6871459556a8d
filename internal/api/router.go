package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Reading ingestion
		r.Post("/readings", s.handleCreateReading)

		// Fixture queries and overrides
		r.Route("/fixtures", func(r chi.Router) {
			r.Get("/", s.handleListFixtures)
			r.Post("/", s.handleCreateFixture)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/history", s.handleFixtureHistory)
				r.Get("/brightness", s.handleGetBrightness)
				r.Put("/brightness", s.handleSetBrightness)
			})
		})

		// Sensor provisioning
		r.Route("/sensors", func(r chi.Router) {
			r.Get("/", s.handleListSensors)
			r.Post("/", s.handleCreateSensor)
		})

		// Sensor-to-fixture links
		r.Post("/links", s.handleCreateLink)
	})

	return r
}

// handleHealth returns the server health status and the state of each
// attached infrastructure component.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}

	if s.db != nil {
		components["database"] = healthStatus(s.db.HealthCheck(r.Context()))
	}
	if s.mqtt != nil {
		components["mqtt"] = healthStatus(s.mqtt.HealthCheck(r.Context()))
	}
	if s.influx != nil {
		components["influxdb"] = healthStatus(s.influx.HealthCheck(r.Context()))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"components": components,
	})
}

// healthStatus reduces a health check result to a reportable string.
func healthStatus(err error) string {
	if err != nil {
		return "unhealthy"
	}
	return "ok"
}
