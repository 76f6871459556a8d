package lighting

import (
	"context"
	"time"
)

// History window bounds, in hours.
const (
	// DefaultWindowHours is used when the caller does not specify a window.
	DefaultWindowHours = 24

	// MinWindowHours is the smallest accepted history window.
	MinWindowHours = 1

	// MaxWindowHours is the largest accepted history window (one week).
	MaxWindowHours = 168
)

// Actuator pushes brightness commands to physical fixtures.
// Implementations are best-effort; the brightness history row is the
// authoritative record regardless of delivery.
type Actuator interface {
	SetBrightness(fixtureID int64, level int) error
}

// Telemetry mirrors brightness records into an external time-series store.
type Telemetry interface {
	WriteBrightness(fixtureID int64, level int, source string, timestamp time.Time)
}

// Service exposes the fixture-facing query and override operations.
// It sits between the HTTP handlers and the repository, owning window
// validation and the NotFound-vs-empty distinction.
type Service struct {
	registry  *Registry
	repo      Repository
	actuator  Actuator  // optional
	telemetry Telemetry // optional
	logger    Logger
}

// NewService creates a lighting service over the given registry and repository.
func NewService(registry *Registry, repo Repository) *Service {
	return &Service{
		registry: registry,
		repo:     repo,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetActuator sets the command channel to physical fixtures.
// When unset, overrides only write history.
func (s *Service) SetActuator(actuator Actuator) {
	s.actuator = actuator
}

// SetTelemetry sets the telemetry mirror for brightness records.
func (s *Service) SetTelemetry(telemetry Telemetry) {
	s.telemetry = telemetry
}

// ListFixtures retrieves all provisioned fixtures ordered by ID.
func (s *Service) ListFixtures(ctx context.Context) ([]Fixture, error) {
	return s.registry.ListFixtures(ctx)
}

// ListSensors retrieves all provisioned sensors ordered by ID.
func (s *Service) ListSensors(ctx context.Context) ([]Sensor, error) {
	return s.registry.ListSensors(ctx)
}

// History retrieves a fixture's brightness records within the last N hours.
//
// A zero hours value selects DefaultWindowHours. Values outside
// [MinWindowHours, MaxWindowHours] return ErrInvalidWindow. An unknown
// fixture returns ErrFixtureNotFound; a known fixture with nothing in the
// window returns an empty slice.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - fixtureID: The fixture to query
//   - hours: Window size in hours (0 for default)
//
// Returns:
//   - []BrightnessRecord: Records with ts >= now-hours, oldest first
//   - error: ErrInvalidWindow, ErrFixtureNotFound, or a storage error
func (s *Service) History(ctx context.Context, fixtureID int64, hours int) ([]BrightnessRecord, error) {
	if hours == 0 {
		hours = DefaultWindowHours
	}
	if hours < MinWindowHours || hours > MaxWindowHours {
		return nil, ErrInvalidWindow
	}

	exists, err := s.registry.FixtureExists(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFixtureNotFound
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return s.repo.BrightnessHistory(ctx, fixtureID, since)
}

// Latest retrieves the most recent brightness record for a fixture.
// Returns ErrFixtureNotFound for unknown fixtures and ErrNoBrightness for
// fixtures that have never been driven.
func (s *Service) Latest(ctx context.Context, fixtureID int64) (*BrightnessRecord, error) {
	exists, err := s.registry.FixtureExists(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFixtureNotFound
	}

	return s.repo.LatestBrightness(ctx, fixtureID)
}

// Override sets a fixture's brightness manually, bypassing the decision
// engine. The level is appended to the history with source=manual so
// operators can tell hand-set levels from computed ones.
//
// The actuation command and telemetry mirror are best-effort; failures are
// logged and the recorded level stands.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - fixtureID: The fixture to drive
//   - level: Target brightness percentage (0-100)
//
// Returns:
//   - *BrightnessRecord: The appended record
//   - error: ErrInvalidLevel, ErrFixtureNotFound, or a storage error
func (s *Service) Override(ctx context.Context, fixtureID int64, level int) (*BrightnessRecord, error) {
	if level < 0 || level > MaxLevel {
		return nil, ErrInvalidLevel
	}

	exists, err := s.registry.FixtureExists(ctx, fixtureID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrFixtureNotFound
	}

	record := &BrightnessRecord{
		FixtureID: fixtureID,
		Level:     level,
		Source:    SourceManual,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.AppendBrightness(ctx, record); err != nil {
		return nil, err
	}

	if s.actuator != nil {
		if err := s.actuator.SetBrightness(fixtureID, level); err != nil {
			s.logger.Warn("override actuation failed",
				"fixture_id", fixtureID,
				"level", level,
				"error", err,
			)
		}
	}

	if s.telemetry != nil {
		s.telemetry.WriteBrightness(fixtureID, level, string(SourceManual), record.Timestamp)
	}

	s.logger.Info("brightness overridden", "fixture_id", fixtureID, "level", level)
	return record, nil
}
