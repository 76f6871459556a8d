package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ecofuelers/lumen-core/internal/infrastructure/config"
	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// Fallbacks for zero-value ingest configuration.
const (
	defaultWorkers   = 1
	defaultQueueSize = 16
)

// Logger is the minimal logging interface the pipeline needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// Telemetry mirrors ingestion activity into an external time-series store.
// Both methods are fire-and-forget.
type Telemetry interface {
	WriteReading(sensorID int64, lux, people int, timestamp time.Time)
	WriteBrightness(fixtureID int64, level int, source string, timestamp time.Time)
}

// task is one pending brightness write for a single fixture.
type task struct {
	fixtureID int64
	level     int
	timestamp time.Time
}

// Service is the sensor ingestion pipeline.
//
// Ingest persists the raw reading synchronously, computes the brightness
// level once, and fans the result out to every linked fixture through a
// bounded worker pool. Fan-out runs after the caller gets its response;
// fan-out failures are logged, never surfaced.
//
// Thread Safety:
//   - Ingest is safe for concurrent use once Start has returned.
type Service struct {
	registry  *lighting.Registry
	repo      lighting.Repository
	cfg       config.IngestConfig
	actuator  lighting.Actuator // optional
	telemetry Telemetry         // optional
	logger    Logger

	tasks     chan task
	wg        sync.WaitGroup
	producers sync.WaitGroup // in-flight enqueues; Close waits before closing tasks

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewService creates an ingestion service over the given registry and
// repository. Zero-value worker and queue settings fall back to small
// defaults so a partially populated config still works.
func NewService(registry *lighting.Registry, repo lighting.Repository, cfg config.IngestConfig) *Service {
	if cfg.Workers < 1 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = defaultQueueSize
	}

	return &Service{
		registry: registry,
		repo:     repo,
		cfg:      cfg,
		logger:   noopLogger{},
		tasks:    make(chan task, cfg.QueueSize),
	}
}

// SetLogger sets the logger for the pipeline.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetActuator sets the command channel to physical fixtures.
// When unset, fan-out only writes history.
func (s *Service) SetActuator(actuator lighting.Actuator) {
	s.actuator = actuator
}

// SetTelemetry sets the telemetry mirror.
func (s *Service) SetTelemetry(telemetry Telemetry) {
	s.telemetry = telemetry
}

// Start launches the fan-out workers.
//
// Returns:
//   - error: ErrAlreadyStarted if already running, ErrClosed after Close
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	s.logger.Info("ingest pipeline started",
		"workers", s.cfg.Workers,
		"queue_size", s.cfg.QueueSize,
	)
	return nil
}

// Close stops accepting new work and drains outstanding fan-out tasks
// before returning. Safe to call more than once.
func (s *Service) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	started := s.started
	s.mu.Unlock()

	// Wait out in-flight enqueues before closing the channel; a producer
	// that passed the closed check must never send on a closed channel.
	s.producers.Wait()
	close(s.tasks)
	if started {
		s.wg.Wait()
	}
	s.logger.Info("ingest pipeline stopped")
}

// Ingest processes one sensor reading.
//
// The reading is validated and persisted synchronously; the brightness
// fan-out to linked fixtures is queued and happens asynchronously. A sensor
// with no linked fixtures is valid: the reading is stored and nothing is
// queued.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - sensorID: The reporting sensor
//   - lux: Measured ambient light level
//   - people: Occupancy count (negative values rejected)
//
// Returns:
//   - *lighting.Reading: The persisted reading with ID and timestamp set
//   - error: ErrInvalidReading, lighting.ErrSensorNotFound, ErrClosed, or a
//     storage error
func (s *Service) Ingest(ctx context.Context, sensorID int64, lux, people int) (*lighting.Reading, error) {
	if people < 0 {
		return nil, lighting.ErrInvalidReading
	}

	exists, err := s.registry.SensorExists(ctx, sensorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, lighting.ErrSensorNotFound
	}

	reading := &lighting.Reading{
		SensorID:  sensorID,
		Lux:       lux,
		People:    people,
		Timestamp: time.Now().UTC(),
	}
	if err := s.repo.InsertReading(ctx, reading); err != nil {
		return nil, err
	}

	if s.telemetry != nil {
		s.telemetry.WriteReading(sensorID, lux, people, reading.Timestamp)
	}

	fixtures, err := s.registry.FixturesForSensor(ctx, sensorID)
	if err != nil {
		// The reading is already stored; a fan-out resolution failure
		// must not undo that from the caller's point of view.
		s.logger.Error("resolving linked fixtures failed",
			"sensor_id", sensorID,
			"error", err,
		)
		return reading, nil
	}

	level := lighting.Decide(lux, reading.Occupied())
	for _, fixture := range fixtures {
		if err := s.enqueue(ctx, task{
			fixtureID: fixture.ID,
			level:     level,
			timestamp: reading.Timestamp,
		}); err != nil {
			s.logger.Error("enqueueing fan-out task failed",
				"sensor_id", sensorID,
				"fixture_id", fixture.ID,
				"error", err,
			)
		}
	}

	s.logger.Debug("reading ingested",
		"sensor_id", sensorID,
		"lux", lux,
		"people", people,
		"level", level,
		"fixtures", len(fixtures),
	)
	return reading, nil
}

// enqueue submits one fan-out task, blocking when the queue is full.
// Registration on the producers group happens under the same lock as the
// closed check, so Close cannot close the channel between the check and
// the send.
func (s *Service) enqueue(ctx context.Context, t task) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.producers.Add(1)
	s.mu.Unlock()
	defer s.producers.Done()

	select {
	case s.tasks <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker drains the task queue until it is closed.
func (s *Service) worker() {
	defer s.wg.Done()
	for t := range s.tasks {
		s.process(t)
	}
}

// process writes one brightness row, retrying transient storage failures.
// Validation failures are final and never retried.
func (s *Service) process(t task) {
	record := &lighting.BrightnessRecord{
		FixtureID: t.fixtureID,
		Level:     t.level,
		Source:    lighting.SourceAuto,
		Timestamp: t.timestamp,
	}

	var err error
	for attempt := 0; attempt <= s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.cfg.RetryBackoff)
		}

		err = s.repo.AppendBrightness(context.Background(), record)
		if err == nil {
			break
		}
		if errors.Is(err, lighting.ErrInvalidLevel) || errors.Is(err, lighting.ErrFixtureNotFound) {
			break
		}

		if attempt < s.cfg.RetryAttempts {
			s.logger.Warn("brightness write failed, retrying",
				"fixture_id", t.fixtureID,
				"level", t.level,
				"attempt", attempt+1,
				"error", err,
			)
		}
	}
	if err != nil {
		s.logger.Error("brightness fan-out failed",
			"fixture_id", t.fixtureID,
			"level", t.level,
			"error", err,
		)
		return
	}

	if s.actuator != nil {
		if err := s.actuator.SetBrightness(t.fixtureID, t.level); err != nil {
			s.logger.Warn("fixture actuation failed",
				"fixture_id", t.fixtureID,
				"level", t.level,
				"error", err,
			)
		}
	}

	if s.telemetry != nil {
		s.telemetry.WriteBrightness(t.fixtureID, t.level, string(lighting.SourceAuto), t.timestamp)
	}
}
