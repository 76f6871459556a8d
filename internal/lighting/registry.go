package lighting

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry provides sensor/fixture management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for the hot ingestion
// path: every reading resolves its sensor and linked fixtures, and hitting
// SQLite for that on each reading is wasted work since provisioning changes
// are rare.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by the provisioning operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo Repository

	sensors  map[int64]Sensor
	fixtures map[int64]Fixture
	links    map[int64][]int64 // sensor ID -> linked fixture IDs, ascending
	mu       sync.RWMutex

	logger Logger
}

// NewRegistry creates a new lighting registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:     repo,
		sensors:  make(map[int64]Sensor),
		fixtures: make(map[int64]Fixture),
		links:    make(map[int64][]int64),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all sensors, fixtures, and links from the repository.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	sensors, err := r.repo.ListSensors(ctx)
	if err != nil {
		return fmt.Errorf("loading sensors: %w", err)
	}

	fixtures, err := r.repo.ListFixtures(ctx)
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}

	links := make(map[int64][]int64, len(sensors))
	for _, s := range sensors {
		linked, err := r.repo.FixturesForSensor(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("loading links for sensor %d: %w", s.ID, err)
		}
		ids := make([]int64, 0, len(linked))
		for _, f := range linked {
			ids = append(ids, f.ID)
		}
		links[s.ID] = ids
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sensors = make(map[int64]Sensor, len(sensors))
	for _, s := range sensors {
		r.sensors[s.ID] = s
	}
	r.fixtures = make(map[int64]Fixture, len(fixtures))
	for _, f := range fixtures {
		r.fixtures[f.ID] = f
	}
	r.links = links

	r.logger.Info("lighting cache refreshed",
		"sensors", len(sensors),
		"fixtures", len(fixtures),
	)
	return nil
}

// SensorExists reports whether a sensor exists, consulting the cache first.
func (r *Registry) SensorExists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	_, ok := r.sensors[id]
	r.mu.RUnlock()

	if ok {
		return true, nil
	}

	// Fall back to repository (might be a new sensor not yet cached)
	return r.repo.SensorExists(ctx, id)
}

// FixtureExists reports whether a fixture exists, consulting the cache first.
func (r *Registry) FixtureExists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	_, ok := r.fixtures[id]
	r.mu.RUnlock()

	if ok {
		return true, nil
	}

	return r.repo.FixtureExists(ctx, id)
}

// FixturesForSensor retrieves the fixtures linked to a sensor, ordered by ID.
// A sensor with no links yields an empty slice.
func (r *Registry) FixturesForSensor(ctx context.Context, sensorID int64) ([]Fixture, error) {
	r.mu.RLock()
	ids, haveSensor := r.links[sensorID]
	fixtures := make([]Fixture, 0, len(ids))
	for _, id := range ids {
		if f, ok := r.fixtures[id]; ok {
			fixtures = append(fixtures, f)
		}
	}
	r.mu.RUnlock()

	if haveSensor {
		return fixtures, nil
	}

	return r.repo.FixturesForSensor(ctx, sensorID)
}

// ListSensors retrieves all sensors ordered by ID.
func (r *Registry) ListSensors(ctx context.Context) ([]Sensor, error) {
	r.mu.RLock()
	if len(r.sensors) > 0 {
		sensors := make([]Sensor, 0, len(r.sensors))
		for _, s := range r.sensors {
			sensors = append(sensors, s)
		}
		r.mu.RUnlock()

		sort.Slice(sensors, func(i, j int) bool { return sensors[i].ID < sensors[j].ID })
		return sensors, nil
	}
	r.mu.RUnlock()

	return r.repo.ListSensors(ctx)
}

// ListFixtures retrieves all fixtures ordered by ID.
func (r *Registry) ListFixtures(ctx context.Context) ([]Fixture, error) {
	r.mu.RLock()
	if len(r.fixtures) > 0 {
		fixtures := make([]Fixture, 0, len(r.fixtures))
		for _, f := range r.fixtures {
			fixtures = append(fixtures, f)
		}
		r.mu.RUnlock()

		sort.Slice(fixtures, func(i, j int) bool { return fixtures[i].ID < fixtures[j].ID })
		return fixtures, nil
	}
	r.mu.RUnlock()

	return r.repo.ListFixtures(ctx)
}

// CreateSensor persists a new sensor and caches it.
func (r *Registry) CreateSensor(ctx context.Context, sensor *Sensor) error {
	if err := r.repo.CreateSensor(ctx, sensor); err != nil {
		return err
	}

	r.mu.Lock()
	r.sensors[sensor.ID] = *sensor
	r.links[sensor.ID] = nil
	r.mu.Unlock()

	r.logger.Info("sensor created", "id", sensor.ID, "location", sensor.Location)
	return nil
}

// CreateFixture persists a new fixture and caches it.
func (r *Registry) CreateFixture(ctx context.Context, fixture *Fixture) error {
	if err := r.repo.CreateFixture(ctx, fixture); err != nil {
		return err
	}

	r.mu.Lock()
	r.fixtures[fixture.ID] = *fixture
	r.mu.Unlock()

	r.logger.Info("fixture created", "id", fixture.ID, "wattage", fixture.Wattage)
	return nil
}

// LinkSensorFixture persists a sensor-fixture link and caches it.
func (r *Registry) LinkSensorFixture(ctx context.Context, sensorID, fixtureID int64) error {
	if err := r.repo.LinkSensorFixture(ctx, sensorID, fixtureID); err != nil {
		return err
	}

	r.mu.Lock()
	ids := append(r.links[sensorID], fixtureID)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	r.links[sensorID] = ids
	r.mu.Unlock()

	r.logger.Info("sensor linked to fixture", "sensor_id", sensorID, "fixture_id", fixtureID)
	return nil
}

// SensorCount returns the number of cached sensors.
func (r *Registry) SensorCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sensors)
}

// FixtureCount returns the number of cached fixtures.
func (r *Registry) FixtureCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fixtures)
}
