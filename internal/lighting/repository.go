package lighting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for lighting persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// CreateSensor inserts a new sensor and sets its generated ID.
	CreateSensor(ctx context.Context, sensor *Sensor) error

	// CreateFixture inserts a new fixture and sets its generated ID.
	CreateFixture(ctx context.Context, fixture *Fixture) error

	// LinkSensorFixture links a sensor to a fixture.
	// Returns ErrSensorNotFound/ErrFixtureNotFound if either side is missing,
	// ErrLinkExists if the pair is already linked.
	LinkSensorFixture(ctx context.Context, sensorID, fixtureID int64) error

	// SensorExists reports whether a sensor with the given ID exists.
	SensorExists(ctx context.Context, id int64) (bool, error)

	// FixtureExists reports whether a fixture with the given ID exists.
	FixtureExists(ctx context.Context, id int64) (bool, error)

	// ListSensors retrieves all sensors ordered by ID.
	ListSensors(ctx context.Context) ([]Sensor, error)

	// ListFixtures retrieves all fixtures ordered by ID.
	ListFixtures(ctx context.Context) ([]Fixture, error)

	// FixturesForSensor retrieves the fixtures linked to a sensor, ordered
	// by ID. A sensor with no links yields an empty slice, not an error.
	FixturesForSensor(ctx context.Context, sensorID int64) ([]Fixture, error)

	// InsertReading persists a reading and sets its generated ID.
	// Returns ErrSensorNotFound if the sensor does not exist.
	InsertReading(ctx context.Context, reading *Reading) error

	// AppendBrightness appends a brightness record and sets its generated ID.
	// Returns ErrInvalidLevel for levels outside 0-100 and ErrFixtureNotFound
	// if the fixture does not exist.
	AppendBrightness(ctx context.Context, record *BrightnessRecord) error

	// LatestBrightness retrieves the most recent brightness record for a
	// fixture. Returns ErrNoBrightness if the fixture has no history.
	LatestBrightness(ctx context.Context, fixtureID int64) (*BrightnessRecord, error)

	// BrightnessHistory retrieves brightness records for a fixture with
	// timestamp >= since (inclusive), oldest first.
	BrightnessHistory(ctx context.Context, fixtureID int64, since time.Time) ([]BrightnessRecord, error)

	// PruneBrightness deletes brightness records older than cutoff.
	// Returns the number of rows removed.
	PruneBrightness(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneReadings deletes readings older than cutoff.
	// Returns the number of rows removed.
	PruneReadings(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateSensor inserts a new sensor.
func (r *SQLiteRepository) CreateSensor(ctx context.Context, sensor *Sensor) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO sensors (location) VALUES (?)",
		sensor.Location,
	)
	if err != nil {
		return fmt.Errorf("inserting sensor: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading sensor id: %w", err)
	}
	sensor.ID = id

	return nil
}

// CreateFixture inserts a new fixture.
func (r *SQLiteRepository) CreateFixture(ctx context.Context, fixture *Fixture) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO leds (wattage) VALUES (?)",
		fixture.Wattage,
	)
	if err != nil {
		return fmt.Errorf("inserting fixture: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading fixture id: %w", err)
	}
	fixture.ID = id

	return nil
}

// LinkSensorFixture links a sensor to a fixture.
func (r *SQLiteRepository) LinkSensorFixture(ctx context.Context, sensorID, fixtureID int64) error {
	// Check both sides exist so the caller gets a precise error instead
	// of an opaque foreign key failure.
	sensorOK, err := r.SensorExists(ctx, sensorID)
	if err != nil {
		return err
	}
	if !sensorOK {
		return ErrSensorNotFound
	}

	fixtureOK, err := r.FixtureExists(ctx, fixtureID)
	if err != nil {
		return err
	}
	if !fixtureOK {
		return ErrFixtureNotFound
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO sensor_led_map (sensor_id, led_id) VALUES (?, ?)",
		sensorID, fixtureID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrLinkExists
		}
		return fmt.Errorf("inserting link: %w", err)
	}

	return nil
}

// SensorExists reports whether a sensor with the given ID exists.
func (r *SQLiteRepository) SensorExists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sensors WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking sensor exists: %w", err)
	}
	return count > 0, nil
}

// FixtureExists reports whether a fixture with the given ID exists.
func (r *SQLiteRepository) FixtureExists(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM leds WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking fixture exists: %w", err)
	}
	return count > 0, nil
}

// ListSensors retrieves all sensors ordered by ID.
func (r *SQLiteRepository) ListSensors(ctx context.Context) ([]Sensor, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, location FROM sensors ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying sensors: %w", err)
	}
	defer rows.Close()

	sensors := []Sensor{}
	for rows.Next() {
		var s Sensor
		if err := rows.Scan(&s.ID, &s.Location); err != nil {
			return nil, fmt.Errorf("scanning sensor: %w", err)
		}
		sensors = append(sensors, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}

	return sensors, nil
}

// ListFixtures retrieves all fixtures ordered by ID.
func (r *SQLiteRepository) ListFixtures(ctx context.Context) ([]Fixture, error) {
	return r.queryFixtures(ctx, "SELECT id, wattage FROM leds ORDER BY id")
}

// FixturesForSensor retrieves the fixtures linked to a sensor.
func (r *SQLiteRepository) FixturesForSensor(ctx context.Context, sensorID int64) ([]Fixture, error) {
	query := `
		SELECT l.id, l.wattage
		FROM leds l
		JOIN sensor_led_map m ON m.led_id = l.id
		WHERE m.sensor_id = ?
		ORDER BY l.id`

	return r.queryFixtures(ctx, query, sensorID)
}

// InsertReading persists a reading.
func (r *SQLiteRepository) InsertReading(ctx context.Context, reading *Reading) error {
	if reading.Timestamp.IsZero() {
		reading.Timestamp = time.Now().UTC()
	}
	reading.Timestamp = reading.Timestamp.UTC()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO sensor_readings (sensor_id, lux, people, ts) VALUES (?, ?, ?, ?)",
		reading.SensorID,
		reading.Lux,
		reading.People,
		reading.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrSensorNotFound
		}
		return fmt.Errorf("inserting reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading reading id: %w", err)
	}
	reading.ID = id

	return nil
}

// AppendBrightness appends a brightness record.
func (r *SQLiteRepository) AppendBrightness(ctx context.Context, record *BrightnessRecord) error {
	if record.Level < 0 || record.Level > MaxLevel {
		return ErrInvalidLevel
	}
	if record.Source == "" {
		record.Source = SourceAuto
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	record.Timestamp = record.Timestamp.UTC()

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO brightness_levels (led_id, level, source, ts) VALUES (?, ?, ?, ?)",
		record.FixtureID,
		record.Level,
		string(record.Source),
		record.Timestamp.Format(time.RFC3339),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return ErrFixtureNotFound
		}
		return fmt.Errorf("inserting brightness: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading brightness id: %w", err)
	}
	record.ID = id

	return nil
}

// LatestBrightness retrieves the most recent brightness record for a fixture.
func (r *SQLiteRepository) LatestBrightness(ctx context.Context, fixtureID int64) (*BrightnessRecord, error) {
	query := `
		SELECT id, led_id, level, source, ts
		FROM brightness_levels
		WHERE led_id = ?
		ORDER BY ts DESC, id DESC
		LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, fixtureID)
	record, err := scanBrightness(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoBrightness
		}
		return nil, fmt.Errorf("querying latest brightness: %w", err)
	}

	return record, nil
}

// BrightnessHistory retrieves brightness records since a cutoff, oldest first.
func (r *SQLiteRepository) BrightnessHistory(ctx context.Context, fixtureID int64, since time.Time) ([]BrightnessRecord, error) {
	query := `
		SELECT id, led_id, level, source, ts
		FROM brightness_levels
		WHERE led_id = ? AND ts >= ?
		ORDER BY ts ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, fixtureID, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying brightness history: %w", err)
	}
	defer rows.Close()

	records := []BrightnessRecord{}
	for rows.Next() {
		record, err := scanBrightness(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning brightness: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating brightness history: %w", err)
	}

	return records, nil
}

// PruneBrightness deletes brightness records older than cutoff.
func (r *SQLiteRepository) PruneBrightness(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM brightness_levels WHERE ts < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning brightness: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return removed, nil
}

// PruneReadings deletes readings older than cutoff.
func (r *SQLiteRepository) PruneReadings(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sensor_readings WHERE ts < ?",
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning readings: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return removed, nil
}

// queryFixtures executes a query and returns a slice of fixtures.
func (r *SQLiteRepository) queryFixtures(ctx context.Context, query string, args ...any) ([]Fixture, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := []Fixture{}
	for rows.Next() {
		var f Fixture
		if err := rows.Scan(&f.ID, &f.Wattage); err != nil {
			return nil, fmt.Errorf("scanning fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixtures: %w", err)
	}

	return fixtures, nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBrightness scans a row or rows result into a BrightnessRecord.
func scanBrightness(scanner rowScanner) (*BrightnessRecord, error) {
	var record BrightnessRecord
	var source, ts string

	if err := scanner.Scan(&record.ID, &record.FixtureID, &record.Level, &source, &ts); err != nil {
		return nil, err
	}

	record.Source = Source(source)

	parsed, err := parseTimestamp(ts)
	if err != nil {
		return nil, fmt.Errorf("parsing ts: %w", err)
	}
	record.Timestamp = parsed

	return &record, nil
}

// parseTimestamp parses a stored timestamp string.
// Rows are written as RFC3339; the space-separated fallback tolerates rows
// imported from external tooling.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", s)
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}

// isForeignKeyError checks if an error is a SQLite foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
