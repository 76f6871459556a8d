package ingest

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/ecofuelers/lumen-core/internal/infrastructure/config"
	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// newTestService builds a running pipeline over an in-memory SQLite store.
func newTestService(t *testing.T, cfg config.IngestConfig) (*Service, lighting.Repository) {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	// One connection only: each new connection would see a fresh memory DB.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE sensors (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			location TEXT NOT NULL DEFAULT ''
		) STRICT;
		CREATE TABLE leds (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			wattage REAL NOT NULL
		) STRICT;
		CREATE TABLE sensor_led_map (
			sensor_id INTEGER NOT NULL REFERENCES sensors(id),
			led_id    INTEGER NOT NULL REFERENCES leds(id),
			PRIMARY KEY (sensor_id, led_id)
		) STRICT;
		CREATE TABLE sensor_readings (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			sensor_id INTEGER NOT NULL REFERENCES sensors(id),
			lux       INTEGER NOT NULL,
			people    INTEGER NOT NULL,
			ts        TEXT NOT NULL
		) STRICT;
		CREATE TABLE brightness_levels (
			id     INTEGER PRIMARY KEY AUTOINCREMENT,
			led_id INTEGER NOT NULL REFERENCES leds(id),
			level  INTEGER NOT NULL CHECK (level BETWEEN 0 AND 100),
			source TEXT NOT NULL DEFAULT 'auto',
			ts     TEXT NOT NULL
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	repo := lighting.NewSQLiteRepository(db)
	registry := lighting.NewRegistry(repo)
	svc := NewService(registry, repo, cfg)
	return svc, repo
}

// seedLinkedFixtures creates a sensor linked to n fixtures.
func seedLinkedFixtures(t *testing.T, repo lighting.Repository, n int) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	sensor := lighting.Sensor{Location: "lab"}
	if err := repo.CreateSensor(ctx, &sensor); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	fixtureIDs := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		fixture := lighting.Fixture{Wattage: 12}
		if err := repo.CreateFixture(ctx, &fixture); err != nil {
			t.Fatalf("CreateFixture() error = %v", err)
		}
		if err := repo.LinkSensorFixture(ctx, sensor.ID, fixture.ID); err != nil {
			t.Fatalf("LinkSensorFixture() error = %v", err)
		}
		fixtureIDs = append(fixtureIDs, fixture.ID)
	}
	return sensor.ID, fixtureIDs
}

// recordingActuator captures brightness commands across goroutines.
type recordingActuator struct {
	mu       sync.Mutex
	commands map[int64]int
}

func newRecordingActuator() *recordingActuator {
	return &recordingActuator{commands: make(map[int64]int)}
}

func (a *recordingActuator) SetBrightness(fixtureID int64, level int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands[fixtureID] = level
	return nil
}

func (a *recordingActuator) levelFor(fixtureID int64) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	level, ok := a.commands[fixtureID]
	return level, ok
}

func TestIngest_FansOutToAllLinkedFixtures(t *testing.T) {
	svc, repo := newTestService(t, config.IngestConfig{Workers: 2, QueueSize: 8})
	ctx := context.Background()

	sensorID, fixtureIDs := seedLinkedFixtures(t, repo, 3)

	actuator := newRecordingActuator()
	svc.SetActuator(actuator)

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// lux 250, occupied: band table says level 70
	reading, err := svc.Ingest(ctx, sensorID, 250, 2)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if reading.ID == 0 {
		t.Error("expected persisted reading ID, got 0")
	}

	// Close drains the queue, so all fan-out writes are visible after it
	svc.Close()

	for _, fixtureID := range fixtureIDs {
		record, err := repo.LatestBrightness(ctx, fixtureID)
		if err != nil {
			t.Fatalf("LatestBrightness(%d) error = %v", fixtureID, err)
		}
		if record.Level != 70 {
			t.Errorf("fixture %d level = %d, want 70", fixtureID, record.Level)
		}
		if record.Source != lighting.SourceAuto {
			t.Errorf("fixture %d source = %q, want %q", fixtureID, record.Source, lighting.SourceAuto)
		}

		level, ok := actuator.levelFor(fixtureID)
		if !ok {
			t.Errorf("fixture %d received no actuation command", fixtureID)
		} else if level != 70 {
			t.Errorf("fixture %d actuated at %d, want 70", fixtureID, level)
		}
	}
}

func TestIngest_UnknownSensor(t *testing.T) {
	svc, _ := newTestService(t, config.IngestConfig{Workers: 1, QueueSize: 4})

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Close()

	_, err := svc.Ingest(context.Background(), 9999, 100, 1)
	if !errors.Is(err, lighting.ErrSensorNotFound) {
		t.Errorf("Ingest() error = %v, want ErrSensorNotFound", err)
	}
}

func TestIngest_NegativeOccupancy(t *testing.T) {
	svc, repo := newTestService(t, config.IngestConfig{Workers: 1, QueueSize: 4})
	sensorID, _ := seedLinkedFixtures(t, repo, 1)

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer svc.Close()

	_, err := svc.Ingest(context.Background(), sensorID, 100, -1)
	if !errors.Is(err, lighting.ErrInvalidReading) {
		t.Errorf("Ingest() error = %v, want ErrInvalidReading", err)
	}
}

func TestIngest_SensorWithNoFixtures(t *testing.T) {
	svc, repo := newTestService(t, config.IngestConfig{Workers: 1, QueueSize: 4})
	ctx := context.Background()

	sensor := lighting.Sensor{Location: "storeroom"}
	if err := repo.CreateSensor(ctx, &sensor); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	reading, err := svc.Ingest(ctx, sensor.ID, 500, 1)
	if err != nil {
		t.Fatalf("Ingest() error = %v, want stored reading despite no links", err)
	}
	if reading.ID == 0 {
		t.Error("expected persisted reading ID, got 0")
	}

	svc.Close()
}

func TestIngest_UnoccupiedTurnsFixturesOff(t *testing.T) {
	svc, repo := newTestService(t, config.IngestConfig{Workers: 1, QueueSize: 4})
	ctx := context.Background()

	sensorID, fixtureIDs := seedLinkedFixtures(t, repo, 1)

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := svc.Ingest(ctx, sensorID, 50, 0); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	svc.Close()

	record, err := repo.LatestBrightness(ctx, fixtureIDs[0])
	if err != nil {
		t.Fatalf("LatestBrightness() error = %v", err)
	}
	if record.Level != lighting.LevelOff {
		t.Errorf("level = %d, want %d for unoccupied room", record.Level, lighting.LevelOff)
	}
}

func TestService_Lifecycle(t *testing.T) {
	svc, _ := newTestService(t, config.IngestConfig{Workers: 1, QueueSize: 4})

	t.Run("double start", func(t *testing.T) {
		if err := svc.Start(); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		if err := svc.Start(); !errors.Is(err, ErrAlreadyStarted) {
			t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		svc.Close()
		svc.Close()
	})

	t.Run("start after close", func(t *testing.T) {
		if err := svc.Start(); !errors.Is(err, ErrClosed) {
			t.Errorf("Start() after Close error = %v, want ErrClosed", err)
		}
	})
}

func TestService_CloseDuringConcurrentIngest(t *testing.T) {
	// A tiny queue keeps producers blocked in enqueue while Close runs,
	// exercising the close-versus-send window.
	svc, repo := newTestService(t, config.IngestConfig{Workers: 1, QueueSize: 1})
	sensorID, _ := seedLinkedFixtures(t, repo, 4)

	if err := svc.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx := context.Background()
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				// After Close the reading still persists; the dropped
				// fan-out is logged, never surfaced. Any error here is
				// a real failure.
				if _, err := svc.Ingest(ctx, sensorID, 250, 1); err != nil {
					t.Errorf("Ingest() error = %v", err)
					return
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	svc.Close() // must not panic a producer mid-enqueue
	close(stop)
	wg.Wait()
}

type stubIngester struct {
	mu       sync.Mutex
	sensorID int64
	lux      int
	people   int
	calls    int
	err      error
}

func (s *stubIngester) Ingest(_ context.Context, sensorID int64, lux, people int) (*lighting.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.sensorID, s.lux, s.people = sensorID, lux, people
	if s.err != nil {
		return nil, s.err
	}
	return &lighting.Reading{ID: 1, SensorID: sensorID, Lux: lux, People: people, Timestamp: time.Now().UTC()}, nil
}

func TestBridge_HandleReading(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		payload    string
		wantErr    bool
		wantPeople int
	}{
		{
			name:       "valid reading",
			topic:      "lumen/sensors/7/reading",
			payload:    `{"lux":320,"people":1}`,
			wantPeople: 1,
		},
		{
			name:       "boolean occupancy payload",
			topic:      "lumen/sensors/7/reading",
			payload:    `{"lux":320,"people":true}`,
			wantPeople: 1,
		},
		{
			name:       "boolean unoccupied payload",
			topic:      "lumen/sensors/7/reading",
			payload:    `{"lux":320,"people":false}`,
			wantPeople: 0,
		},
		{
			name:    "malformed payload",
			topic:   "lumen/sensors/7/reading",
			payload: `not json`,
			wantErr: true,
		},
		{
			name:    "non-numeric sensor id",
			topic:   "lumen/sensors/abc/reading",
			payload: `{"lux":100,"people":0}`,
			wantErr: true,
		},
		{
			name:    "wrong topic shape",
			topic:   "lumen/fixtures/7/state",
			payload: `{"lux":100,"people":0}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingester := &stubIngester{}
			bridge := NewBridge(nil, ingester, 1)

			err := bridge.handleReading(tt.topic, []byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("handleReading() error = %v", err)
			}
			if ingester.calls != 1 {
				t.Errorf("ingester calls = %d, want 1", ingester.calls)
			}
			if ingester.sensorID != 7 || ingester.lux != 320 || ingester.people != tt.wantPeople {
				t.Errorf("ingested (%d, %d, %d), want (7, 320, %d)",
					ingester.sensorID, ingester.lux, ingester.people, tt.wantPeople)
			}
		})
	}
}

func TestParseSensorTopic(t *testing.T) {
	tests := []struct {
		topic  string
		wantID int64
		wantOK bool
	}{
		{"lumen/sensors/3/reading", 3, true},
		{"lumen/sensors/42/reading", 42, true},
		{"lumen/sensors/3/state", 0, false},
		{"lumen/fixtures/3/reading", 0, false},
		{"other/sensors/3/reading", 0, false},
		{"lumen/sensors/reading", 0, false},
		{"lumen/sensors/x/reading", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			id, err := parseSensorTopic(tt.topic)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("parseSensorTopic() error = %v", err)
				}
				if id != tt.wantID {
					t.Errorf("id = %d, want %d", id, tt.wantID)
				}
				return
			}
			if err == nil {
				t.Errorf("parseSensorTopic(%q) expected error, got id %d", tt.topic, id)
			}
		})
	}
}
