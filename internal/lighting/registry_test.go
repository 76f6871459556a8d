package lighting

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry_RefreshCache(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	sensorID := seedSensor(t, repo, "lobby")
	fixtureID := seedFixture(t, repo, 12)
	if err := repo.LinkSensorFixture(ctx, sensorID, fixtureID); err != nil {
		t.Fatalf("LinkSensorFixture() error = %v", err)
	}

	reg := NewRegistry(repo)
	if err := reg.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	if reg.SensorCount() != 1 {
		t.Errorf("SensorCount() = %d, want 1", reg.SensorCount())
	}
	if reg.FixtureCount() != 1 {
		t.Errorf("FixtureCount() = %d, want 1", reg.FixtureCount())
	}

	fixtures, err := reg.FixturesForSensor(ctx, sensorID)
	if err != nil {
		t.Fatalf("FixturesForSensor() error = %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].ID != fixtureID {
		t.Errorf("FixturesForSensor() = %+v, want fixture %d", fixtures, fixtureID)
	}
}

func TestRegistry_ExistsFallsBackToRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := NewRegistry(repo)
	if err := reg.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}

	// Created behind the registry's back - cache miss must hit the repo.
	sensorID := seedSensor(t, repo, "office")

	ok, err := reg.SensorExists(ctx, sensorID)
	if err != nil {
		t.Fatalf("SensorExists() error = %v", err)
	}
	if !ok {
		t.Error("SensorExists() = false for sensor present in repository")
	}

	ok, err = reg.SensorExists(ctx, 9999)
	if err != nil {
		t.Fatalf("SensorExists() error = %v", err)
	}
	if ok {
		t.Error("SensorExists() = true for missing sensor")
	}
}

func TestRegistry_CreateUpdatesCache(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := NewRegistry(repo)

	sensor := Sensor{Location: "lobby"}
	if err := reg.CreateSensor(ctx, &sensor); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}
	if sensor.ID == 0 {
		t.Error("expected generated sensor ID")
	}

	fixture := Fixture{Wattage: 18}
	if err := reg.CreateFixture(ctx, &fixture); err != nil {
		t.Fatalf("CreateFixture() error = %v", err)
	}

	if reg.SensorCount() != 1 || reg.FixtureCount() != 1 {
		t.Errorf("cache counts = (%d, %d), want (1, 1)", reg.SensorCount(), reg.FixtureCount())
	}

	if err := reg.LinkSensorFixture(ctx, sensor.ID, fixture.ID); err != nil {
		t.Fatalf("LinkSensorFixture() error = %v", err)
	}

	fixtures, err := reg.FixturesForSensor(ctx, sensor.ID)
	if err != nil {
		t.Fatalf("FixturesForSensor() error = %v", err)
	}
	if len(fixtures) != 1 || fixtures[0].ID != fixture.ID {
		t.Errorf("FixturesForSensor() = %+v, want fixture %d", fixtures, fixture.ID)
	}
}

func TestRegistry_LinkErrorsPassThrough(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := NewRegistry(repo)

	sensor := Sensor{Location: "lobby"}
	if err := reg.CreateSensor(ctx, &sensor); err != nil {
		t.Fatalf("CreateSensor() error = %v", err)
	}

	err := reg.LinkSensorFixture(ctx, sensor.ID, 9999)
	if !errors.Is(err, ErrFixtureNotFound) {
		t.Errorf("LinkSensorFixture() error = %v, want ErrFixtureNotFound", err)
	}

	fixture := Fixture{Wattage: 10}
	if err := reg.CreateFixture(ctx, &fixture); err != nil {
		t.Fatalf("CreateFixture() error = %v", err)
	}
	if err := reg.LinkSensorFixture(ctx, sensor.ID, fixture.ID); err != nil {
		t.Fatalf("LinkSensorFixture() error = %v", err)
	}

	err = reg.LinkSensorFixture(ctx, sensor.ID, fixture.ID)
	if !errors.Is(err, ErrLinkExists) {
		t.Errorf("duplicate LinkSensorFixture() error = %v, want ErrLinkExists", err)
	}

	// Failed duplicate must not grow the cached link list
	fixtures, err := reg.FixturesForSensor(ctx, sensor.ID)
	if err != nil {
		t.Fatalf("FixturesForSensor() error = %v", err)
	}
	if len(fixtures) != 1 {
		t.Errorf("expected 1 linked fixture after duplicate attempt, got %d", len(fixtures))
	}
}

func TestRegistry_ListOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	reg := NewRegistry(repo)
	for _, w := range []float64{5, 10, 15} {
		f := Fixture{Wattage: w}
		if err := reg.CreateFixture(ctx, &f); err != nil {
			t.Fatalf("CreateFixture() error = %v", err)
		}
	}

	fixtures, err := reg.ListFixtures(ctx)
	if err != nil {
		t.Fatalf("ListFixtures() error = %v", err)
	}
	for i := 1; i < len(fixtures); i++ {
		if fixtures[i].ID <= fixtures[i-1].ID {
			t.Error("ListFixtures() not ordered by id ascending")
		}
	}
}
