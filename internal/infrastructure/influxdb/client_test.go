package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecofuelers/lumen-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	cfg := config.InfluxDBConfig{
		Enabled: false,
		URL:     "http://localhost:8086",
	}

	_, err := Connect(cfg)
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestClose_NilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v, want nil", err)
	}
}

func TestIsConnected_InitialState(t *testing.T) {
	c := &Client{}
	if c.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestHealthCheck_Disconnected(t *testing.T) {
	c := &Client{}

	err := c.HealthCheck(context.Background())
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// Writes on a disconnected client must be silent no-ops: the pipeline
// calls these unconditionally and must not panic when the mirror is down.
func TestWrites_DisconnectedNoop(t *testing.T) {
	c := &Client{}

	c.WriteReading(1, 300, 2, time.Now())
	c.WriteBrightness(2, 70, "auto", time.Now())
	c.WritePoint("custom", map[string]string{"k": "v"}, map[string]interface{}{"n": 1})
	c.Flush()
}
