// Lumen Core - Adaptive Lighting Service
//
// This is the main entry point for the Lumen Core application. Lumen Core
// ingests ambient-light and occupancy readings, derives fixture brightness
// through a fixed rule table, keeps an auditable history of every reading
// and brightness decision, and exposes pull-based query APIs for dashboards.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ecofuelers/lumen-core/migrations"

	"github.com/ecofuelers/lumen-core/internal/api"
	"github.com/ecofuelers/lumen-core/internal/infrastructure/config"
	"github.com/ecofuelers/lumen-core/internal/infrastructure/database"
	"github.com/ecofuelers/lumen-core/internal/infrastructure/influxdb"
	"github.com/ecofuelers/lumen-core/internal/infrastructure/logging"
	"github.com/ecofuelers/lumen-core/internal/infrastructure/mqtt"
	"github.com/ecofuelers/lumen-core/internal/ingest"
	"github.com/ecofuelers/lumen-core/internal/lighting"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumen Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	applied, pending, statusErr := db.GetMigrationStatus(ctx)
	if statusErr != nil {
		return fmt.Errorf("reading migration status: %w", statusErr)
	}
	log.Info("database migrations complete", "applied", len(applied), "pending", len(pending))

	// Initialise the lighting registry
	repo := lighting.NewSQLiteRepository(db.DB)
	registry := lighting.NewRegistry(repo)
	registry.SetLogger(log)

	if refreshErr := registry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading lighting registry: %w", refreshErr)
	}
	log.Info("lighting registry initialised",
		"sensors", registry.SensorCount(),
		"fixtures", registry.FixtureCount(),
	)

	// Connect to MQTT broker (optional - fixtures still get history rows
	// without it, just no actuation commands)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the lighting service (history queries, manual overrides)
	lightingSvc := lighting.NewService(registry, repo)
	lightingSvc.SetLogger(log)

	// Build the ingestion pipeline
	ingestSvc := ingest.NewService(registry, repo, cfg.Ingest)
	ingestSvc.SetLogger(log.With("component", "ingest"))

	if mqttClient != nil {
		actuator := ingest.NewMQTTActuator(mqttClient, byte(cfg.MQTT.QoS))
		ingestSvc.SetActuator(actuator)
		lightingSvc.SetActuator(actuator)
	}
	if influxClient != nil {
		ingestSvc.SetTelemetry(influxClient)
		lightingSvc.SetTelemetry(influxClient)
	}

	if startErr := ingestSvc.Start(); startErr != nil {
		return fmt.Errorf("starting ingest pipeline: %w", startErr)
	}
	defer func() {
		log.Info("stopping ingest pipeline")
		ingestSvc.Close()
	}()

	// Bridge MQTT-delivered sensor readings into the pipeline
	if mqttClient != nil {
		bridge := ingest.NewBridge(mqttClient, ingestSvc, byte(cfg.MQTT.QoS))
		bridge.SetLogger(log.With("component", "mqtt-bridge"))
		if bridgeErr := bridge.Start(); bridgeErr != nil {
			return fmt.Errorf("starting MQTT reading bridge: %w", bridgeErr)
		}
		defer func() {
			log.Info("stopping MQTT reading bridge")
			if stopErr := bridge.Stop(); stopErr != nil {
				log.Error("error stopping MQTT reading bridge", "error", stopErr)
			}
		}()
	}

	// Start the retention pruner
	pruner := lighting.NewPruner(repo, cfg.RetentionMaxAge(), cfg.Retention.Interval)
	pruner.SetLogger(log.With("component", "pruner"))
	if pruner.Enabled() {
		go pruner.Run(ctx)
		log.Info("retention pruner started",
			"max_age_days", cfg.Retention.MaxAgeDays,
			"interval", cfg.Retention.Interval,
		)
	} else {
		log.Info("retention pruning disabled")
	}

	// Start the HTTP API server
	apiServer, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Lighting: lightingSvc,
		Ingester: ingestSvc,
		DB:       db,
		MQTT:     mqttClient,
		Influx:   influxClient,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. MQTT reading bridge
	// 3. Ingest pipeline (drains outstanding fan-out)
	// 4. InfluxDB (if enabled)
	// 5. MQTT (if enabled)
	// 6. Database

	log.Info("Lumen Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMEN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
