// Gray Logic Diagnostics - Device Diagnostic Service
//
// This is the main entry point for the Gray Logic Diagnostics service.
// It answers "why is this device misbehaving?" by resolving devices from
// the catalogue, gathering context from the configured sources, running
// pattern detectors over recent event history, and synthesising ranked
// root-cause hypotheses into a report.
//
// The service always produces a report: collaborator failures degrade
// the report rather than aborting the run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/gray-logic-diag/internal/api"
	"github.com/nerrad567/gray-logic-diag/internal/device"
	"github.com/nerrad567/gray-logic-diag/internal/diagnosis"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-diag/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-diag/internal/pattern"
	"github.com/nerrad567/gray-logic-diag/internal/source"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gray Logic Diagnostics",
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

	// Initialise the catalogue snapshot store and warm the registry so
	// name resolution works before the device source has answered.
	snapshots, err := device.NewSQLiteSnapshotStore(db.DB)
	if err != nil {
		return fmt.Errorf("initialising snapshot store: %w", err)
	}

	registry := device.NewRegistry()
	registry.SetLogger(log)

	snapshot, err := snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading catalogue snapshot: %w", err)
	}
	if len(snapshot) > 0 {
		registry.ReplaceAll(snapshot)
		log.Info("registry warmed from snapshot", "devices", registry.Count())
	}

	// Wire the device source. A local fixture directory serves development
	// and integration runs; without one the service runs registry-only and
	// every report is degraded.
	var devices diagnosis.DeviceSource
	if cfg.Sources.LocalDir != "" {
		local, err := source.NewLocal(cfg.Sources.LocalDir)
		if err != nil {
			return fmt.Errorf("loading local source: %w", err)
		}
		devices = local
		log.Info("local device source loaded", "dir", cfg.Sources.LocalDir)
	} else {
		devices = source.Unavailable{}
		log.Warn("no device source configured, running registry-only")
	}

	// Refresh the catalogue from the source, falling back to the snapshot
	// when the source cannot answer.
	if records, listErr := devices.ListDevices(ctx); listErr == nil && len(records) > 0 {
		registry.ReplaceAll(records)
		if saveErr := snapshots.Save(ctx, records); saveErr != nil {
			log.Warn("saving catalogue snapshot failed", "error", saveErr)
		}
		log.Info("registry refreshed from device source", "devices", registry.Count())
	} else if listErr != nil {
		log.Warn("device source catalogue unavailable, serving snapshot", "error", listErr)
	}

	// Assemble the diagnostic workflow. No similarity or intent backends
	// ship with this service; their slots degrade gracefully.
	gatherer := diagnosis.NewGatherer(devices, nil, cfg.Diagnosis)
	gatherer.SetLogger(log)

	workflow, err := diagnosis.NewWorkflow(registry, gatherer, nil, pattern.Config{
		TriggerFastBand:     cfg.Detectors.TriggerFastBandDuration(),
		TriggerSlowBand:     cfg.Detectors.TriggerSlowBandDuration(),
		RapidWindow:         cfg.Detectors.RapidWindowDuration(),
		RapidMinTransitions: cfg.Detectors.RapidMinTransitions,
		GapCeiling:          cfg.Detectors.GapCeilingDuration(),
	})
	if err != nil {
		return fmt.Errorf("creating workflow: %w", err)
	}
	workflow.SetLogger(log)

	// Start the API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Workflow: workflow,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	// Verify infrastructure is healthy
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("Gray Logic Diagnostics stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GRAYDIAG_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYDIAG_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
