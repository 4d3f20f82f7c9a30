// Package main implements the entry point for the ReductStore robot fleet
// seeder. The seeder replays a recorded sensor clip into a store bucket as
// time-windowed episode blobs and per-category records, filling a demo
// environment with realistic, labeled robot telemetry.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/reductstore/ros-reductstore-demo/config"
	"github.com/reductstore/ros-reductstore-demo/metric"
	"github.com/reductstore/ros-reductstore-demo/pipeline"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "seeder"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Seeding failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg, logger, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	// Load and validate configuration
	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	// Signal handling cancels the run; the pipeline stops between writes.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := metric.NewRegistry()
	if cfg.Metrics.Enabled {
		server := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			if err := server.Stop(); err != nil {
				slog.Warn("Metrics server stop failed", "error", err)
			}
		}()
		slog.Info("Metrics endpoint up", "address", server.Address())
	}

	runner := pipeline.New(cfg, logger, pipeline.WithRegistry(registry))
	summary, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("Run summary",
		"sessions", summary.Sessions,
		"episodes", summary.Episodes,
		"images", summary.Images,
		"point_clouds", summary.PointClouds,
		"json_rows", summary.JSONRows,
		"records_written", summary.RecordsWritten,
		"duplicates", summary.DuplicateRecords)
	return nil
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting seeder",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads the config file, applies CLI overrides,
// and validates the result.
func initializeConfiguration(cliCfg *CLIConfig) (*config.Config, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	applyOverrides(cfg, cliCfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, cliCfg *CLIConfig) {
	if cliCfg.Robot != "" {
		cfg.Robot = cliCfg.Robot
	}
	if cliCfg.StoreURL != "" {
		cfg.Store.URL = cliCfg.StoreURL
	}
	if cliCfg.APIToken != "" {
		cfg.Store.APIToken = cliCfg.APIToken
	}
	if cliCfg.SeedSet {
		seed := cliCfg.Seed
		cfg.Seed = &seed
	}
	if cliCfg.NoWipe {
		cfg.WipeBucket = false
	}
}
