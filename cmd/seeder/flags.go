package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Debug       bool
	Robot       string
	StoreURL    string
	APIToken    string
	Seed        int64
	SeedSet     bool
	NoWipe      bool
	ShowVersion bool
	ShowHelp    bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("SEEDER_CONFIG", "configs/seeder.json"),
		"Path to configuration file (env: SEEDER_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("SEEDER_CONFIG", "configs/seeder.json"),
		"Path to configuration file (env: SEEDER_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("SEEDER_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: SEEDER_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("SEEDER_LOG_FORMAT", "json"),
		"Log format: json, text (env: SEEDER_LOG_FORMAT)")

	flag.BoolVar(&cfg.Debug, "debug",
		getEnvBool("SEEDER_DEBUG", false),
		"Enable debug mode (env: SEEDER_DEBUG)")

	flag.StringVar(&cfg.Robot, "robot",
		getEnv("ROBOT_NAME", ""),
		"Override the robot name, bucket defaults to it (env: ROBOT_NAME)")

	flag.StringVar(&cfg.StoreURL, "store-url",
		getEnv("REDUCT_URL", ""),
		"Override the store URL (env: REDUCT_URL)")

	flag.StringVar(&cfg.APIToken, "api-token",
		getEnv("REDUCT_API_TOKEN", ""),
		"Override the store API token (env: REDUCT_API_TOKEN)")

	flag.Int64Var(&cfg.Seed, "seed",
		getEnvInt64("SEEDER_SEED", 0),
		"Fix the random seed for a reproducible run (env: SEEDER_SEED)")

	flag.BoolVar(&cfg.NoWipe, "no-wipe", false,
		"Keep existing bucket entries instead of wiping them")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			cfg.SeedSet = true
		}
	})
	if !cfg.SeedSet && os.Getenv("SEEDER_SEED") != "" {
		cfg.SeedSet = true
	}

	// Override log level if debug is set
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	// Validate config file exists
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	// Validate log format
	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - ReductStore robot fleet seeder

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Examples:
  # Seed with a custom config
  %s --config=/path/to/seeder.json

  # Seed robot "orion" into a local store
  %s --robot=orion --store-url=http://127.0.0.1:8383

  # Reproducible run
  %s --seed=42

  # Validate configuration only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
