// Package config provides configuration management for the seeder.
//
// Configuration is read once at startup from a YAML or JSON file, checked
// against a JSON Schema for structural mistakes, and then validated for
// semantic contradictions before any session opens. Nothing is re-read or
// re-validated mid-run.
//
// # Core Components
//
// Config: the complete seeder configuration covering the source clip, the
// destination store, the session schedule, throttle targets, topic
// allow-lists, JSON batching, and the optional metrics endpoint.
//
// Load: reads a file, overlays it on DefaultConfig, and validates the
// result. Values absent from the file keep their defaults.
//
// # Basic Usage
//
//	cfg, err := config.Load("seeder.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	classifier := classify.New(cfg.Topics.ClassifierConfig())
//
// # Validation
//
// Schema validation catches type errors with a field path (a string where
// an integer belongs). Semantic validation catches contradictions that a
// schema cannot express, such as one channel allow-listed for two mutually
// exclusive categories; these fail fast at startup.
package config
