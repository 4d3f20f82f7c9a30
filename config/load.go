package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/reductstore/ros-reductstore-demo/errors"
)

// configSchema is the structural contract a config file must meet before
// semantic validation runs. It catches type mistakes (a string where a
// number belongs) with a field path instead of a decode error.
const configSchema = `{
  "type": "object",
  "properties": {
    "robot": {"type": "string", "minLength": 1},
    "bucket": {"type": "string"},
    "wipe_bucket": {"type": "boolean"},
    "seed": {"type": "integer"},
    "source": {
      "type": "object",
      "properties": {
        "clip_path": {"type": "string", "minLength": 1}
      },
      "required": ["clip_path"]
    },
    "store": {
      "type": "object",
      "properties": {
        "url": {"type": "string", "minLength": 1},
        "api_token": {"type": "string"},
        "timeout": {"type": "integer", "minimum": 0},
        "write_rate_limit": {"type": "number", "minimum": 0}
      }
    },
    "session": {
      "type": "object",
      "properties": {
        "duration_seconds": {"type": "integer", "minimum": 1},
        "interval_seconds": {"type": "integer", "minimum": 1},
        "start_offset_hours": {"type": "integer"},
        "end_offset_hours": {"type": "integer"},
        "episode_seconds": {"type": "integer", "minimum": 1},
        "emit_empty_episodes": {"type": "boolean"}
      }
    },
    "throttle": {
      "type": "object",
      "properties": {
        "image_hz": {"type": "number", "minimum": 0},
        "point_cloud_hz": {"type": "number", "minimum": 0},
        "per_channel": {
          "type": "object",
          "additionalProperties": {"type": "number", "minimum": 0}
        }
      }
    },
    "topics": {
      "type": "object",
      "properties": {
        "deny_patterns": {"type": "array", "items": {"type": "string"}},
        "image_channels": {"type": "array", "items": {"type": "string"}},
        "point_cloud_channels": {"type": "array", "items": {"type": "string"}},
        "camera_info_channels": {"type": "array", "items": {"type": "string"}},
        "raw_channels": {"type": "array", "items": {"type": "string"}},
        "entry_names": {
          "type": "object",
          "additionalProperties": {"type": "string"}
        }
      }
    },
    "batch": {
      "type": "object",
      "properties": {
        "json_batch_size": {"type": "integer", "minimum": 1}
      }
    },
    "metrics": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "path": {"type": "string"}
      }
    }
  },
  "required": ["robot", "source"]
}`

// Load reads, schema-checks, and validates a config file. YAML and JSON
// are both accepted, keyed off the file extension. Values absent from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "read config file")
	}

	var raw map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse YAML config")
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, errors.WrapInvalid(err, "config", "Load", "parse JSON config")
		}
	default:
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "config", "Load",
			fmt.Sprintf("unsupported config extension %q", ext))
	}

	if err := checkSchema(raw); err != nil {
		return nil, err
	}

	// Overlay the file on top of the defaults via a JSON round trip; the
	// schema check above guarantees the shapes line up.
	cfg := DefaultConfig()
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "normalize config")
	}
	if err := json.Unmarshal(encoded, cfg); err != nil {
		return nil, errors.WrapInvalid(err, "config", "Load", "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// checkSchema validates the raw document against configSchema.
func checkSchema(raw map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return errors.WrapInvalid(err, "config", "checkSchema", "run schema validation")
	}
	if result.Valid() {
		return nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return errors.WrapInvalid(
		fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(messages, "; ")),
		"config", "checkSchema", "schema validation")
}
