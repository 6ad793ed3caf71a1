package config

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/sensorfuse/errors"
)

// configSchema is the draft-07 JSON schema the loaded document must satisfy
// before it is decoded into Config. Structural errors surface here with the
// offending field named; cross-field constraints live in Validate().
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "bus": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "queue_capacity": {"type": "integer", "minimum": 1}
      }
    },
    "analysis": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "window_size": {"type": "integer", "minimum": 2},
        "min_valid_samples": {"type": "integer", "minimum": 1},
        "anomaly_threshold": {"type": "number", "exclusiveMinimum": 0},
        "entropy_bins": {"type": "integer", "minimum": 2},
        "permutation_order": {"type": "integer", "minimum": 2, "maximum": 7},
        "hurst_min_length": {"type": "integer", "minimum": 8},
        "workers": {"type": "integer", "minimum": 1}
      }
    },
    "fusion": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "method": {"type": "string", "enum": ["dempster_shafer", "bayesian", "weighted_average"]},
        "correlation_horizon_ms": {"type": "integer", "minimum": 1},
        "min_confidence": {"type": "number", "minimum": 0, "maximum": 1},
        "min_sensors": {"type": "integer", "minimum": 2},
        "cooldown_ms": {"type": "integer", "minimum": 0},
        "prior": {"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1},
        "mass_steepness": {"type": "number", "exclusiveMinimum": 0},
        "recent_ring": {"type": "integer", "minimum": 1}
      }
    },
    "sensors": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["id", "kind"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "kind": {"type": "string", "minLength": 1},
          "channels": {"type": "integer", "minimum": 1},
          "sample_rate": {"type": "number", "exclusiveMinimum": 0},
          "reliability": {"type": "number", "minimum": 0, "maximum": 1},
          "simulate": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "base_level": {"type": "number"},
              "noise_sigma": {"type": "number", "minimum": 0},
              "drift_per_sample": {"type": "number"},
              "sine_amplitude": {"type": "number", "minimum": 0},
              "sine_frequency": {"type": "number", "minimum": 0},
              "spike_every_n": {"type": "integer", "minimum": 0},
              "spike_magnitude": {"type": "number"},
              "dropout_rate": {"type": "number", "minimum": 0, "maximum": 1},
              "disconnect_every_n": {"type": "integer", "minimum": 0},
              "seed": {"type": "integer"}
            }
          }
        }
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {"type": "boolean"},
        "port": {"type": "integer", "minimum": 1, "maximum": 65535},
        "path": {"type": "string"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
        "format": {"type": "string", "enum": ["text", "json"]}
      }
    }
  }
}`

// validateAgainstSchema checks a decoded config document against the schema
func validateAgainstSchema(document map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(configSchema)
	documentLoader := gojsonschema.NewGoLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return errors.WrapFatal(err, "Config", "validateAgainstSchema", "run schema validation")
	}

	if !result.Valid() {
		errMsg := "config schema validation failed:"
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("\n  - %s: %s", desc.Field(), desc.Description())
		}
		return errors.WrapFatal(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, errMsg),
			"Config", "validateAgainstSchema", "validate config document")
	}

	return nil
}
