package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/c360/sensorfuse/errors"
)

// Load reads, schema-validates, and decodes a YAML configuration file.
// Defaults are applied to unset fields before semantic validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapFatal(err, "Config", "Load",
			fmt.Sprintf("read config file %s", path))
	}

	return Parse(data)
}

// Parse decodes YAML configuration bytes. Exposed separately so tests and
// embedded configs can skip the filesystem.
func Parse(data []byte) (*Config, error) {
	// Decode generically first so the document can be schema-checked with
	// field-level error messages before struct decoding discards unknowns.
	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Parse", "decode YAML document")
	}

	if document != nil {
		if err := validateAgainstSchema(document); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapFatal(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Parse", "decode config struct")
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
