// Package config provides the scripting bridge's file-based configuration.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults mirror the conventional asset layout: hook scripts under the
// scripts root, filter scripts one level below it.
const (
	DefaultScriptsPath = "assets/scripts"
	DefaultFiltersPath = "assets/scripts/filters"
	DefaultExtension   = ".lua"
)

// Config holds the directories and extension the bridge works with.
type Config struct {
	// ScriptsPath is the root directory for hook scripts, resolved by
	// logical name.
	ScriptsPath string `yaml:"scripts_path" validate:"required"`

	// FiltersPath is the directory holding filter scripts. Only files
	// directly inside it are registered.
	FiltersPath string `yaml:"filters_path" validate:"required"`

	// Extension is the recognized script file extension, dot included.
	Extension string `yaml:"extension" validate:"required,startswith=."`
}

// Default returns the conventional configuration.
func Default() Config {
	return Config{
		ScriptsPath: DefaultScriptsPath,
		FiltersPath: DefaultFiltersPath,
		Extension:   DefaultExtension,
	}
}

var validate = validator.New()

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Load reads a YAML configuration file, filling unset fields from the
// defaults, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
