// Package config loads action-set configuration files.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dukex/rowactions/pkg/models"
	"github.com/dukex/rowactions/pkg/ratelimit"
)

// File is the structure of an actions.yaml file.
type File struct {
	RateLimiter ratelimit.Config `yaml:"rate_limiter"`
	Actions     []models.Action  `yaml:"actions"`
}

// Load reads, schema-validates and decodes a configuration file. Raw action
// definitions are checked against the JSON Schema first so typos surface as
// schema errors instead of silently empty fields.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var raw struct {
		RateLimiter map[string]any   `yaml:"rate_limiter"`
		Actions     []map[string]any `yaml:"actions"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	for i, definition := range raw.Actions {
		if err := ValidateActionDefinition(definition); err != nil {
			return nil, fmt.Errorf("action definition %d: %w", i, err)
		}
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	for i := range file.Actions {
		action := &file.Actions[i]

		if err := validate.Struct(action); err != nil {
			return nil, fmt.Errorf("action %q invalid: %w", action.Name, err)
		}

		if err := action.Validate(); err != nil {
			return nil, err
		}
	}

	if err := validate.Struct(file.RateLimiter); err != nil {
		return nil, fmt.Errorf("rate limiter config invalid: %w", err)
	}

	return &file, nil
}
