// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the crucible YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/crucible/services/route/grid"
	"github.com/AleutianAI/crucible/services/route/policy"
)

// EnvConfigPath names the environment variable holding the config path.
const EnvConfigPath = "CRUCIBLE_CONFIG"

// ErrInvalidConfig is returned when a loaded config fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level crucible configuration.
type Config struct {
	Policy    policy.Spec     `yaml:"policy"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// SearchConfig tunes the search driver.
type SearchConfig struct {
	// StartHeadings seeds the initial heading of the start state.
	StartHeadings []grid.Heading `yaml:"start_headings" validate:"required,min=1,max=4"`

	// MaxExpansions caps closed states per search. 0 is unlimited.
	MaxExpansions int `yaml:"max_expansions" validate:"gte=0"`

	// Workers bounds concurrent searches for multi-start solves.
	Workers int `yaml:"workers" validate:"gte=1,lte=64"`

	// Timeout bounds a single solve. 0 is unlimited.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
}

// CacheConfig selects the result store.
type CacheConfig struct {
	Backend  string        `yaml:"backend" validate:"oneof=none memory badger tiered"`
	Capacity int           `yaml:"capacity" validate:"gte=0"`
	Path     string        `yaml:"path"`
	TTL      time.Duration `yaml:"ttl" validate:"gte=0"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required"`

	// RateLimit is the sustained solve rate per second. 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst     int     `yaml:"burst" validate:"gte=0"`

	// MaxGridBytes bounds the size of a grid accepted over HTTP.
	MaxGridBytes int `yaml:"max_grid_bytes" validate:"gt=0"`
}

// LoggingConfig configures pkg/logging.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	JSON   bool   `yaml:"json"`
	LogDir string `yaml:"log_dir"`
}

// TelemetryConfig configures OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" validate:"required"`
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" validate:"required_if=TraceExporter otlp"`
}

var validate = validator.New()

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	spec, _ := policy.Lookup("crucible")
	return Config{
		Policy: spec,
		Search: SearchConfig{
			StartHeadings: []grid.Heading{grid.East},
			Workers:       8,
			Timeout:       30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:  "memory",
			Capacity: 256,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			RateLimit:    20,
			Burst:        40,
			MaxGridBytes: 4 << 20,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "crucible",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
		},
	}
}

// Validate checks the struct tags and the policy spec.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load reads the configuration.
//
// Description:
//
//	Starts from DefaultConfig and overlays the YAML file at path. When
//	path is empty, $CRUCIBLE_CONFIG is used; when that is empty too, the
//	defaults are returned unchanged. Fields absent from the file keep
//	their defaults.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Read, parse, or ErrInvalidConfig errors.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read the config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Write marshals c as YAML to path.
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
