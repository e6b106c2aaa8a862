// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the topic tree service.
type Config struct {
	Tree      TreeConfig      `yaml:"tree"`
	Log       LogConfig       `yaml:"log"`
	Storage   StorageConfig   `yaml:"storage"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TreeConfig holds the topic tree tuning knobs.
type TreeConfig struct {
	// Children kept in an array before a node switches to a map
	ChildIndexThreshold int `yaml:"child_index_threshold"`
	// Non-shared subscribers kept in an array before a store switches to a map
	SubscriberIndexThreshold int `yaml:"subscriber_index_threshold"`
	// Number of lock stripes, rounded up to a power of two
	LockStripes int `yaml:"lock_stripes"`
	// Longest accepted topic filter, in levels
	MaxSegments int `yaml:"max_segments"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// StorageConfig holds storage backend configuration.
type StorageConfig struct {
	Type string `yaml:"type"` // memory, badger

	// BadgerDB settings
	BadgerDir  string `yaml:"badger_dir"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// BootstrapConfig controls how persisted subscriptions are loaded on startup.
type BootstrapConfig struct {
	Workers int `yaml:"workers"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Endpoint        string  `yaml:"endpoint"` // OTLP gRPC endpoint
	ServiceName     string  `yaml:"service_name"`
	ServiceVersion  string  `yaml:"service_version"`
	MetricsEnabled  bool    `yaml:"metrics_enabled"`
	TracesEnabled   bool    `yaml:"traces_enabled"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"` // 0.0 to 1.0
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Tree: TreeConfig{
			ChildIndexThreshold:      16,
			SubscriberIndexThreshold: 16,
			LockStripes:              64,
			MaxSegments:              1000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			Type:      "memory",
			BadgerDir: "/tmp/topictree/data",
		},
		Bootstrap: BootstrapConfig{
			Workers: 8,
		},
		Telemetry: TelemetryConfig{
			Enabled:         false,
			Endpoint:        "localhost:4317",
			ServiceName:     "topictree",
			ServiceVersion:  "1.0.0",
			MetricsEnabled:  true,
			TracesEnabled:   false,
			TraceSampleRate: 0.1,
		},
	}
}

// Load loads configuration from a YAML file.
// If the file doesn't exist, returns default configuration.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Tree.ChildIndexThreshold < 1 {
		return fmt.Errorf("tree.child_index_threshold must be at least 1")
	}
	if c.Tree.SubscriberIndexThreshold < 1 {
		return fmt.Errorf("tree.subscriber_index_threshold must be at least 1")
	}
	if c.Tree.LockStripes < 1 || c.Tree.LockStripes > 1<<16 {
		return fmt.Errorf("tree.lock_stripes must be between 1 and 65536")
	}
	if c.Tree.MaxSegments < 1 {
		return fmt.Errorf("tree.max_segments must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be one of: text, json")
	}

	switch c.Storage.Type {
	case "memory":
	case "badger":
		if c.Storage.BadgerDir == "" {
			return fmt.Errorf("storage.badger_dir required when storage type is badger")
		}
	default:
		return fmt.Errorf("storage.type must be one of: memory, badger")
	}

	if c.Bootstrap.Workers < 1 {
		return fmt.Errorf("bootstrap.workers must be at least 1")
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("telemetry.endpoint required when telemetry is enabled")
		}
		if c.Telemetry.ServiceName == "" {
			return fmt.Errorf("telemetry.service_name cannot be empty")
		}
		if c.Telemetry.TraceSampleRate < 0 || c.Telemetry.TraceSampleRate > 1 {
			return fmt.Errorf("telemetry.trace_sample_rate must be between 0.0 and 1.0")
		}
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
