// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the monosub configuration file.
//
// The file lives at ~/.monosub/monosub.yaml unless --config names another
// path. On first run the default configuration is written there.
package config

import (
	"time"

	"github.com/AleutianAI/monosub/services/cipher/session"
	"github.com/AleutianAI/monosub/services/cipher/telemetry"
)

// CurrentConfigVersion is written to new configuration files.
const CurrentConfigVersion = "1"

// MonosubConfig is the root of monosub.yaml.
type MonosubConfig struct {
	Meta       MetaConfig       `yaml:"meta"`
	Search     session.Config   `yaml:"search"`
	Dictionary DictionaryConfig `yaml:"dictionary"`
	History    HistoryConfig    `yaml:"history"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Telemetry  telemetry.Config `yaml:"telemetry"`
}

// MetaConfig records the file format version.
type MetaConfig struct {
	Version string `yaml:"version"`
}

// DictionaryConfig selects the scoring word list.
type DictionaryConfig struct {
	// Path is a word list file. Empty uses the built-in list.
	Path string `yaml:"path,omitempty"`

	// Watch reloads Path when it changes while serving.
	Watch bool `yaml:"watch"`
}

// HistoryConfig controls the search history database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// Path is the BadgerDB directory. A leading ~ expands to home.
	Path string `yaml:"path" validate:"required_if=Enabled true"`

	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration `yaml:"gc_interval" validate:"gte=0"`
}

// ServerConfig configures `monosub serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
}

// LoggingConfig configures the slog logger.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Dir   string `yaml:"dir,omitempty"`
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() MonosubConfig {
	return MonosubConfig{
		Meta:   MetaConfig{Version: CurrentConfigVersion},
		Search: session.DefaultConfig(),
		History: HistoryConfig{
			Enabled:    true,
			Path:       "~/.monosub/history",
			GCInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8089",
			ShutdownTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.monosub/logs",
		},
		Telemetry: telemetry.DefaultConfig(),
	}
}
