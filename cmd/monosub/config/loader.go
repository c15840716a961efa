// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultPath returns ~/.monosub/monosub.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".monosub", "monosub.yaml"), nil
}

// Load reads the configuration at path, creating it with defaults when it
// does not exist. An empty path means DefaultPath.
//
// Outputs:
//   - MonosubConfig: Parsed configuration with defaults applied to fields
//     the file leaves out.
//   - bool: True when the file was created by this call.
//   - error: Read, parse or validation failure. Validation errors match
//     ErrInvalid.
func Load(path string) (MonosubConfig, bool, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return MonosubConfig{}, false, err
		}
		path = p
	}

	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return MonosubConfig{}, false, err
		}
		created = true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return MonosubConfig{}, created, fmt.Errorf("failed to read the config file: %w", err)
	}
	cfg, err := Parse(data)
	return cfg, created, err
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (MonosubConfig, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return MonosubConfig{}, fmt.Errorf("failed to parse the config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return MonosubConfig{}, err
	}
	return cfg, nil
}

// Validate checks struct tags and the search schedule.
func Validate(cfg MonosubConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := cfg.Search.Validate(); err != nil {
		return fmt.Errorf("%w: search: %v", ErrInvalid, err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func createDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
