package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the configuration file name.
const DefaultConfigFile = "golddust.yaml"

// LoadConfigFile reads path on top of the defaults and validates the result.
// Omitted keys keep their NewConfig value, so a file without a backends
// section registers both families. A missing file yields ErrConfigNotFound.
// Unknown keys are rejected.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := NewConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindConfigFile returns the configuration file to load, searching:
//  1. configPath, when given
//  2. golddust.yaml in the current directory
//  3. golddust.yaml in XDGConfigDir
//
// It returns "" when nothing exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	p := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

// Load locates and loads the configuration. configPath is the --config flag value.
func Load(configPath string) (*Config, string, error) {
	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, "", fmt.Errorf("%w: run 'golddust init' to create %s", ErrConfigNotFound, DefaultConfigFile)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
