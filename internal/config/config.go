// Package config holds the on-disk configuration for the tool: the config
// directory location, the stored-template directory, and the style-name map
// loaded from config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const AppName = "autostyle"

// configFile is the name of the YAML config file inside the config dir.
const configFile = "config.yaml"

// Dir returns the per-user config directory for the tool.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, AppName), nil
}

// EnsureDir creates the config directory if needed and returns its path.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	return dir, nil
}

// StyleMap names the paragraph styles the builder binds to each block kind.
// The names are opaque identifiers that must exist in the merged document
// (or have a fallback, depending on StrictStyles).
type StyleMap struct {
	Title    string `yaml:"title"`
	Heading1 string `yaml:"heading1"`
	Heading2 string `yaml:"heading2"`
	Heading3 string `yaml:"heading3"`
	Body     string `yaml:"body"`
}

// Config is the full tool configuration.
type Config struct {
	// Styles maps block kinds to template style IDs.
	Styles StyleMap `yaml:"styles"`

	// StrictStyles selects the missing-style policy: true fails the
	// conversion when a required style ID is absent from the merged
	// document; false falls back to the built-in default per block kind.
	StrictStyles bool `yaml:"strict_styles"`
}

// Default returns the built-in configuration: Word's standard style IDs
// and the strict missing-style policy.
func Default() Config {
	return Config{
		Styles:       DefaultStyles(),
		StrictStyles: true,
	}
}

// DefaultStyles returns the built-in style-name map.
func DefaultStyles() StyleMap {
	return StyleMap{
		Title:    "Title",
		Heading1: "Heading1",
		Heading2: "Heading2",
		Heading3: "Heading3",
		Body:     "Normal",
	}
}

// Load reads config.yaml from the config directory, layered over Default().
// A missing file is not an error: defaults apply.
func Load() (Config, error) {
	dir, err := Dir()
	if err != nil {
		return Default(), err
	}

	return LoadFile(filepath.Join(dir, configFile))
}

// LoadFile reads a specific config file, layered over Default().
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // config path under user control
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	// Partial style maps keep the defaults for unset names.
	cfg.Styles = fillStyleDefaults(cfg.Styles)

	return cfg, nil
}

// fillStyleDefaults replaces empty entries with the built-in names.
func fillStyleDefaults(m StyleMap) StyleMap {
	defaults := DefaultStyles()

	if m.Title == "" {
		m.Title = defaults.Title
	}

	if m.Heading1 == "" {
		m.Heading1 = defaults.Heading1
	}

	if m.Heading2 == "" {
		m.Heading2 = defaults.Heading2
	}

	if m.Heading3 == "" {
		m.Heading3 = defaults.Heading3
	}

	if m.Body == "" {
		m.Body = defaults.Body
	}

	return m
}
