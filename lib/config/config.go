// Copyright 2026 The Mediaembed Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Environment represents the build environment.
type Environment string

const (
	// Development is for local authoring: fast archives, debug-friendly
	// defaults.
	Development Environment = "development"
	// Production is for published builds.
	Production Environment = "production"
)

// Config is the master configuration for mediaembed.
type Config struct {
	// Environment selects which override section applies.
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Layout configures computed frame dimensions.
	Layout LayoutConfig `yaml:"layout"`

	// Defaults are the presentation options applied when a directive
	// does not set them.
	Defaults DefaultsConfig `yaml:"defaults"`

	// Highlight configures the highlight viewer.
	Highlight HighlightConfig `yaml:"highlight"`

	// Archive configures runtime bundle compression.
	Archive ArchiveConfig `yaml:"archive"`

	// Per-environment overrides, applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths     *PathsConfig     `yaml:"paths,omitempty"`
	Layout    *LayoutConfig    `yaml:"layout,omitempty"`
	Defaults  *DefaultsConfig  `yaml:"defaults,omitempty"`
	Highlight *HighlightConfig `yaml:"highlight,omitempty"`
	Archive   *ArchiveConfig   `yaml:"archive,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Source is the root of the authoring tree. Local src references
	// resolve against it.
	Source string `yaml:"source"`

	// Output is where rendered documents and published artifacts go.
	Output string `yaml:"output"`

	// Staging is the scratch directory for synthesized artifacts.
	// Shared by concurrent builds; artifact names are random.
	Staging string `yaml:"staging"`
}

// LayoutConfig configures computed heights.
type LayoutConfig struct {
	// LineHeight is the height of one code line in CSS pixels.
	// Default: 15
	LineHeight int `yaml:"line_height"`

	// FrameOffset is added to the computed height of viewers framed by
	// a client-side runtime.
	// Default: 200
	FrameOffset int `yaml:"frame_offset"`
}

// DefaultsConfig holds presentation option defaults.
type DefaultsConfig struct {
	Type   string `yaml:"type"`
	Viewer string `yaml:"viewer"`
	Theme  string `yaml:"theme"`
	Keep   string `yaml:"keep"`
}

// HighlightConfig names the chroma styles for each theme.
type HighlightConfig struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
}

// ArchiveConfig configures runtime bundles.
type ArchiveConfig struct {
	// Level is the deflate level, -1 (default) or 1 through 9.
	// Pointer so an override can distinguish "unset" from 0 (store).
	Level *int `yaml:"level"`
}

// DeflateLevel returns the configured level, or -1 when unset.
func (a ArchiveConfig) DeflateLevel() int {
	if a.Level == nil {
		return -1
	}
	return *a.Level
}

// Default returns the default configuration. These defaults are the
// base the config file is merged onto.
func Default() *Config {
	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Source:  ".",
			Output:  filepath.Join("_build", "html"),
			Staging: "_tmp",
		},
		Layout: LayoutConfig{
			LineHeight:  15,
			FrameOffset: 200,
		},
		Defaults: DefaultsConfig{
			Type:   "code",
			Viewer: "th_hack",
			Theme:  "light",
			Keep:   "never",
		},
		Highlight: HighlightConfig{
			Light: "github",
			Dark:  "monokai",
		},
	}
}

// Load loads configuration from the MEDIAEMBED_CONFIG environment
// variable. There is no fallback: if the variable is unset, Load fails.
func Load() (*Config, error) {
	configPath := os.Getenv("MEDIAEMBED_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("MEDIAEMBED_CONFIG environment variable not set; " +
			"set it to the path of your mediaembed.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Environment
// variables do not override config values; the only expansion performed
// is ${VAR} and ${VAR:-default} in path fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production defaults: published bundles are compressed hardest.
		if overrides == nil {
			best := 9
			overrides = &ConfigOverrides{
				Archive: &ArchiveConfig{Level: &best},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Source != "" {
			c.Paths.Source = overrides.Paths.Source
		}
		if overrides.Paths.Output != "" {
			c.Paths.Output = overrides.Paths.Output
		}
		if overrides.Paths.Staging != "" {
			c.Paths.Staging = overrides.Paths.Staging
		}
	}

	if overrides.Layout != nil {
		if overrides.Layout.LineHeight != 0 {
			c.Layout.LineHeight = overrides.Layout.LineHeight
		}
		if overrides.Layout.FrameOffset != 0 {
			c.Layout.FrameOffset = overrides.Layout.FrameOffset
		}
	}

	if overrides.Defaults != nil {
		if overrides.Defaults.Type != "" {
			c.Defaults.Type = overrides.Defaults.Type
		}
		if overrides.Defaults.Viewer != "" {
			c.Defaults.Viewer = overrides.Defaults.Viewer
		}
		if overrides.Defaults.Theme != "" {
			c.Defaults.Theme = overrides.Defaults.Theme
		}
		if overrides.Defaults.Keep != "" {
			c.Defaults.Keep = overrides.Defaults.Keep
		}
	}

	if overrides.Highlight != nil {
		if overrides.Highlight.Light != "" {
			c.Highlight.Light = overrides.Highlight.Light
		}
		if overrides.Highlight.Dark != "" {
			c.Highlight.Dark = overrides.Highlight.Dark
		}
	}

	if overrides.Archive != nil && overrides.Archive.Level != nil {
		c.Archive.Level = overrides.Archive.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"MEDIAEMBED_SOURCE": c.Paths.Source,
		"HOME":              os.Getenv("HOME"),
	}

	c.Paths.Source = expandVars(c.Paths.Source, vars)
	vars["MEDIAEMBED_SOURCE"] = c.Paths.Source // Update for dependent paths.

	c.Paths.Output = expandVars(c.Paths.Output, vars)
	c.Paths.Staging = expandVars(c.Paths.Staging, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Output == "" {
		errs = append(errs, fmt.Errorf("paths.output is required"))
	}
	if c.Paths.Staging == "" {
		errs = append(errs, fmt.Errorf("paths.staging is required"))
	}

	if c.Layout.LineHeight <= 0 {
		errs = append(errs, fmt.Errorf("layout.line_height must be positive"))
	}
	if c.Layout.FrameOffset < 0 {
		errs = append(errs, fmt.Errorf("layout.frame_offset must not be negative"))
	}

	themes := []string{"light", "dark"}
	if !contains(themes, c.Defaults.Theme) {
		errs = append(errs, fmt.Errorf("defaults.theme must be one of: %v", themes))
	}

	if level := c.Archive.DeflateLevel(); level < -1 || level > 9 {
		errs = append(errs, fmt.Errorf("archive.level must be between -1 and 9, got %d", level))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the output and staging directories.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Output, c.Paths.Staging} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
