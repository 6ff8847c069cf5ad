// Package config provides configuration management for gsearch.
// It handles loading and parsing of the YAML config file and maps
// its values onto the Config struct, falling back to defaults for
// anything the file leaves out.
package config

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Config holds all search box configuration.
type Config struct {
	// Prompt is shown in front of the input line.
	Prompt string `yaml:"prompt"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"logLevel"`

	// Debounce is the quiet period after the last keystroke before
	// suggestions are requested.
	Debounce time.Duration `yaml:"debounce"`

	// FetchTimeout bounds a single suggestion request.
	FetchTimeout time.Duration `yaml:"fetchTimeout"`

	// MaxSuggestions caps how many suggestions are rendered.
	MaxSuggestions int `yaml:"maxSuggestions"`

	// History enables recording accepted searches and suggesting from them.
	History bool `yaml:"history"`

	// Mock configures the simulated suggestion backend.
	Mock MockConfig `yaml:"mock"`

	// Keys rebinds actions by name, e.g. `Dismiss: [esc, ctrl+g]`. Each entry
	// replaces all default keys of that action.
	Keys map[string][]string `yaml:"keys"`
}

// MockConfig configures the simulated, unreliable suggestion backend.
type MockConfig struct {
	// MaxLatency is the upper bound of the random response delay.
	MaxLatency time.Duration `yaml:"maxLatency"`

	// FailureRate is the probability that a request fails.
	FailureRate float64 `yaml:"failureRate"`

	// InclusionRate is the probability that each derived candidate is returned.
	InclusionRate float64 `yaml:"inclusionRate"`

	// Prefix and Suffix decorate the derived candidates.
	Prefix string `yaml:"prefix"`
	Suffix string `yaml:"suffix"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Prompt:         "search> ",
		LogLevel:       "info",
		Debounce:       200 * time.Millisecond,
		FetchTimeout:   2 * time.Second,
		MaxSuggestions: 10,
		History:        true,
		Mock: MockConfig{
			MaxLatency:    200 * time.Millisecond,
			FailureRate:   0.1,
			InclusionRate: 0.5,
			Prefix:        "pre",
			Suffix:        "post",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Debounce < 0 {
		return fmt.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetchTimeout must not be negative, got %s", c.FetchTimeout)
	}
	if c.MaxSuggestions <= 0 {
		return fmt.Errorf("maxSuggestions must be positive, got %d", c.MaxSuggestions)
	}
	if c.Mock.MaxLatency < 0 {
		return fmt.Errorf("mock.maxLatency must not be negative, got %s", c.Mock.MaxLatency)
	}
	if c.Mock.FailureRate < 0 || c.Mock.FailureRate > 1 {
		return fmt.Errorf("mock.failureRate must be within [0, 1], got %g", c.Mock.FailureRate)
	}
	if c.Mock.InclusionRate < 0 || c.Mock.InclusionRate > 1 {
		return fmt.Errorf("mock.inclusionRate must be within [0, 1], got %g", c.Mock.InclusionRate)
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses LogLevel into an atomic zap level.
func (c *Config) ZapLevel() (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	return level, nil
}
