// Package config loads the YAML simulation configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the simulator configuration for a single 5-stage
// pipeline hart ticking against a modeled RAM.
type Config struct {
	// Run control
	CycleCap      int64  `yaml:"cycleCap"`      // hard stop, regardless of termination PC
	TerminationPC uint32 `yaml:"terminationPC"` // PC observed to mean "program finished"
	WarmupCycles  int64  `yaml:"warmupCycles"`  // minimum cycles before terminationPC is honored
	TraceLevel    string `yaml:"traceLevel"`    // none, summary, full

	// Memory
	RAMSize int `yaml:"ramSize"` // bytes

	// Reference vector-add workload (§8 scenario S3)
	VectorLength int    `yaml:"vectorLength"`
	BaseA        uint32 `yaml:"baseA"`
	BaseB        uint32 `yaml:"baseB"`
	BaseC        uint32 `yaml:"baseC"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// validateConfig checks if the configuration is valid.
func validateConfig(cfg *Config) error {
	if cfg.CycleCap <= 0 {
		return fmt.Errorf("cycle cap must be positive")
	}

	if cfg.RAMSize <= 0 {
		return fmt.Errorf("RAM size must be positive")
	}

	if cfg.VectorLength < 0 {
		return fmt.Errorf("vector length must not be negative")
	}

	validTraceLevels := map[string]bool{"none": true, "summary": true, "full": true}
	if !validTraceLevels[cfg.TraceLevel] {
		return fmt.Errorf("unsupported trace level: %s", cfg.TraceLevel)
	}

	return nil
}

// DefaultConfig returns a default configuration sized for the reference
// vector-add program (§8 scenario S3).
func DefaultConfig() *Config {
	return &Config{
		CycleCap:      100000,
		TerminationPC: 0, // computed by the driver once the program is assembled
		WarmupCycles:  10,
		TraceLevel:    "summary",

		RAMSize: 4096,

		VectorLength: 256,
		BaseA:        256,
		BaseB:        1280,
		BaseC:        2304,
	}
}
