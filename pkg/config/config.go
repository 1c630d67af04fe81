// Package config provides configuration loading and management for sigmatem.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sigmatem/pkg/dataset"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Calibration is applied to the energy axis of every spectral dataset
	Calibration dataset.Calibration `yaml:"calibration"`

	// Lines are the X-ray lines of interest set after loading, e.g. Fe_Ka
	Lines []string `yaml:"lines"`

	// Processing parameters
	Processing struct {
		// TrimInvalidTail removes the unfilled rows of interrupted scans
		TrimInvalidTail bool `yaml:"trimInvalidTail"`

		// BinFactor is the spatial block size for binning; 0 or 1 disables it
		BinFactor int `yaml:"binFactor"`
	} `yaml:"processing"`

	// Output parameters
	Output struct {
		// PreviewFile receives a grayscale preview when set
		PreviewFile string `yaml:"previewFile"`

		// ExportFile receives the processed spectrum map when set
		ExportFile string `yaml:"exportFile"`

		// Verbose prints the dataset summary
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`

	// Logging parameters
	Logging struct {
		// Level is a zerolog level name
		Level string `yaml:"level"`

		// Console selects human readable output over JSON
		Console bool `yaml:"console"`
	} `yaml:"logging"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Calibration = dataset.DefaultCalibration()
	cfg.Lines = []string{}

	cfg.Processing.TrimInvalidTail = false
	cfg.Processing.BinFactor = 0

	cfg.Output.Verbose = true

	cfg.Logging.Level = "info"
	cfg.Logging.Console = true

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
