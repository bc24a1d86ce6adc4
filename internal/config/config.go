// Package config loads the probelink CLI configuration file. Every
// value is a default for the matching command-line flag; flags given
// on the command line always win.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configurable probelink CLI settings.
type Config struct {
	Library        string `yaml:"library"`         // path to the boundary shared library
	Chip           string `yaml:"chip"`            // default target chip name
	Probe          string `yaml:"probe"`           // default VID:PID[:SERIAL] selector
	Protocol       string `yaml:"protocol"`        // "swd" | "jtag"
	SpeedKHz       uint32 `yaml:"speed_khz"`       // wire speed
	ProgrammerType string `yaml:"programmer_type"` // driver family name

	Verify    *bool `yaml:"verify"`
	Preverify *bool `yaml:"preverify"`
	ChipErase *bool `yaml:"chip_erase"`
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		SpeedKHz: 4000,
	}
}

// DefaultPath returns ~/.config/probelink/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "probelink", "config.yaml"), nil
}

// Load reads the config file at path, or the default location when
// path is empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Defaults(), err
		}
		path = p
	}
	return loadFile(path)
}

func loadFile(path string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ParseError{Path: path, Err: err}
	}
	if cfg.SpeedKHz == 0 {
		cfg.SpeedKHz = Defaults().SpeedKHz
	}
	return cfg, nil
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
