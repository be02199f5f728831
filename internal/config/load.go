package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultConfigFile is the config file name looked up in the working
// directory when --config is not given.
const DefaultConfigFile = "flatmove.toml"

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config populated with all default values. This supports zero-config use:
// sources and target on the command line are enough.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the override chain:
// defaults -> config file -> CLI flags.
func Resolve(cli CLIOverrides) (*Config, error) {
	cfgPath := DefaultConfigFile
	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	if cli.Operation != "" {
		cfg.General.Operation = cli.Operation
	}

	if cli.DryRun != nil {
		cfg.General.DryRun = *cli.DryRun
	}

	if cli.Workers != nil {
		cfg.Perf.Workers = *cli.Workers
	}

	// Re-validate after overrides: a flag can introduce a bad value just
	// like the file can.
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}
