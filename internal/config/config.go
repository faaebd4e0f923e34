// Package config loads optional cpmv settings from a TOML file and CPMV_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "CPMV"

// Config represents the optional cpmv configuration. Unset values are nil.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
	Log      LogConfig      `toml:"log"`
}

// DefaultsConfig holds persistent flag defaults.
type DefaultsConfig struct {
	Verify  *bool   `toml:"verify"`
	Digest  *string `toml:"digest"`
	BWLimit *string `toml:"bwlimit"`
}

// LogConfig holds logging defaults.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// env mirrors Config as flat CPMV_* variables. Fields carry no envconfig
// tag so that unprefixed names like LOG_LEVEL are never consulted.
type env struct {
	Verify   *bool
	Digest   *string
	Bwlimit  *string
	LogLevel *string `split_words:"true"`
	LogFile  *string `split_words:"true"`
}

// Path returns the resolved path to the config file.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "cpmv", "config.toml")
}

// Load reads the config file from the XDG path and applies environment
// overrides on top. A missing file is not an error.
func Load() (Config, error) {
	cfg, err := loadFile(Path())
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var e env
	if err := envconfig.Process(EnvPrefix, &e); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if e.Verify != nil {
		c.Defaults.Verify = e.Verify
	}
	if e.Digest != nil {
		c.Defaults.Digest = e.Digest
	}
	if e.Bwlimit != nil {
		c.Defaults.BWLimit = e.Bwlimit
	}
	if e.LogLevel != nil {
		c.Log.Level = e.LogLevel
	}
	if e.LogFile != nil {
		c.Log.File = e.LogFile
	}
	return nil
}
