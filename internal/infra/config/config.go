// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	DataDir string        `yaml:"data_dir" default:"~/.playdeck"`
	Library LibraryConfig `yaml:"library"`
	Store   StoreConfig   `yaml:"store"`
	Player  PlayerConfig  `yaml:"player"`
	Log     LogConfig     `yaml:"log"`
}

// LibraryConfig represents library import configuration.
type LibraryConfig struct {
	// KeepBlobs stores the raw audio bytes of imported files in the
	// catalog alongside their metadata.
	KeepBlobs bool `yaml:"keep_blobs" default:"true"`
	// CoverDir is where extracted cover images are written.
	// Defaults to <data_dir>/covers.
	CoverDir string `yaml:"cover_dir"`
}

// StoreConfig represents catalog store configuration.
type StoreConfig struct {
	Backend  string         `yaml:"backend" default:"sqlite" validate:"oneof=sqlite yaml"`
	Settings map[string]any `yaml:"settings"`
}

// PlayerConfig represents playback control configuration.
type PlayerConfig struct {
	VolumeStep  float64 `yaml:"volume_step" default:"0.1" validate:"gt=0,lte=1"`
	SeekStepSec int     `yaml:"seek_step_sec" default:"5" validate:"gt=0,lte=60"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stderr"`
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File   string `yaml:"file"`
}

// Load loads configuration from a YAML file. A missing file is not an
// error: the defaults describe a fully working local player.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("PLAYDECK_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PLAYDECK_STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("PLAYDECK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// expandPaths expands the home tilde and fills in derived path defaults.
func (c *Config) expandPaths() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, "failed to resolve home directory")
	}
	c.DataDir = strings.Replace(c.DataDir, "~", home, 1)

	if c.Library.CoverDir == "" {
		c.Library.CoverDir = filepath.Join(c.DataDir, "covers")
	} else {
		c.Library.CoverDir = strings.Replace(c.Library.CoverDir, "~", home, 1)
	}

	if c.Store.Settings == nil {
		c.Store.Settings = map[string]any{}
	}
	if _, ok := c.Store.Settings["path"]; !ok {
		switch c.Store.Backend {
		case "yaml":
			c.Store.Settings["path"] = filepath.Join(c.DataDir, "catalog.yaml")
		default:
			c.Store.Settings["path"] = filepath.Join(c.DataDir, "catalog.db")
		}
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// EnsureDirs creates the data and cover directories if needed.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.Library.CoverDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}
