package store

import (
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
)

// Config selects and configures a store backend.
type Config struct {
	Backend  string         // "sqlite" or "yaml"
	Settings map[string]any // Backend-specific settings
}

// sqliteSettings are the settings for the sqlite backend.
type sqliteSettings struct {
	Path string `mapstructure:"path"`
}

// yamlSettings are the settings for the yaml backend.
type yamlSettings struct {
	Path string `mapstructure:"path"`
}

// New opens the store described by cfg.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "sqlite", "":
		var settings sqliteSettings
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid sqlite store settings")
		}
		if settings.Path == "" {
			return nil, errors.New("sqlite store requires a path setting")
		}
		return OpenSQLite(settings.Path)

	case "yaml":
		var settings yamlSettings
		if err := mapstructure.Decode(cfg.Settings, &settings); err != nil {
			return nil, errors.Wrap(err, "invalid yaml store settings")
		}
		if settings.Path == "" {
			return nil, errors.New("yaml store requires a path setting")
		}
		return OpenYAML(settings.Path)

	default:
		return nil, errors.Newf("unknown store backend: %s", cfg.Backend)
	}
}
