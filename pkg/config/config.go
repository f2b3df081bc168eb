// Package config loads the recipekeeper configuration from a YAML file with
// environment-variable overrides for the Notion credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Notion holds the external workspace credentials.
type Notion struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

// Import holds batch-import tuning.
type Import struct {
	Workers int `yaml:"workers"`
}

// Config is the full tool configuration.
type Config struct {
	// DB is the SQLite database path.
	DB     string `yaml:"db"`
	Notion Notion `yaml:"notion"`
	Import Import `yaml:"import"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		DB:     "recipes.db",
		Import: Import{Workers: 4},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".recipekeeper.yaml"
	}
	return filepath.Join(home, ".recipekeeper.yaml")
}

// Load reads the config at path, or the default location when path is empty.
// A missing file at the default location is not an error; a missing file at
// an explicitly given path is. NOTION_TOKEN and NOTION_DATABASE_ID override
// file values in either case.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// Defaults only.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("NOTION_TOKEN"); v != "" {
		cfg.Notion.Token = v
	}
	if v := os.Getenv("NOTION_DATABASE_ID"); v != "" {
		cfg.Notion.DatabaseID = v
	}
	if cfg.Import.Workers <= 0 {
		cfg.Import.Workers = Default().Import.Workers
	}
	return cfg, nil
}
