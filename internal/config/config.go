// Package config provides configuration management for the servicedir
// server.
//
// Config file locations (priority order):
//  1. $SERVICEDIR_CONFIG
//  2. ./servicedir.yaml
//  3. $XDG_CONFIG_HOME/servicedir/config.yaml
//  4. ~/.config/servicedir/config.yaml
//  5. /etc/servicedir/config.yaml
//
// A missing config file is not an error: the server runs on defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load finds and loads the config file, or returns defaults if none found.
// The returned string is the path the config was loaded from, empty when
// defaults were used.
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, path, nil
}
