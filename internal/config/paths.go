package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path
	EnvConfigPath = "SERVICEDIR_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "servicedir.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "servicedir"
)

// FindConfigPath searches for a config file in priority order:
// 1. $SERVICEDIR_CONFIG (explicit path)
// 2. ./servicedir.yaml (working directory)
// 3. $XDG_CONFIG_HOME/servicedir/config.yaml
// 4. ~/.config/servicedir/config.yaml
// 5. /etc/servicedir/config.yaml
//
// Returns empty string if no config file found
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		path := filepath.Join(xdgHome, ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	if home := os.Getenv("HOME"); home != "" {
		path := filepath.Join(home, ".config", ConfigDirName, "config.yaml")
		if fileExists(path) {
			return path
		}
	}

	systemPath := filepath.Join("/etc", ConfigDirName, "config.yaml")
	if fileExists(systemPath) {
		return systemPath
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
