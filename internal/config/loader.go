package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tracelite-io/tracelite/internal/constants"
)

// Loader resolves and loads the tracelite configuration file.
type Loader struct {
	baseDir string
}

// NewLoader creates a config loader. The base directory is resolved in
// this order:
//  1. TRACELITE_CONFIG environment variable.
//  2. User home directory.
//  3. /tmp/tracelite-fallback (containerized environments without a home).
//
// The loader never fails to construct; without a config file, Load returns
// defaults with env overrides applied.
func NewLoader() *Loader {
	if baseDir := os.Getenv(constants.EnvConfigDir); baseDir != "" {
		return &Loader{baseDir: baseDir}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		return &Loader{baseDir: homeDir}
	}

	return &Loader{baseDir: "/tmp/tracelite-fallback"}
}

// ConfigPath returns the path to the config file.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.baseDir, constants.DefaultDir, constants.ConfigFile)
}

// Load reads the configuration, returning defaults if the file does not
// exist, and applies environment variable overrides on top.
func (l *Loader) Load() (*Config, error) {
	path := l.ConfigPath()

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		//nolint:gosec // G304: Path is from the trusted config directory.
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to the config file, creating the directory
// if needed.
func (l *Loader) Save(cfg *Config) error {
	path := l.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
