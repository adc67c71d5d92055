// Package config provides configuration loading for tracelite.
package config

import (
	"time"

	"github.com/tracelite-io/tracelite/internal/constants"
)

// Config is the tracelite configuration, loaded from
// ~/.tracelite/config.yaml with TRACELITE_* environment overrides.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Output   OutputConfig   `yaml:"output"`
	Counters CountersConfig `yaml:"counters"`
}

// LoggingConfig controls diagnostic logging.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level" env:"TRACELITE_LOG_LEVEL"`
	// Pretty enables human-readable console output.
	Pretty bool `yaml:"pretty" env:"TRACELITE_LOG_PRETTY"`
}

// OutputConfig sets where and how reports are written.
type OutputConfig struct {
	// Path is the report destination; the extension selects the format
	// (".json" aggregated profile, anything else raw trace events).
	Path string `yaml:"path" env:"TRACELITE_OUTPUT"`
	// ProcessName annotates the report for trace viewers.
	ProcessName string `yaml:"process_name" env:"TRACELITE_PROCESS_NAME"`
	// SortIndex orders this process among others on a shared timeline.
	SortIndex int `yaml:"sort_index" env:"TRACELITE_SORT_INDEX"`
}

// CountersConfig controls runtime counter sampling during runs.
type CountersConfig struct {
	Enabled  bool          `yaml:"enabled" env:"TRACELITE_COUNTERS"`
	Interval time.Duration `yaml:"interval" env:"TRACELITE_COUNTERS_INTERVAL"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
		Output: OutputConfig{
			Path:        constants.DefaultTraceFile,
			ProcessName: constants.DefaultProcessName,
			SortIndex:   0,
		},
		Counters: CountersConfig{
			Enabled:  false,
			Interval: 100 * time.Millisecond,
		},
	}
}
