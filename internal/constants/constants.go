// Package constants defines shared configuration constants.
package constants

var (
	ConfigFile = "config.yaml"

	DefaultDir = ".tracelite"

	// DefaultTraceFile is the default output file for raw trace events.
	DefaultTraceFile = "profile.trace"

	// DefaultProcessName is the process name written into reports when no
	// name has been configured.
	DefaultProcessName = "host"

	// EnvPrefix is the prefix for all environment variable overrides.
	EnvPrefix = "TRACELITE_"

	// EnvConfigDir overrides the configuration base directory.
	EnvConfigDir = EnvPrefix + "CONFIG"
)
