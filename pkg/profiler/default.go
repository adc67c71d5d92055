package profiler

import (
	"time"

	"github.com/rs/zerolog"
)

// std is the process-wide default instance used by the package-level
// functions. Most applications instrument against it; construct an owned
// instance with New when isolation is needed (e.g. tests).
var std = New(Options{})

// Default returns the package-level profiler instance.
func Default() *Profiler { return std }

// SetDefaultLogger replaces the default instance's logger. Call once during
// startup, before instrumentation begins.
func SetDefaultLogger(logger zerolog.Logger) {
	std.logger = logger.With().Str("component", "profiler").Logger()
}

// SetDefaultCounterInterval enables runtime counter sampling on the default
// instance for subsequent runs. Zero disables it.
func SetDefaultCounterInterval(interval time.Duration) {
	std.counterInterval = interval
}

// Begin opens a section on the default instance.
func Begin(label string) *Span { return std.Begin(label) }

// BeginDetailed opens a section with free-form details on the default instance.
func BeginDetailed(label, details string) *Span { return std.BeginDetailed(label, details) }

// ConfigureOutput sets the report destination on the default instance.
func ConfigureOutput(path, processName string, sortIndex int) {
	std.ConfigureOutput(path, processName, sortIndex)
}

// AddExternalTraceEventFile registers an external trace file on the default instance.
func AddExternalTraceEventFile(path string) { std.AddExternalTraceEventFile(path) }

// CaptureSnapshot snapshots the default instance's thread contexts.
func CaptureSnapshot() []*ThreadContext { return std.CaptureSnapshot() }

// CurrentThreadSections returns the calling goroutine's live section log on
// the default instance.
func CurrentThreadSections() []Section { return std.CurrentThreadSections() }

// NameCurrentThread names the calling goroutine's timeline row on the default instance.
func NameCurrentThread(name string) { std.NameCurrentThread(name) }

// Finish ends the current run on the default instance.
func Finish() error { return std.Finish() }
