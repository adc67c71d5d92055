// Package profiler is a lightweight instrumentation profiler: callers wrap
// interesting code in named sections and the profiler records one nested
// timeline per goroutine, then serializes the run into a
// trace-viewer-compatible file.
//
// It is not a sampling profiler. There is no stack unwinding and no
// aggregation; sections are recorded exactly as opened and exported as-is.
//
// # Usage
//
//	profiler.ConfigureOutput("startup.trace", "loader", 0)
//
//	func LoadAssets() error {
//	    span := profiler.Begin("LoadAssets")
//	    defer span.End()
//	    ...
//	}
//
// Sections may nest on the same goroutine and must close in LIFO order;
// closing out of order is a programming error and panics. The run ends, and
// the report is written, when the goroutine that opened the first section
// closes its last one.
//
// Leaf sections shorter than 1ms that have no recorded children are elided
// to keep reports readable; see ElisionThresholdMicros.
//
// Sections on other goroutines are timestamped against the same process
// epoch so a trace viewer aligns them on one timeline. Configuration calls
// (ConfigureOutput, AddExternalTraceEventFile) are not synchronized against
// each other; serialize them with run boundaries in the harness.
package profiler
