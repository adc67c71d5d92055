// Package report serializes captured profiler timelines into
// trace-viewer-compatible files.
//
// Two formats are supported, selected by the output file extension:
//
//   - ".json": an aggregated trace profile document (object envelope with
//     process/thread metadata events), loadable by chrome://tracing and
//     Perfetto.
//   - anything else (canonically ".trace"): a raw trace-events array, with
//     records from registered external trace files merged in verbatim.
package report

import (
	"time"

	"github.com/tracelite-io/tracelite/internal/traceevent"
)

// Section is one closed timed section as captured by the profiler.
type Section struct {
	Label    string
	Details  string
	Start    int64 // microseconds since the process epoch
	Duration int64 // microseconds
}

// Thread is the recorded timeline of one thread of execution.
type Thread struct {
	ID       int64
	Name     string
	Sections []Section
}

// Report is the full input to a report write: every captured thread plus
// process metadata and auxiliary event sources.
type Report struct {
	ProcessName string
	SortIndex   int
	RunID       string
	RecordedAt  time.Time

	Threads []Thread

	// Counters are pre-built counter events sampled during the run.
	Counters []traceevent.Event

	// ExternalFiles are paths to trace-event files whose records are
	// merged into the raw output stream unmodified.
	ExternalFiles []string
}
