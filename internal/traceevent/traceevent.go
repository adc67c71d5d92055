// Package traceevent models the Chrome Trace Event Format (TEF) subset
// emitted and consumed by tracelite.
//
// The format is documented at
// https://docs.google.com/document/d/1CvAClvFfyA5R-PhYUmn5OOQtYMH4h6I0nSsKchNAySU
// and is rendered by chrome://tracing, Perfetto and speedscope. Timestamps
// and durations are microseconds.
package traceevent

// Phase is the single-character event type tag.
type Phase string

// Event phases used by tracelite.
const (
	PhaseComplete Phase = "X"
	PhaseBegin    Phase = "B"
	PhaseEnd      Phase = "E"
	PhaseCounter  Phase = "C"
	PhaseMetadata Phase = "M"
)

// Metadata event names recognized by trace viewers.
const (
	MetaProcessName      = "process_name"
	MetaProcessSortIndex = "process_sort_index"
	MetaThreadName       = "thread_name"
)

// Event is one record in a trace-events stream.
type Event struct {
	Name      string         `json:"name"`
	Category  string         `json:"cat,omitempty"`
	Phase     Phase          `json:"ph"`
	Timestamp int64          `json:"ts"`
	Duration  int64          `json:"dur,omitempty"`
	ProcessID int64          `json:"pid"`
	ThreadID  int64          `json:"tid"`
	Args      map[string]any `json:"args,omitempty"`
}

// File is the JSON object envelope of a trace file. The alternative
// representation is a bare JSON array of events.
type File struct {
	TraceEvents []Event `json:"traceEvents"`
	// DisplayTimeUnit selects the unit trace viewers display ("ms" or "ns").
	DisplayTimeUnit string         `json:"displayTimeUnit,omitempty"`
	OtherData       map[string]any `json:"otherData,omitempty"`
}

// NewCompleteEvent builds a complete ("X") event for one timed section.
func NewCompleteEvent(name string, ts, dur, pid, tid int64, args map[string]any) Event {
	return Event{
		Name:      name,
		Phase:     PhaseComplete,
		Timestamp: ts,
		Duration:  dur,
		ProcessID: pid,
		ThreadID:  tid,
		Args:      args,
	}
}

// NewCounterEvent builds a counter ("C") event carrying one or more series
// values in args.
func NewCounterEvent(name string, ts, pid, tid int64, values map[string]any) Event {
	return Event{
		Name:      name,
		Phase:     PhaseCounter,
		Timestamp: ts,
		ProcessID: pid,
		ThreadID:  tid,
		Args:      values,
	}
}

// NewMetadataEvent builds a metadata ("M") event. Trace viewers use
// process_name, process_sort_index and thread_name metadata to label and
// order timeline rows.
func NewMetadataEvent(name string, pid, tid int64, args map[string]any) Event {
	return Event{
		Name:      name,
		Phase:     PhaseMetadata,
		ProcessID: pid,
		ThreadID:  tid,
		Args:      args,
	}
}
