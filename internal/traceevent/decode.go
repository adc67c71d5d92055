package traceevent

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeRaw parses trace-event data into its raw records without
// interpreting them. Both on-disk layouts are accepted: a bare JSON array
// of events, or an object envelope with a "traceEvents" field. Records are
// returned verbatim so that merging trace files never alters events
// produced by other tools.
func DecodeRaw(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '[':
		var events []json.RawMessage
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, fmt.Errorf("invalid trace-event array: %w", err)
		}
		return events, nil
	case '{':
		var envelope struct {
			TraceEvents []json.RawMessage `json:"traceEvents"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, fmt.Errorf("invalid trace file envelope: %w", err)
		}
		return envelope.TraceEvents, nil
	default:
		return nil, fmt.Errorf("trace data is neither a JSON array nor an object")
	}
}

// Decode parses trace-event data into typed events, accepting the same
// layouts as DecodeRaw. Unknown fields are dropped.
func Decode(data []byte) ([]Event, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(raw))
	for i, msg := range raw {
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			return nil, fmt.Errorf("invalid trace event at index %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// EncodeRaw serializes raw records as a bare JSON array, one record per
// line. The streaming layout keeps large traces diffable and lets tools
// append to the stream.
func EncodeRaw(records []json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("[\n")
	for i, rec := range records {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.Write(rec)
	}
	buf.WriteString("\n]\n")

	// Validate before handing the bytes to the caller. A corrupt external
	// record must fail the write, not poison the output file.
	if !json.Valid(buf.Bytes()) {
		return nil, fmt.Errorf("merged trace stream is not valid JSON")
	}
	return buf.Bytes(), nil
}
