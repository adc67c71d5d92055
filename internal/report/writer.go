package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tracelite-io/tracelite/internal/errors"
	"github.com/tracelite-io/tracelite/internal/safe"
	"github.com/tracelite-io/tracelite/internal/traceevent"
)

// Writer serializes reports to disk.
type Writer struct {
	logger zerolog.Logger
	pid    int64
}

// NewWriter creates a report writer. Events it emits carry the current
// process id.
func NewWriter(logger zerolog.Logger) *Writer {
	return &Writer{
		logger: logger.With().Str("component", "report_writer").Logger(),
		pid:    int64(os.Getpid()),
	}
}

// Write serializes the report to path, choosing the format from the file
// extension. Writes are best-effort: a failed write leaves no partial-file
// cleanup behind.
func (w *Writer) Write(path string, rep Report) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = w.encodeAggregated(rep)
	default:
		data, err = w.encodeRaw(rep)
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write trace report %s: %w", path, err)
	}
	defer errors.DeferClose(w.logger, f, "failed to close trace report file")

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write trace report %s: %w", path, err)
	}

	w.logger.Info().
		Str("path", path).
		Int("threads", len(rep.Threads)).
		Int("bytes", len(data)).
		Msg("Trace report written")
	return nil
}

// sectionEvents converts every captured section into a complete event.
func (w *Writer) sectionEvents(rep Report) []traceevent.Event {
	var events []traceevent.Event
	for _, th := range rep.Threads {
		for _, sec := range th.Sections {
			var args map[string]any
			if sec.Details != "" {
				args = map[string]any{"detail": sec.Details}
			}
			events = append(events, traceevent.NewCompleteEvent(
				sec.Label, sec.Start, sec.Duration, w.pid, th.ID, args))
		}
	}
	return events
}

// encodeAggregated produces the object-envelope profile document with
// process and thread metadata so viewers can label and sort timeline rows.
func (w *Writer) encodeAggregated(rep Report) ([]byte, error) {
	events := []traceevent.Event{
		traceevent.NewMetadataEvent(traceevent.MetaProcessName, w.pid, 0,
			map[string]any{"name": rep.ProcessName}),
		traceevent.NewMetadataEvent(traceevent.MetaProcessSortIndex, w.pid, 0,
			map[string]any{"sort_index": rep.SortIndex}),
	}
	for _, th := range rep.Threads {
		events = append(events, traceevent.NewMetadataEvent(
			traceevent.MetaThreadName, w.pid, th.ID,
			map[string]any{"name": th.Name}))
	}
	events = append(events, w.sectionEvents(rep)...)
	events = append(events, rep.Counters...)

	file := traceevent.File{
		TraceEvents:     events,
		DisplayTimeUnit: "ms",
		OtherData: map[string]any{
			"processName": rep.ProcessName,
			"runId":       rep.RunID,
			"recordedAt":  rep.RecordedAt.UTC().Format(time.RFC3339),
		},
	}

	data, err := json.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode trace profile: %w", err)
	}
	return data, nil
}

// encodeRaw produces the bare trace-events array, appending records read
// from each external file without modification.
func (w *Writer) encodeRaw(rep Report) ([]byte, error) {
	var records []json.RawMessage

	appendEvent := func(ev traceevent.Event) error {
		msg, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to encode trace event %q: %w", ev.Name, err)
		}
		records = append(records, msg)
		return nil
	}

	for _, ev := range w.sectionEvents(rep) {
		if err := appendEvent(ev); err != nil {
			return nil, err
		}
	}
	for _, ev := range rep.Counters {
		if err := appendEvent(ev); err != nil {
			return nil, err
		}
	}

	for _, path := range rep.ExternalFiles {
		merged, err := w.readExternal(path)
		if err != nil {
			// One unreadable external file must not lose the whole run.
			w.logger.Warn().Err(err).Str("path", path).Msg("Skipping external trace file")
			continue
		}
		records = append(records, merged...)
	}

	return traceevent.EncodeRaw(records)
}

func (w *Writer) readExternal(path string) ([]json.RawMessage, error) {
	data, err := safe.ReadFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read external trace file: %w", err)
	}
	records, err := traceevent.DecodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse external trace file: %w", err)
	}
	return records, nil
}
