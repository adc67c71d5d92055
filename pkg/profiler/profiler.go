package profiler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tracelite-io/tracelite/internal/constants"
	"github.com/tracelite-io/tracelite/internal/counters"
	"github.com/tracelite-io/tracelite/internal/report"
	"github.com/tracelite-io/tracelite/internal/safe"
	"github.com/tracelite-io/tracelite/internal/traceevent"
)

// Options configures a Profiler instance.
type Options struct {
	// Logger receives profiler diagnostics. Defaults to a no-op logger so
	// instrumented libraries stay silent unless the host application opts in.
	Logger zerolog.Logger

	// CounterInterval, when positive, samples runtime/process counters at
	// this interval for the duration of each run and includes the counter
	// events in the report.
	CounterInterval time.Duration
}

// Profiler records nested timed sections per goroutine and writes the
// captured timeline out when the run ends. The zero value is not usable;
// construct with New or use the package-level default instance.
type Profiler struct {
	logger          zerolog.Logger
	writer          *report.Writer
	counterInterval time.Duration

	// contexts indexes goroutine id -> *ThreadContext. Reads on the hot
	// path are lock-free; only first-use registration inserts.
	contexts sync.Map

	// running mirrors started for lock-free checks on the close path.
	running atomic.Bool

	mu            sync.Mutex
	ordered       []*ThreadContext
	started       bool
	startingID    uint64
	runID         string
	outputPath    string
	processName   string
	sortIndex     int
	externalFiles []string
	sampler       *counters.Sampler
}

// New creates a profiler instance.
func New(opts Options) *Profiler {
	logger := opts.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}
	logger = logger.With().Str("component", "profiler").Logger()

	return &Profiler{
		logger:          logger,
		writer:          report.NewWriter(logger),
		counterInterval: opts.CounterInterval,
		processName:     constants.DefaultProcessName,
	}
}

// Begin opens a section on the calling goroutine and returns its handle.
// Release the handle with End on every exit path, normal or erroring:
//
//	span := p.Begin("LoadAssets")
//	defer span.End()
func (p *Profiler) Begin(label string) *Span {
	return p.BeginDetailed(label, "")
}

// BeginDetailed opens a section carrying free-form details, shown by trace
// viewers in the event's args. An empty label is legal.
func (p *Profiler) BeginDetailed(label, details string) *Span {
	id := currentGoroutineID()
	tc := p.contextFor(id)
	p.ensureStarted(id)

	index := len(tc.sections)
	tc.sections = append(tc.sections, Section{
		Label:    label,
		Details:  details,
		Start:    nowMicros(),
		Duration: -1,
	})
	tc.open = append(tc.open, index)

	return &Span{p: p, tc: tc, index: index}
}

// ConfigureOutput sets the destination for the next report. The format
// follows the file extension: ".json" selects the aggregated profile
// document, anything else the raw trace-events stream. An empty process
// name defaults to "host". Takes effect at the next Finish.
func (p *Profiler) ConfigureOutput(path, processName string, sortIndex int) {
	if processName == "" {
		processName = constants.DefaultProcessName
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputPath = path
	p.processName = processName
	p.sortIndex = sortIndex
}

// AddExternalTraceEventFile registers a trace-event file whose records are
// merged, unmodified, into the next raw report.
func (p *Profiler) AddExternalTraceEventFile(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.externalFiles = append(p.externalFiles, path)
}

// CaptureSnapshot returns a point-in-time copy of the registered thread
// contexts. The slice is the caller's; the contexts it points to are live.
func (p *Profiler) CaptureSnapshot() []*ThreadContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot := make([]*ThreadContext, len(p.ordered))
	copy(snapshot, p.ordered)
	return snapshot
}

// CurrentThreadSections returns the live section log of the calling
// goroutine, or nil if it has never opened a section. Callers must not
// mutate the slice.
func (p *Profiler) CurrentThreadSections() []Section {
	if v, ok := p.contexts.Load(currentGoroutineID()); ok {
		return v.(*ThreadContext).sections
	}
	return nil
}

// NameCurrentThread sets the timeline row name reported for the calling
// goroutine, replacing the default "goroutine-<id>".
func (p *Profiler) NameCurrentThread(name string) {
	tc := p.contextFor(currentGoroutineID())
	tc.name = name
}

// Finish ends the run: it writes the report if an output is configured,
// then clears the external-file set, the output path, the started flag and
// every context's log and open stack. Contexts stay registered so the
// profiler is reusable for a subsequent run.
//
// Finish runs automatically, on whichever goroutine closed it, when the
// run-starting goroutine's last open section ends; call it directly only
// from harnesses that manage run boundaries themselves.
func (p *Profiler) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.finishLocked()
}

// contextFor returns the calling goroutine's context, registering a new
// one on first use. Only the owning goroutine ever registers its own id, so
// Store cannot race with another insert of the same key.
func (p *Profiler) contextFor(id uint64) *ThreadContext {
	if v, ok := p.contexts.Load(id); ok {
		return v.(*ThreadContext)
	}

	tc := newThreadContext(id, fmt.Sprintf("goroutine-%d", id))

	p.mu.Lock()
	p.contexts.Store(id, tc)
	p.ordered = append(p.ordered, tc)
	p.mu.Unlock()

	p.logger.Trace().Uint64("goroutine", id).Msg("Registered thread context")
	return tc
}

// ensureStarted transitions the run to started on the first Begin anywhere
// and records which goroutine started it.
func (p *Profiler) ensureStarted(id uint64) {
	if p.running.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}

	p.started = true
	p.startingID = id
	p.runID = uuid.NewString()
	p.running.Store(true)

	if p.counterInterval > 0 {
		p.sampler = counters.NewSampler(p.logger, p.counterInterval, nowMicros)
		p.sampler.Start()
	}

	p.logger.Debug().
		Str("run_id", p.runID).
		Uint64("starting_goroutine", id).
		Msg("Profiling run started")
}

// closeSection pops the open stack, finalizes or elides the record, and
// ends the run when the starting goroutine's stack empties.
func (p *Profiler) closeSection(tc *ThreadContext, index int) error {
	if len(tc.open) == 0 {
		panic(fmt.Sprintf(
			"profiler: closing section %q on %s but no sections are open",
			sectionLabel(tc, index), tc.name))
	}

	top := tc.open[len(tc.open)-1]
	if top != index {
		panic(fmt.Sprintf(
			"profiler: nesting violation on %s: closing %q (index %d) while %q (index %d) is still open; sections must close in LIFO order",
			tc.name, sectionLabel(tc, index), index, sectionLabel(tc, top), top))
	}
	tc.open = tc.open[:len(tc.open)-1]

	duration := nowMicros() - tc.sections[index].Start

	// Elide short leaves. "Last entry in the log" is the childless check:
	// any nested section would have been appended after this one. Sections
	// with children always survive so child indices and the timeline shape
	// stay valid.
	if index == len(tc.sections)-1 && duration < ElisionThresholdMicros {
		tc.sections = tc.sections[:index]
	} else {
		tc.sections[index].Duration = duration
	}

	if len(tc.open) == 0 && p.running.Load() {
		return p.maybeFinish(tc)
	}
	return nil
}

func (p *Profiler) maybeFinish(tc *ThreadContext) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started || tc.id != p.startingID {
		return nil
	}
	return p.finishLocked()
}

func (p *Profiler) finishLocked() error {
	var counterEvents []traceevent.Event
	if p.sampler != nil {
		counterEvents = p.sampler.Stop()
		p.sampler = nil
	}

	var writeErr error
	if p.outputPath != "" {
		rep := report.Report{
			ProcessName:   p.processName,
			SortIndex:     p.sortIndex,
			RunID:         p.runID,
			RecordedAt:    time.Now(),
			Counters:      counterEvents,
			ExternalFiles: append([]string(nil), p.externalFiles...),
		}
		for _, tc := range p.ordered {
			tid, clamped := safe.Uint64ToInt64(tc.id)
			if clamped {
				p.logger.Warn().Uint64("goroutine", tc.id).Msg("Goroutine id clamped for trace output")
			}
			th := report.Thread{ID: tid, Name: tc.name}
			for _, sec := range tc.sections {
				if sec.Open() {
					// Still open on another goroutine; it has no duration
					// yet and cannot be exported.
					continue
				}
				th.Sections = append(th.Sections, report.Section{
					Label:    sec.Label,
					Details:  sec.Details,
					Start:    sec.Start,
					Duration: sec.Duration,
				})
			}
			rep.Threads = append(rep.Threads, th)
		}

		writeErr = p.writer.Write(p.outputPath, rep)
	}

	p.logger.Debug().Str("run_id", p.runID).Msg("Profiling run finished")

	p.externalFiles = nil
	p.outputPath = ""
	p.runID = ""
	p.started = false
	p.running.Store(false)
	for _, tc := range p.ordered {
		tc.reset()
	}

	return writeErr
}
