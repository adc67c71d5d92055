package profiler

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelite-io/tracelite/internal/testutil"
	"github.com/tracelite-io/tracelite/internal/traceevent"
)

func newTestProfiler(t *testing.T) *Profiler {
	t.Helper()
	return New(Options{Logger: testutil.NewTestLogger(t)})
}

func TestSectionDurations(t *testing.T) {
	p := newTestProfiler(t)

	outer := p.Begin("outer")
	time.Sleep(2 * time.Millisecond)

	sections := p.CurrentThreadSections()
	require.Len(t, sections, 1)
	assert.Equal(t, "outer", sections[0].Label)
	assert.True(t, sections[0].Open())

	require.NoError(t, outer.End())

	// The run ended and the log was cleared.
	assert.Empty(t, p.CurrentThreadSections())
}

func TestNestedSectionsCloseLIFO(t *testing.T) {
	p := newTestProfiler(t)

	outer := p.Begin("outer")
	inner := p.BeginDetailed("inner", "chunk 3")
	time.Sleep(2 * time.Millisecond)

	require.NoError(t, inner.End())

	sections := p.CurrentThreadSections()
	require.Len(t, sections, 2)
	assert.Equal(t, "inner", sections[1].Label)
	assert.Equal(t, "chunk 3", sections[1].Details)
	assert.False(t, sections[1].Open())
	assert.GreaterOrEqual(t, sections[1].Duration, int64(2000))
	assert.GreaterOrEqual(t, sections[1].Start, sections[0].Start)

	require.NoError(t, outer.End())
}

func TestElision(t *testing.T) {
	t.Run("short leaf at log tail is removed", func(t *testing.T) {
		p := newTestProfiler(t)

		outer := p.Begin("outer")
		inner := p.Begin("inner")
		require.NoError(t, inner.End())

		sections := p.CurrentThreadSections()
		require.Len(t, sections, 1)
		assert.Equal(t, "outer", sections[0].Label)

		require.NoError(t, outer.End())
	})

	t.Run("slow leaf is retained", func(t *testing.T) {
		p := newTestProfiler(t)

		outer := p.Begin("outer")
		inner := p.Begin("inner")
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, inner.End())

		sections := p.CurrentThreadSections()
		require.Len(t, sections, 2)
		assert.Equal(t, "inner", sections[1].Label)
		assert.GreaterOrEqual(t, sections[1].Duration, int64(ElisionThresholdMicros))

		require.NoError(t, outer.End())
	})

	t.Run("short section with children is retained", func(t *testing.T) {
		p := newTestProfiler(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "out.trace")
		p.ConfigureOutput(path, "test", 0)

		outer := p.Begin("outer")
		inner := p.Begin("inner")
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, inner.End())
		// outer closes quickly, but inner sits after it in the log, so the
		// childless check fails and outer survives.
		require.NoError(t, outer.End())

		labels := completeEventLabels(t, path)
		assert.Contains(t, labels, "outer")
		assert.Contains(t, labels, "inner")
	})

	t.Run("index slot is reused after elision", func(t *testing.T) {
		p := newTestProfiler(t)

		outer := p.Begin("outer")

		fast := p.Begin("fast")
		require.NoError(t, fast.End())

		slow := p.Begin("slow")
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, slow.End())

		sections := p.CurrentThreadSections()
		require.Len(t, sections, 2)
		assert.Equal(t, []string{"outer", "slow"}, []string{sections[0].Label, sections[1].Label})

		require.NoError(t, outer.End())
	})
}

func TestNestingViolationPanics(t *testing.T) {
	p := newTestProfiler(t)

	outer := p.Begin("outer")
	p.Begin("inner")

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a nesting-violation panic")
		msg, ok := r.(string)
		require.True(t, ok, "panic value should be a string, got %T", r)
		assert.Contains(t, msg, `"outer"`, "panic must name the section being closed")
		assert.Contains(t, msg, `"inner"`, "panic must name the section on top of the stack")
	}()

	_ = outer.End() // inner is still open
}

func TestEndIsIdempotentAndNilSafe(t *testing.T) {
	p := newTestProfiler(t)

	span := p.Begin("once")
	require.NoError(t, span.End())
	require.NoError(t, span.End())

	var nilSpan *Span
	require.NoError(t, nilSpan.End())
}

func TestAutoFinishWritesReportAndResets(t *testing.T) {
	p := newTestProfiler(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "run.trace")
	p.ConfigureOutput(path, "test-proc", 3)

	outer := p.Begin("outer")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, outer.End())

	// Report exists and contains the section.
	assert.Contains(t, completeEventLabels(t, path), "outer")

	// Contexts survive but are emptied.
	snapshot := p.CaptureSnapshot()
	require.Len(t, snapshot, 1)
	assert.Empty(t, snapshot[0].Sections())
	assert.Zero(t, snapshot[0].OpenDepth())

	// The output path was consumed: a second run writes nothing until
	// reconfigured.
	require.NoError(t, os.Remove(path))
	second := p.Begin("second")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, second.End())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFinishWithoutOutputConfigured(t *testing.T) {
	p := newTestProfiler(t)

	span := p.Begin("quiet")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, span.End())

	snapshot := p.CaptureSnapshot()
	require.Len(t, snapshot, 1)
	assert.Empty(t, snapshot[0].Sections())
}

func TestEndPropagatesWriteError(t *testing.T) {
	p := newTestProfiler(t)
	p.ConfigureOutput(filepath.Join(t.TempDir(), "missing-dir", "run.trace"), "test", 0)

	span := p.Begin("doomed")
	time.Sleep(2 * time.Millisecond)

	err := span.End()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write trace report")
}

func TestProfilerReusableAcrossRuns(t *testing.T) {
	p := newTestProfiler(t)
	dir := t.TempDir()

	for i, name := range []string{"first.trace", "second.trace"} {
		path := filepath.Join(dir, name)
		p.ConfigureOutput(path, "test", i)

		span := p.Begin("work")
		time.Sleep(2 * time.Millisecond)
		require.NoError(t, span.End())

		assert.Contains(t, completeEventLabels(t, path), "work")
	}

	// Still a single context for this goroutine after two runs.
	assert.Len(t, p.CaptureSnapshot(), 1)
}

func TestConcurrentGoroutines(t *testing.T) {
	p := newTestProfiler(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.trace")
	p.ConfigureOutput(path, "test", 0)

	outer := p.Begin("outer") // this goroutine starts the run

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.NameCurrentThread("worker")
			span := p.Begin("job")
			time.Sleep(2 * time.Millisecond)
			_ = span.End()
		}()
	}
	wg.Wait()

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, outer.End()) // starting goroutine empties its stack last

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	events, err := traceevent.Decode(data)
	require.NoError(t, err)

	byLabel := map[string]int{}
	tids := map[int64]bool{}
	for _, ev := range events {
		if ev.Phase != traceevent.PhaseComplete {
			continue
		}
		byLabel[ev.Name]++
		tids[ev.ThreadID] = true
	}

	assert.Equal(t, 1, byLabel["outer"])
	assert.Equal(t, 4, byLabel["job"])
	assert.Len(t, tids, 5, "each goroutine reports on its own timeline row")
}

func TestWorkerFinishDoesNotEndRun(t *testing.T) {
	p := newTestProfiler(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "run.trace")
	p.ConfigureOutput(path, "test", 0)

	outer := p.Begin("outer")

	done := make(chan struct{})
	go func() {
		defer close(done)
		span := p.Begin("job")
		time.Sleep(2 * time.Millisecond)
		_ = span.End()
	}()
	<-done

	// The worker's stack emptied, but it did not start the run.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "report must not be written before the starting goroutine finishes")

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, outer.End())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestCaptureSnapshotIsACopy(t *testing.T) {
	p := newTestProfiler(t)

	span := p.Begin("work")

	snapshot := p.CaptureSnapshot()
	require.Len(t, snapshot, 1)
	snapshot[0] = nil // mutating the copy must not affect the registry

	again := p.CaptureSnapshot()
	require.Len(t, again, 1)
	assert.NotNil(t, again[0])

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, span.End())
}

func TestAggregatedFormatEndToEnd(t *testing.T) {
	p := newTestProfiler(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	p.ConfigureOutput(path, "aggregator", 7)
	p.NameCurrentThread("main")

	outer := p.BeginDetailed("outer", "startup")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, outer.End())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(strings.TrimSpace(string(data)), "{"),
		"aggregated format uses the object envelope")

	events, err := traceevent.Decode(data)
	require.NoError(t, err)

	var sawProcess, sawThread, sawSection bool
	for _, ev := range events {
		switch {
		case ev.Phase == traceevent.PhaseMetadata && ev.Name == traceevent.MetaProcessName:
			sawProcess = true
			assert.Equal(t, "aggregator", ev.Args["name"])
		case ev.Phase == traceevent.PhaseMetadata && ev.Name == traceevent.MetaThreadName:
			sawThread = true
			assert.Equal(t, "main", ev.Args["name"])
		case ev.Phase == traceevent.PhaseComplete:
			sawSection = true
			assert.Equal(t, "outer", ev.Name)
			assert.Equal(t, "startup", ev.Args["detail"])
			assert.GreaterOrEqual(t, ev.Duration, int64(2000))
		}
	}
	assert.True(t, sawProcess && sawThread && sawSection)
}

func TestExternalTraceEventFilesAreMerged(t *testing.T) {
	p := newTestProfiler(t)
	dir := t.TempDir()

	external := filepath.Join(dir, "frames.trace")
	require.NoError(t, os.WriteFile(external,
		[]byte(`[{"name":"frame","ph":"X","ts":10,"dur":16000,"tid":99}]`), 0o600))

	path := filepath.Join(dir, "merged.trace")
	p.ConfigureOutput(path, "test", 0)
	p.AddExternalTraceEventFile(external)

	span := p.Begin("work")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, span.End())

	labels := completeEventLabels(t, path)
	assert.Contains(t, labels, "work")
	assert.Contains(t, labels, "frame")

	// The external-file set was cleared by Finish: a second run to a new
	// path carries no external events.
	second := filepath.Join(dir, "second.trace")
	p.ConfigureOutput(second, "test", 0)
	span = p.Begin("work")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, span.End())

	assert.NotContains(t, completeEventLabels(t, second), "frame")
}

func TestCounterSamplingDuringRun(t *testing.T) {
	p := New(Options{
		Logger:          testutil.NewTestLogger(t),
		CounterInterval: 5 * time.Millisecond,
	})
	dir := t.TempDir()
	path := filepath.Join(dir, "run.trace")
	p.ConfigureOutput(path, "test", 0)

	span := p.Begin("work")
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, span.End())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	events, err := traceevent.Decode(data)
	require.NoError(t, err)

	var counterSeen bool
	for _, ev := range events {
		if ev.Phase == traceevent.PhaseCounter && ev.Name == "runtime" {
			counterSeen = true
			assert.Contains(t, ev.Args, "goroutines")
		}
	}
	assert.True(t, counterSeen, "expected runtime counter events in the report")
}

func TestDefaultInstance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "default.trace")
	ConfigureOutput(path, "default-proc", 0)

	span := Begin("default-work")
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, span.End())

	assert.Contains(t, completeEventLabels(t, path), "default-work")
	assert.NotEmpty(t, Default().CaptureSnapshot())
}

func completeEventLabels(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	events, err := traceevent.Decode(data)
	require.NoError(t, err)

	var labels []string
	for _, ev := range events {
		if ev.Phase == traceevent.PhaseComplete {
			labels = append(labels, ev.Name)
		}
	}
	return labels
}
