// Package counters samples runtime and process counters during a profiling
// run and emits them as trace-event counter records, so resource usage can
// be read alongside the section timeline in a trace viewer.
package counters

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/tracelite-io/tracelite/internal/traceevent"
)

// Sampler periodically records counter events until stopped.
type Sampler struct {
	logger   zerolog.Logger
	interval time.Duration
	now      func() int64
	pid      int64
	proc     *process.Process

	mu     sync.Mutex
	events []traceevent.Event

	stop chan struct{}
	done chan struct{}
}

// NewSampler creates a sampler. now must return the trace clock in
// microseconds so counter events line up with section timestamps.
func NewSampler(logger zerolog.Logger, interval time.Duration, now func() int64) *Sampler {
	s := &Sampler{
		logger:   logger.With().Str("component", "counter_sampler").Logger(),
		interval: interval,
		now:      now,
		pid:      int64(os.Getpid()),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		// Runtime counters still work without process-level stats.
		s.logger.Warn().Err(err).Msg("Process stats unavailable, sampling runtime counters only")
	} else {
		s.proc = proc
	}
	return s
}

// Start launches the sampling loop. One sample is taken immediately so even
// very short runs carry at least one counter event.
func (s *Sampler) Start() {
	go func() {
		defer close(s.done)

		s.sample()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.sample()
			}
		}
	}()
}

// Stop halts the sampling loop, waits for it to exit, and returns every
// event recorded during the run.
func (s *Sampler) Stop() []traceevent.Event {
	close(s.stop)
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}

func (s *Sampler) sample() {
	ts := s.now()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	events := []traceevent.Event{
		traceevent.NewCounterEvent("runtime", ts, s.pid, 0, map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"heap_bytes": mem.HeapAlloc,
		}),
	}

	if s.proc != nil {
		values := map[string]any{}
		if memInfo, err := s.proc.MemoryInfo(); err == nil && memInfo != nil {
			values["rss_bytes"] = memInfo.RSS
		}
		if cpuPercent, err := s.proc.CPUPercent(); err == nil {
			values["cpu_percent"] = cpuPercent
		}
		if len(values) > 0 {
			events = append(events, traceevent.NewCounterEvent("process", ts, s.pid, 0, values))
		}
	}

	s.mu.Lock()
	s.events = append(s.events, events...)
	s.mu.Unlock()
}
