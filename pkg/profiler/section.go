package profiler

// ElisionThresholdMicros is the duration below which a just-closed leaf
// section (no recorded children after it) is removed from its log. Many
// short leaf calls would otherwise dominate the report.
const ElisionThresholdMicros = 1000

// sectionLogCapacity is the initial capacity of a goroutine's section log.
// Instrumented code can easily record thousands of sections per run; a
// large hint avoids reallocation churn on the hot path.
const sectionLogCapacity = 4096

// Section is one labeled, timed interval recorded on a single goroutine.
// Its identity is its index within the owning goroutine's log; the record
// is mutated exactly once, at close, and is immutable afterwards.
type Section struct {
	Label   string
	Details string
	// Start is microseconds since the process trace epoch.
	Start int64
	// Duration is microseconds, or -1 while the section is still open.
	Duration int64
}

// Open reports whether the section has not been closed yet.
func (s Section) Open() bool { return s.Duration < 0 }
