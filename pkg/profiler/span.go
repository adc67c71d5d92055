package profiler

// Span is the scoped handle for one open section. End must run on the same
// goroutine that opened the section, on every exit path; defer it
// immediately after Begin.
type Span struct {
	p     *Profiler
	tc    *ThreadContext
	index int
	ended bool
}

// End closes the section. When this close empties the open stack of the
// goroutine that started the run, the report is written and the run resets;
// any write failure is returned here (and from nowhere else). End on a nil
// or already-ended span is a no-op.
func (s *Span) End() error {
	if s == nil || s.ended {
		return nil
	}
	s.ended = true
	return s.p.closeSection(s.tc, s.index)
}

// sectionLabel returns the label of a section by index, tolerating indices
// that a run reset has truncated away.
func sectionLabel(tc *ThreadContext, index int) string {
	if index < 0 || index >= len(tc.sections) {
		return "<discarded>"
	}
	return tc.sections[index].Label
}
