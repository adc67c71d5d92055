package profiler

// ThreadContext is the profiler's private state for one goroutine: its
// section log and the stack of currently open section indices.
//
// Both containers are mutated only by the owning goroutine. The single
// cross-goroutine touch points are registration (lock-protected) and the
// log/stack reset performed by Finish.
type ThreadContext struct {
	id   uint64
	name string

	sections []Section
	open     []int
}

func newThreadContext(id uint64, name string) *ThreadContext {
	return &ThreadContext{
		id:       id,
		name:     name,
		sections: make([]Section, 0, sectionLogCapacity),
		open:     make([]int, 0, 16),
	}
}

// ID returns the goroutine id this context belongs to.
func (c *ThreadContext) ID() uint64 { return c.id }

// Name returns the display name used for this goroutine's timeline row.
func (c *ThreadContext) Name() string { return c.name }

// Sections returns the live section log. Callers must not mutate it, and
// must not read it concurrently with profiler operations on the owning
// goroutine.
func (c *ThreadContext) Sections() []Section { return c.sections }

// OpenDepth returns the number of currently open sections.
func (c *ThreadContext) OpenDepth() int { return len(c.open) }

func (c *ThreadContext) reset() {
	c.sections = c.sections[:0]
	c.open = c.open[:0]
}
