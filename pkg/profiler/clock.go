package profiler

import (
	"sync"
	"time"
)

// The trace clock is anchored once per process: the wall-clock time of the
// first measurement becomes the epoch, and every later timestamp is epoch +
// monotonic elapsed, in microseconds. Anchoring to one epoch lets a trace
// viewer align sections from every goroutine, and from merged external
// traces, on a single timeline.
var (
	clockOnce       sync.Once
	epochBase       time.Time
	epochWallMicros int64
)

func nowMicros() int64 {
	clockOnce.Do(func() {
		epochBase = time.Now()
		epochWallMicros = epochBase.UnixMicro()
	})
	// time.Since uses the monotonic reading carried by epochBase.
	return epochWallMicros + time.Since(epochBase).Microseconds()
}
