package profiler

import (
	"runtime"
)

// currentGoroutineID extracts the goroutine id from the runtime.Stack
// header ("goroutine 123 [running]:"). The runtime deliberately offers no
// API for this; parsing the stack header is the stable, widely used
// fallback. The cost is one small stack capture per Begin/End pair, which
// is acceptable for section-level instrumentation.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	const prefix = "goroutine "
	if n <= len(prefix) {
		return 0
	}

	var id uint64
	for _, c := range buf[len(prefix):n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
