package core

import (
	"runtime"
	"time"
)

const (
	spinIterations  = 64
	yieldIterations = 128
	maxSleepBackoff = time.Millisecond
)

// backoff is a spin-then-yield-then-sleep waiter for busy loops. The zero
// value is ready to use; it is not safe for concurrent use.
type backoff struct {
	n     int
	sleep time.Duration
}

// wait pauses the caller for a little longer on each call.
func (b *backoff) wait() {
	switch {
	case b.n < spinIterations:
		// busy spin
	case b.n < spinIterations+yieldIterations:
		runtime.Gosched()
	default:
		if b.sleep == 0 {
			b.sleep = time.Microsecond
		} else if b.sleep < maxSleepBackoff {
			b.sleep *= 2
		}
		time.Sleep(b.sleep)
	}
	b.n++
}
