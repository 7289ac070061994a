package sim

import (
	"fmt"
	"strings"
	"time"
)

// Timer measures wall time per cycle and extrapolates the remaining run
// time from the running average.
type Timer struct {
	now     func() time.Time
	start   time.Time
	last    time.Time
	cycles  int
	elapsed time.Duration
}

func NewTimer() *Timer {
	return newTimerWithClock(time.Now)
}

func newTimerWithClock(now func() time.Time) *Timer {
	t := &Timer{now: now}
	t.Reset()
	return t
}

func (t *Timer) Reset() {
	t.start = t.now()
	t.last = t.start
	t.cycles = 0
	t.elapsed = 0
}

// Lap closes one cycle and returns its duration.
func (t *Timer) Lap() time.Duration {
	now := t.now()
	d := now.Sub(t.last)
	t.last = now
	t.cycles++
	t.elapsed += d
	return d
}

func (t *Timer) Cycles() int { return t.cycles }

func (t *Timer) Elapsed() time.Duration { return t.now().Sub(t.start) }

func (t *Timer) Average() time.Duration {
	if t.cycles == 0 {
		return 0
	}
	return t.elapsed / time.Duration(t.cycles)
}

// Remaining estimates the time needed for the cycles between done and total.
func (t *Timer) Remaining(done, total int) time.Duration {
	if done >= total {
		return 0
	}
	return t.Average() * time.Duration(total-done)
}

// Progress renders a fixed-width load bar such as "[=====     ]  50%".
func Progress(done, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	ratio := float64(done) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	filled := int(ratio * float64(width))
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("=", filled), strings.Repeat(" ", width-filled), int(ratio*100))
}
