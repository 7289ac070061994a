package sim

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerRemaining(t *testing.T) {
	base := time.Unix(0, 0)
	var tick int64
	clock := func() time.Time {
		return base.Add(time.Duration(atomic.LoadInt64(&tick)) * time.Second)
	}

	timer := newTimerWithClock(clock)
	for i := 0; i < 4; i++ {
		atomic.AddInt64(&tick, 2)
		if d := timer.Lap(); d != 2*time.Second {
			t.Fatalf("expected 2s lap, got %v", d)
		}
	}

	if timer.Cycles() != 4 {
		t.Errorf("expected 4 cycles, got %d", timer.Cycles())
	}
	if timer.Average() != 2*time.Second {
		t.Errorf("expected 2s average, got %v", timer.Average())
	}
	if got := timer.Remaining(4, 10); got != 12*time.Second {
		t.Errorf("expected 12s remaining, got %v", got)
	}
	if got := timer.Remaining(10, 10); got != 0 {
		t.Errorf("expected nothing remaining, got %v", got)
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		done, total int
		expected    string
	}{
		{0, 10, "[          ]   0%"},
		{5, 10, "[=====     ]  50%"},
		{10, 10, "[==========] 100%"},
		{12, 10, "[==========] 100%"},
	}

	for _, tt := range tests {
		if got := Progress(tt.done, tt.total, 10); got != tt.expected {
			t.Errorf("Progress(%d, %d) = %q, want %q", tt.done, tt.total, got, tt.expected)
		}
	}
}
