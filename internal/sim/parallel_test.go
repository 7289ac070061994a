package sim

import (
	"sync/atomic"
	"testing"
)

func TestParallelForCoversRange(t *testing.T) {
	tests := []struct {
		name              string
		n, workers, chunk int
	}{
		{"serial", 10, 1, 4},
		{"small range", 3, 8, 4},
		{"even split", 1000, 4, 16},
		{"uneven split", 1001, 7, 16},
		{"empty", 0, 4, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.n)
			ParallelFor(tt.n, tt.workers, tt.chunk, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, c := range seen {
				if c != 1 {
					t.Fatalf("index %d visited %d times", i, c)
				}
			}
		})
	}
}

func TestStateTotalSteps(t *testing.T) {
	s := &State{Dt: 0.001, Time: 0, EndTime: 1}
	if got := s.TotalSteps(); got != 1000 {
		t.Errorf("expected 1000 steps, got %d", got)
	}

	s.Time = 1
	if got := s.TotalSteps(); got != 0 {
		t.Errorf("expected 0 steps, got %d", got)
	}
	if !s.Done() {
		t.Error("expected state to be done")
	}
}
