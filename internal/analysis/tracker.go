package analysis

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/psim/internal/sim"
)

// Tracker accumulates the unwrapped displacement of every particle since it
// was created or last reset. Observe must see every step.
type Tracker struct {
	mu      sync.Mutex
	disp    []r3.Vec
	workers int
}

func NewTracker(workers int) *Tracker {
	if workers < 1 {
		workers = 1
	}
	return &Tracker{workers: workers}
}

func (t *Tracker) Name() string { return "tracked_msd" }

func (t *Tracker) Observe(s *sim.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ps := s.Particles
	if len(t.disp) != len(ps) {
		t.disp = make([]r3.Vec, len(ps))
	}
	sim.ParallelFor(len(ps), t.workers, 256, func(start, end int) {
		for i := start; i < end; i++ {
			t.disp[i] = r3.Add(t.disp[i], ps[i].Displacement())
		}
	})
}

// MSD is the mean squared displacement since the origin.
func (t *Tracker) MSD() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.disp) == 0 {
		return 0
	}
	var sum float64
	for _, d := range t.disp {
		sum += r3.Norm2(d)
	}
	return sum / float64(len(t.disp))
}

func (t *Tracker) Value() float64 { return t.MSD() }

// Displacement returns a copy of the accumulated displacements.
func (t *Tracker) Displacement() []r3.Vec {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]r3.Vec(nil), t.disp...)
}

func (t *Tracker) Reset() {
	t.mu.Lock()
	t.disp = nil
	t.mu.Unlock()
}
